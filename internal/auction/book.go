// Package auction implements the continuous double-auction institution: an
// append-only limit-order book, the standing bid/ask, and the order/contract
// state machine that matches crossing offers.
package auction

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"cda-sim/pkg/types"
)

// Standing is the institution's current best bid and best ask, each tagged
// with the ID of the trader who posted it. At the start of every contract
// period both sides are reset to the market's own seed values
// (PriceFloor/PriceCeiling), owned by the market itself rather than a trader.
type Standing struct {
	Bid   decimal.Decimal
	BidID string
	Ask   decimal.Decimal
	AskID string
}

// Book is an append-only, sequence-numbered log of every offer submitted to
// the institution, mirroring the teacher's RWMutex-guarded Book but trading
// its snapshot-replace semantics for pure append: nothing already recorded
// is ever rewritten.
type Book struct {
	mu      sync.RWMutex
	entries []types.Offer
	seq     int
}

// NewBook returns an empty book with sequence numbering starting at 1.
func NewBook() *Book {
	return &Book{entries: make([]types.Offer, 0, 64)}
}

// Add appends an offer to the log and assigns it the next sequence number.
func (b *Book) Add(id string, kind types.Kind, amount decimal.Decimal, action types.Action) types.Offer {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	o := types.Offer{
		Seq:    b.seq,
		ID:     id,
		Kind:   kind,
		Amount: amount,
		Action: action,
	}
	b.entries = append(b.entries, o)
	return o
}

// Entries returns a copy of the full offer log.
func (b *Book) Entries() []types.Offer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.Offer, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of offers recorded so far.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// String renders the log in the original's "seq action kind amount:id" form,
// one entry per line — the print_book equivalent recovered per SPEC_FULL §10.
func (b *Book) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	for _, e := range b.entries {
		fmt.Fprintf(&sb, "%d %s %s %s:%s\n", e.Seq, e.Action, e.Kind, e.Amount.String(), e.ID)
	}
	return sb.String()
}
