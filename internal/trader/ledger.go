package trader

import (
	"sync"

	"github.com/shopspring/decimal"
)

// priceObservation is one trade price a trader witnessed, whether or not it
// was a party to it.
type priceObservation struct {
	price decimal.Decimal
}

// fill is a unit this trader actually contracted.
type fill struct {
	price   decimal.Decimal
	surplus decimal.Decimal
}

// Ledger is a trader's private record of the market: every price it has
// observed, and every unit it has itself contracted, with a running
// realized-surplus total. Adapted from the teacher's FlowTracker — the
// mutex-guarded append-only log survives, the toxicity scoring does not:
// a CDA trader has no adverse-selection concept, only realized surplus.
type Ledger struct {
	mu           sync.Mutex
	observations []priceObservation
	fills        []fill
	surplus      decimal.Decimal
}

func newLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) recordPrice(price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observations = append(l.observations, priceObservation{price: price})
}

func (l *Ledger) recordContract(price, surplus decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fills = append(l.fills, fill{price: price, surplus: surplus})
	l.surplus = l.surplus.Add(surplus)
}

// Surplus returns the trader's total realized surplus so far this period.
func (l *Ledger) Surplus() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.surplus
}

// NumContracts reports how many units this trader has contracted.
func (l *Ledger) NumContracts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fills)
}

// LastObservedPrice returns the most recent trade price this trader has
// seen (mine or not), and false if none have occurred yet.
func (l *Ledger) LastObservedPrice() (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.observations) == 0 {
		return decimal.Zero, false
	}
	return l.observations[len(l.observations)-1].price, true
}
