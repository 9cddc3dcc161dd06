package auction

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"cda-sim/internal/metrics"
	"cda-sim/pkg/types"
)

var (
	// ErrUnknownTrader is the logged reason when an offer names a trader
	// that was never registered with the institution; the offer itself is
	// recorded as rejected.
	ErrUnknownTrader = errors.New("auction: unknown trader")
	// ErrWrongSide is the logged reason when a registered trader submits an
	// offer kind that does not match its registered side (a seller bidding,
	// or a buyer asking); the offer itself is recorded as rejected.
	ErrWrongSide = errors.New("auction: offer kind does not match trader side")
)

// Participant is notified whenever a contract forms, whether or not it was
// a party to it — every registered trader observes every trade price,
// mirroring double_auction.py's fan-out to all participants.
type Participant interface {
	ID() string
	Side() types.Side
	OnContract(price decimal.Decimal, mine bool)
}

// Institution is the double-auction market: it owns the book, the standing
// bid/ask, and the settled contract log, and drives the order/contract
// state machine spec.md §4.4 describes.
type Institution struct {
	mu           sync.Mutex
	marketID     string
	book         *Book
	standing     Standing
	contracts    []types.Contract
	participants map[string]Participant
	order        []string
	logger       *slog.Logger
}

// New returns an institution seeded per spec.md §3: standing bid at
// PriceFloor, standing ask at PriceCeiling, both owned by the market itself.
func New(marketID string, logger *slog.Logger) *Institution {
	if logger == nil {
		logger = slog.Default()
	}
	inst := &Institution{
		marketID:     marketID,
		book:         NewBook(),
		participants: make(map[string]Participant),
		logger:       logger.With("component", "auction"),
	}
	inst.resetStanding()
	return inst
}

func (inst *Institution) resetStanding() {
	inst.standing = Standing{
		Bid:   types.PriceFloor,
		BidID: inst.marketID,
		Ask:   types.PriceCeiling,
		AskID: inst.marketID,
	}
	inst.book.Add(inst.marketID, types.KindBid, types.PriceFloor, types.ActionStart)
	inst.book.Add(inst.marketID, types.KindAsk, types.PriceCeiling, types.ActionStart)
}

// Register adds a trader to the institution's notification list. Later
// calls with the same ID replace the earlier registration but keep its
// original position in the notification order.
func (inst *Institution) Register(p Participant) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if _, exists := inst.participants[p.ID()]; !exists {
		inst.order = append(inst.order, p.ID())
	}
	inst.participants[p.ID()] = p
}

// Standing returns a copy of the current best bid/ask.
func (inst *Institution) Standing() Standing {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.standing
}

// Contracts returns a copy of every contract settled so far this period.
func (inst *Institution) Contracts() []types.Contract {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	out := make([]types.Contract, len(inst.contracts))
	copy(out, inst.contracts)
	return out
}

// Book exposes the underlying offer log, e.g. for String()/debug output.
func (inst *Institution) Book() *Book {
	return inst.book
}

// OrderResult reports how the institution resolved a submitted offer.
// Contract is non-nil only when Action is ActionContract.
type OrderResult struct {
	Action   types.Action
	Offer    types.Offer
	Contract *types.Contract
}

// Order submits a bid or ask from a registered trader and runs it through
// the crossing state machine: a crossing offer settles a contract at the
// resting side's price (price-at-standing), a non-crossing improvement
// becomes the new standing, and anything else is rejected. InvalidOrder
// never surfaces as a Go error here per spec.md §7 — an offer from an
// unregistered trader or on the wrong side is booked as rejected and
// returned as the ActionRejected branch of the OrderResult. The returned
// error is always nil.
func (inst *Institution) Order(id string, kind types.Kind, amount decimal.Decimal) (OrderResult, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	p, ok := inst.participants[id]
	if !ok {
		inst.logger.Debug("order rejected", "error", fmt.Errorf("order from %q: %w", id, ErrUnknownTrader))
		o := inst.book.Add(id, kind, amount, types.ActionRejected)
		metrics.IncOffer(string(types.ActionRejected))
		return OrderResult{Action: types.ActionRejected, Offer: o}, nil
	}
	wantKind := types.KindBid
	if p.Side() == types.Seller {
		wantKind = types.KindAsk
	}
	if kind != wantKind {
		inst.logger.Debug("order rejected", "error", fmt.Errorf("order from %q: %w", id, ErrWrongSide))
		o := inst.book.Add(id, kind, amount, types.ActionRejected)
		metrics.IncOffer(string(types.ActionRejected))
		return OrderResult{Action: types.ActionRejected, Offer: o}, nil
	}

	var result OrderResult
	if kind == types.KindBid {
		result = inst.orderBid(id, amount)
	} else {
		result = inst.orderAsk(id, amount)
	}
	metrics.IncOffer(string(result.Action))
	return result, nil
}

func (inst *Institution) orderBid(id string, amount decimal.Decimal) OrderResult {
	switch {
	case amount.GreaterThanOrEqual(inst.standing.Ask):
		if inst.standing.AskID == inst.marketID {
			// Crossing against the seed ask, not a real resting seller: reject.
			o := inst.book.Add(id, types.KindBid, amount, types.ActionRejected)
			return OrderResult{Action: types.ActionRejected, Offer: o}
		}
		price := inst.standing.Ask
		o := inst.book.Add(id, types.KindBid, amount, types.ActionContract)
		c := inst.settleContract(price, id, inst.standing.AskID)
		return OrderResult{Action: types.ActionContract, Offer: o, Contract: &c}
	case amount.GreaterThan(inst.standing.Bid):
		inst.standing.Bid = amount
		inst.standing.BidID = id
		o := inst.book.Add(id, types.KindBid, amount, types.ActionStanding)
		return OrderResult{Action: types.ActionStanding, Offer: o}
	default:
		o := inst.book.Add(id, types.KindBid, amount, types.ActionRejected)
		return OrderResult{Action: types.ActionRejected, Offer: o}
	}
}

func (inst *Institution) orderAsk(id string, amount decimal.Decimal) OrderResult {
	switch {
	case amount.LessThanOrEqual(inst.standing.Bid):
		if inst.standing.BidID == inst.marketID {
			o := inst.book.Add(id, types.KindAsk, amount, types.ActionRejected)
			return OrderResult{Action: types.ActionRejected, Offer: o}
		}
		price := inst.standing.Bid
		o := inst.book.Add(id, types.KindAsk, amount, types.ActionContract)
		c := inst.settleContract(price, inst.standing.BidID, id)
		return OrderResult{Action: types.ActionContract, Offer: o, Contract: &c}
	case amount.LessThan(inst.standing.Ask):
		inst.standing.Ask = amount
		inst.standing.AskID = id
		o := inst.book.Add(id, types.KindAsk, amount, types.ActionStanding)
		return OrderResult{Action: types.ActionStanding, Offer: o}
	default:
		o := inst.book.Add(id, types.KindAsk, amount, types.ActionRejected)
		return OrderResult{Action: types.ActionRejected, Offer: o}
	}
}

// settleContract records the contract, fans the price out to every
// registered participant in registration order, and resets the standing
// bid/ask for the next contract within the period.
func (inst *Institution) settleContract(price decimal.Decimal, buyerID, sellerID string) types.Contract {
	c := types.Contract{Price: price, BuyerID: buyerID, SellerID: sellerID}
	inst.contracts = append(inst.contracts, c)

	for _, pid := range inst.order {
		p, ok := inst.participants[pid]
		if !ok {
			continue
		}
		mine := pid == buyerID || pid == sellerID
		p.OnContract(price, mine)
	}

	inst.logger.Debug("contract settled", "price", price.String(), "buyer", buyerID, "seller", sellerID)
	metrics.IncContract()
	inst.resetStanding()
	return c
}
