// Package trader implements endowments (ReservationValues/UnitCosts), the
// five polymorphic bidding strategies, and the per-trader ledger of
// observed prices and own contracts.
package trader

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"cda-sim/pkg/types"
)

// ErrInvalidEndowment is returned when an endowment cannot be built: zero or
// negative unit count, an inverted [low, high] range, or a negative low
// bound.
var ErrInvalidEndowment = errors.New("trader: invalid endowment")

// ErrUnknownStrategy is returned when a trader is built with a strategy
// name the dispatch table does not recognize.
var ErrUnknownStrategy = errors.New("trader: unknown strategy")

// Endowment holds a trader's per-unit reservation values (buyer) or unit
// costs (seller), sorted into marginal order, plus a cursor marking the
// next unit still available to trade.
type Endowment struct {
	values  []decimal.Decimal
	current int
}

// buildEndowment draws NumUnits integers uniformly from [low, high], sorts
// them descending for a buyer (most valuable unit first) or ascending for a
// seller (cheapest unit first), mirroring
// ReservationValues.build_reservation_values / UnitCosts in the original.
// low == high is a valid, single-valued draw (ParticipantConfig.MaxValue
// only requires gtefield=MinValue, not strictly greater).
func buildEndowment(rng *rand.Rand, side types.Side, numUnits, low, high int) (*Endowment, error) {
	if numUnits <= 0 {
		return nil, fmt.Errorf("num_units %d: %w", numUnits, ErrInvalidEndowment)
	}
	if low < 0 || high < low {
		return nil, fmt.Errorf("range [%d,%d]: %w", low, high, ErrInvalidEndowment)
	}

	vals := make([]decimal.Decimal, numUnits)
	for i := 0; i < numUnits; i++ {
		v := low + rng.Intn(high-low+1)
		vals[i] = decimal.NewFromInt(int64(v))
	}
	if side == types.Buyer {
		sort.Slice(vals, func(i, j int) bool { return vals[i].GreaterThan(vals[j]) })
	} else {
		sort.Slice(vals, func(i, j int) bool { return vals[i].LessThan(vals[j]) })
	}
	return &Endowment{values: vals}, nil
}

// Current returns the value/cost of the next unit still to trade, and
// false once every unit has been contracted (the cursor has advanced past
// the end of the endowment).
func (e *Endowment) Current() (decimal.Decimal, bool) {
	if e.current >= len(e.values) {
		return decimal.Zero, false
	}
	return e.values[e.current], true
}

// First and Last return the endowment's extreme values. Ringuette's span
// uses both; Last is also the worst-case fallback anchor for
// Kaplan/Skeleton's next_token gate once the cursor reaches the trader's
// last unit.
func (e *Endowment) First() decimal.Decimal { return e.values[0] }
func (e *Endowment) Last() decimal.Decimal  { return e.values[len(e.values)-1] }

// Peek returns the value/cost of the unit offset units ahead of the
// cursor (Peek(1) is next_token, the reservation value/cost of the
// trader's next unit after the one currently being quoted), and false if
// that unit doesn't exist.
func (e *Endowment) Peek(offset int) (decimal.Decimal, bool) {
	idx := e.current + offset
	if idx < 0 || idx >= len(e.values) {
		return decimal.Zero, false
	}
	return e.values[idx], true
}

// NumUnits reports the total number of units in the endowment.
func (e *Endowment) NumUnits() int { return len(e.values) }

// All returns a copy of every unit's value/cost in marginal order,
// regardless of how far the cursor has advanced. Used by the environment
// to build the period's demand/supply curves once, before trading begins.
func (e *Endowment) All() []decimal.Decimal {
	out := make([]decimal.Decimal, len(e.values))
	copy(out, e.values)
	return out
}

// advance moves the cursor to the next unit, called once a unit is
// contracted.
func (e *Endowment) advance() { e.current++ }

// Trader is a single market participant: a side, a strategy, an endowment,
// and a ledger of what it has observed and traded.
type Trader struct {
	id       string
	side     types.Side
	strategy types.Strategy
	endow    *Endowment
	ledger   *Ledger
	rng      *rand.Rand
}

// New builds a trader from a participant config and a dedicated RNG stream
// (callers should give each trader its own *rand.Rand derived from the
// period's seed, so trader construction order does not perturb draws).
func New(cfg types.ParticipantConfig, rng *rand.Rand) (*Trader, error) {
	if _, ok := strategyTable[cfg.Strategy]; !ok {
		return nil, fmt.Errorf("strategy %q: %w", cfg.Strategy, ErrUnknownStrategy)
	}
	endow, err := buildEndowment(rng, cfg.Side, cfg.NumUnits, cfg.MinValue, cfg.MaxValue)
	if err != nil {
		return nil, fmt.Errorf("trader %q: %w", cfg.ID, err)
	}
	return &Trader{
		id:       cfg.ID,
		side:     cfg.Side,
		strategy: cfg.Strategy,
		endow:    endow,
		ledger:   newLedger(),
		rng:      rng,
	}, nil
}

// ID returns the trader's identity, used by the institution to address
// offers and notifications.
func (t *Trader) ID() string { return t.id }

// Side returns whether this trader buys or sells.
func (t *Trader) Side() types.Side { return t.side }

// Strategy returns the trader's bidding policy.
func (t *Trader) Strategy() types.Strategy { return t.strategy }

// Endowment exposes the trader's reservation values / unit costs.
func (t *Trader) Endowment() *Endowment { return t.endow }

// Ledger exposes the trader's observed-price history and realized surplus.
func (t *Trader) Ledger() *Ledger { return t.ledger }

// Done reports whether the trader has exhausted every unit in its
// endowment and has nothing left to trade.
func (t *Trader) Done() bool {
	_, ok := t.endow.Current()
	return !ok
}

// Quote asks the trader's strategy for its next offer given the current
// standing bid/ask and how far into the period the market is. It returns
// (amount, false) when the trader has nothing left to trade or declines to
// improve on the current standing this round.
func (t *Trader) Quote(standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	cur, ok := t.endow.Current()
	if !ok {
		return decimal.Zero, false
	}
	fn := strategyTable[t.strategy]
	if t.side == types.Buyer {
		return fn.buy(t, cur, standingBid, standingAsk, round, totalRounds)
	}
	return fn.sell(t, cur, standingBid, standingAsk, round, totalRounds)
}

// OnContract implements auction.Participant: it records the trade price in
// the ledger, and if the trader itself was a party, advances its cursor and
// accumulates realized surplus.
func (t *Trader) OnContract(price decimal.Decimal, mine bool) {
	t.ledger.recordPrice(price)
	if !mine {
		return
	}
	cur, ok := t.endow.Current()
	if !ok {
		return
	}
	var surplus decimal.Decimal
	if t.side == types.Buyer {
		surplus = cur.Sub(price)
	} else {
		surplus = price.Sub(cur)
	}
	t.endow.advance()
	t.ledger.recordContract(price, surplus)
}
