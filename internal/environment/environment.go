// Package environment builds a market's traders from configuration and
// computes the competitive equilibrium against which realized surplus is
// measured.
package environment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"cda-sim/internal/trader"
	"cda-sim/pkg/types"
)

// Environment holds every trader built for a period plus the demand/supply
// curves and equilibrium derived from their endowments. Adapted from the
// teacher's market.Scanner: construct-then-rank-then-emit-a-result-struct,
// with the Gamma-API polling dropped entirely (no external market-discovery
// concern exists here).
type Environment struct {
	Buyers  []*trader.Trader
	Sellers []*trader.Trader
	demand  []decimal.Decimal
	supply  []decimal.Decimal
}

// New builds every participant named in cfg, deriving each trader's own RNG
// stream from rng so construction order does not perturb draws across
// traders.
func New(cfg types.MarketConfig, rng *rand.Rand) (*Environment, error) {
	env := &Environment{}
	for _, p := range cfg.Participants {
		tr, err := trader.New(p, rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return nil, fmt.Errorf("environment %q: %w", cfg.MarketName, err)
		}
		if p.Side == types.Buyer {
			env.Buyers = append(env.Buyers, tr)
		} else {
			env.Sellers = append(env.Sellers, tr)
		}
	}
	env.demand = flattenDescending(env.Buyers)
	env.supply = flattenAscending(env.Sellers)
	return env, nil
}

// Traders returns every buyer and seller, suitable for random activation by
// the round driver.
func (env *Environment) Traders() []*trader.Trader {
	out := make([]*trader.Trader, 0, len(env.Buyers)+len(env.Sellers))
	out = append(out, env.Buyers...)
	out = append(out, env.Sellers...)
	return out
}

func flattenDescending(buyers []*trader.Trader) []decimal.Decimal {
	var vals []decimal.Decimal
	for _, b := range buyers {
		vals = append(vals, b.Endowment().All()...)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].GreaterThan(vals[j]) })
	return vals
}

func flattenAscending(sellers []*trader.Trader) []decimal.Decimal {
	var vals []decimal.Decimal
	for _, s := range sellers {
		vals = append(vals, s.Endowment().All()...)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].LessThan(vals[j]) })
	return vals
}

// Demand returns the flattened, descending-sorted buyer valuation curve
// captured at period start.
func (env *Environment) Demand() []decimal.Decimal { return env.demand }

// Supply returns the flattened, ascending-sorted seller cost curve captured
// at period start.
func (env *Environment) Supply() []decimal.Decimal { return env.supply }

// Equilibrium is the competitive-equilibrium summary computed by walking
// the demand and supply curves pairwise.
type Equilibrium struct {
	Units       int
	PriceLow    decimal.Decimal
	PriceHigh   decimal.Decimal
	MaxSurplus  decimal.Decimal
}

// CalcEquilibrium walks demand[i] against supply[i] while demand[i] >=
// supply[i], accumulating max surplus and tracking the last accepted and
// first rejected pair to bracket the equilibrium price range. Per spec.md
// §9's resolved open question, eq_units >= 1 (not > 1) is sufficient to
// report a non-zero price range; only eq_units == 0 leaves it zeroed.
func (env *Environment) CalcEquilibrium() Equilibrium {
	var eq Equilibrium
	n := len(env.demand)
	if len(env.supply) < n {
		n = len(env.supply)
	}

	var lastValue, lastCost decimal.Decimal
	var firstRejectedValue, firstRejectedCost decimal.Decimal
	haveRejected := false

	for i := 0; i < n; i++ {
		value := env.demand[i]
		cost := env.supply[i]
		if value.LessThan(cost) {
			firstRejectedValue, firstRejectedCost = value, cost
			haveRejected = true
			break
		}
		eq.Units++
		eq.MaxSurplus = eq.MaxSurplus.Add(value.Sub(cost))
		lastValue, lastCost = value, cost
	}

	if eq.Units >= 1 {
		// The equilibrium price band is bracketed by the last accepted pair
		// and the first rejected pair: the high end is the lesser of the
		// last accepted value and the first rejected cost, the low end is
		// the greater of the last accepted cost and the first rejected
		// value.
		eq.PriceHigh = lastValue
		eq.PriceLow = lastCost
		if haveRejected {
			if firstRejectedCost.LessThan(eq.PriceHigh) {
				eq.PriceHigh = firstRejectedCost
			}
			if firstRejectedValue.GreaterThan(eq.PriceLow) {
				eq.PriceLow = firstRejectedValue
			}
		}
	}
	return eq
}
