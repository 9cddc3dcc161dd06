// Package simulator drives a single period: traders are activated one at a
// time in random order, their offers submitted to the institution, and
// realized surplus tallied against the period's competitive equilibrium.
package simulator

import (
	"log/slog"
	"math/rand"

	"cda-sim/internal/auction"
	"cda-sim/internal/environment"
	"cda-sim/internal/trader"
	"cda-sim/pkg/types"
)

// RoundResult is one round's outcome, mostly useful for debugging.
type RoundResult struct {
	TraderID string
	Outcome  auction.OrderResult
}

// PeriodResult summarizes a completed period.
type PeriodResult struct {
	Contracts     []types.Contract
	Rounds        []RoundResult
	ActualSurplus float64
	MaxSurplus    float64
	Efficiency    float64
	Equilibrium   environment.Equilibrium
}

// Simulator runs a single period over a fixed set of traders. Adapted from
// the teacher's engine.Engine lifecycle (New -> Run -> result) but drops
// its goroutine-per-market concurrency: trader activation within a period
// is strictly serial, with no suspension points, per spec.md §5.
type Simulator struct {
	env    *environment.Environment
	inst   *auction.Institution
	rng    *rand.Rand
	logger *slog.Logger
}

// New wires an environment's traders into a fresh institution and returns a
// simulator ready to run one period.
func New(marketID string, env *environment.Environment, rng *rand.Rand, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	inst := auction.New(marketID, logger)
	for _, tr := range env.Traders() {
		inst.Register(tr)
	}
	return &Simulator{env: env, inst: inst, rng: rng, logger: logger.With("component", "simulator")}
}

// Institution exposes the underlying auction, e.g. for String()/debug
// output after a run.
func (s *Simulator) Institution() *auction.Institution { return s.inst }

// Run executes numRounds rounds: each round draws a trader uniformly at
// random, snapshots the standing bid/ask before the trader acts (so the
// trader never sees its own pending offer), asks the trader's strategy for
// a quote, and submits it if the trader chose to act.
func (s *Simulator) Run(numRounds int) PeriodResult {
	traders := s.env.Traders()
	rounds := make([]RoundResult, 0, numRounds)

	for r := 0; r < numRounds; r++ {
		if len(traders) == 0 {
			break
		}
		tr := traders[s.rng.Intn(len(traders))]
		if tr.Done() {
			continue
		}

		standing := s.inst.Standing()
		amount, ok := tr.Quote(standing.Bid, standing.Ask, r, numRounds)
		if !ok {
			continue
		}

		kind := types.KindBid
		if tr.Side() == types.Seller {
			kind = types.KindAsk
		}
		result, err := s.inst.Order(tr.ID(), kind, amount)
		if err != nil {
			s.logger.Warn("order rejected before reaching the book", "trader", tr.ID(), "error", err)
			continue
		}
		rounds = append(rounds, RoundResult{TraderID: tr.ID(), Outcome: result})
	}

	eq := s.env.CalcEquilibrium()
	actualSurplus := 0.0
	for _, tr := range traders {
		f, _ := tr.Ledger().Surplus().Float64()
		actualSurplus += f
	}
	maxSurplus, _ := eq.MaxSurplus.Float64()

	efficiency := 0.0
	if maxSurplus > 0 {
		efficiency = 100 * actualSurplus / maxSurplus
	}

	return PeriodResult{
		Contracts:     s.inst.Contracts(),
		Rounds:        rounds,
		ActualSurplus: actualSurplus,
		MaxSurplus:    maxSurplus,
		Efficiency:    efficiency,
		Equilibrium:   eq,
	}
}

// Traders exposes the simulator's population, e.g. for per-trader surplus
// reporting after a run.
func (s *Simulator) Traders() []*trader.Trader { return s.env.Traders() }
