// Package tournament runs N independent replications of a period and
// aggregates their results into summary statistics. Adapted from the
// teacher's risk.Manager, repurposed from live risk monitoring into batch
// statistical aggregation over a fixed number of replications: each
// replication writes its result into a mutex-guarded slice, and the summary
// is computed once all of them have finished. No channel is used.
package tournament

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"

	"cda-sim/internal/environment"
	"cda-sim/internal/metrics"
	"cda-sim/internal/simulator"
	"cda-sim/pkg/types"
)

// ReplicationResult is one replication's outcome, stored at its index in
// the tournament's results slice.
type ReplicationResult struct {
	Index         int
	Err           error
	ActualSurplus float64
	Efficiency    float64
	TraderSurplus map[string]float64
}

// Summary is the tournament's aggregate statistics over every successful
// replication.
type Summary struct {
	Replications       int
	Failed             int
	MedianSurplus      float64
	MeanSurplus        float64
	MedianEfficiency   float64
	MeanEfficiency     float64
	PerTraderMeanSurplus map[string]float64
	SurplusHistogram     []int
	EfficiencyHistogram  []int
}

// Tournament runs a MarketConfig through N independent replications of a
// fixed period length, each seeded from a distinct, deterministic
// sub-stream of the root seed.
type Tournament struct {
	cfg    types.MarketConfig
	reps   int
	period int
	seed   int64
	logger *slog.Logger
}

// New builds a tournament driver for cfg.
func New(tcfg types.TournamentConfig, logger *slog.Logger) *Tournament {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tournament{
		cfg:    tcfg.Market,
		reps:   tcfg.Replications,
		period: tcfg.SimPeriod,
		seed:   tcfg.RootSeed,
		logger: logger.With("component", "tournament"),
	}
}

// subSeed derives replication i's RNG seed from the root seed via
// Keccak-256, so each replication's draws are independent of how many
// other replications ran (spec.md §5's distinct-sub-stream requirement).
func subSeed(root int64, i int) int64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(root))
	binary.BigEndian.PutUint64(buf[8:16], uint64(i))
	h := crypto.Keccak256(buf[:])
	return int64(binary.BigEndian.Uint64(h[:8]))
}

// Run executes every replication concurrently and returns the aggregate
// Summary. Replications are independent per spec.md §5: a construction
// error in one (ErrInvalidEndowment, ErrUnknownStrategy) must not cancel
// its siblings, so the errgroup here simply collects per-index errors
// rather than using its default cancel-on-first-error behavior.
func (tr *Tournament) Run(ctx context.Context) (Summary, error) {
	results := make([]ReplicationResult, tr.reps)

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)

	for i := 0; i < tr.reps; i++ {
		i := i
		g.Go(func() error {
			res := tr.runReplication(i)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary := summarize(results)
	metrics.SetTournamentEfficiency(summary.MeanEfficiency)
	return summary, nil
}

func (tr *Tournament) runReplication(i int) ReplicationResult {
	seed := subSeed(tr.seed, i)
	rng := rand.New(rand.NewSource(seed))

	env, err := environment.New(tr.cfg, rng)
	if err != nil {
		tr.logger.Warn("replication failed to construct", "index", i, "error", err)
		return ReplicationResult{Index: i, Err: err}
	}

	sim := simulator.New(tr.cfg.MarketName, env, rng, tr.logger)
	period := sim.Run(tr.period)
	metrics.IncReplication()

	traderSurplus := make(map[string]float64, len(sim.Traders()))
	for _, t := range sim.Traders() {
		f, _ := t.Ledger().Surplus().Float64()
		traderSurplus[t.ID()] = f
	}

	return ReplicationResult{
		Index:         i,
		ActualSurplus: period.ActualSurplus,
		Efficiency:    period.Efficiency,
		TraderSurplus: traderSurplus,
	}
}

// summarize computes medians, means, per-trader mean surplus, and two
// histograms (surplus, efficiency) over every replication that completed
// without a construction error.
func summarize(results []ReplicationResult) Summary {
	var surpluses, efficiencies []float64
	traderTotals := make(map[string]float64)
	traderCounts := make(map[string]int)
	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		surpluses = append(surpluses, r.ActualSurplus)
		efficiencies = append(efficiencies, r.Efficiency)
		for id, s := range r.TraderSurplus {
			traderTotals[id] += s
			traderCounts[id]++
		}
	}

	perTraderMean := make(map[string]float64, len(traderTotals))
	for id, total := range traderTotals {
		perTraderMean[id] = total / float64(traderCounts[id])
	}

	return Summary{
		Replications:         len(results),
		Failed:               failed,
		MedianSurplus:        median(surpluses),
		MeanSurplus:          mean(surpluses),
		MedianEfficiency:     median(efficiencies),
		MeanEfficiency:       mean(efficiencies),
		PerTraderMeanSurplus: perTraderMean,
		SurplusHistogram:     histogram(surpluses, 10),
		EfficiencyHistogram:  histogram(efficiencies, 10),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// histogram buckets xs into n equal-width bins spanning [min(xs), max(xs)].
func histogram(xs []float64, n int) []int {
	buckets := make([]int, n)
	if len(xs) == 0 {
		return buckets
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	width := hi - lo
	if width == 0 {
		buckets[0] = len(xs)
		return buckets
	}
	for _, x := range xs {
		idx := int((x - lo) / width * float64(n))
		if idx >= n {
			idx = n - 1
		}
		buckets[idx]++
	}
	return buckets
}
