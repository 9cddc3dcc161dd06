// Package metrics registers the Prometheus counters and gauges the
// simulator exposes at /metrics, adapted in style from chidi150c-coinbase's
// metrics.go (the teacher carries no metrics package itself).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	offersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_offers_total",
		Help: "Total offers submitted to the auction, by resolution action.",
	}, []string{"action"})

	contractsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_contracts_total",
		Help: "Total contracts settled across all periods.",
	})

	replicationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tournament_replications_total",
		Help: "Total tournament replications completed.",
	})

	tournamentEfficiency = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tournament_efficiency",
		Help: "Mean allocative efficiency of the most recently completed tournament.",
	})
)

func init() {
	prometheus.MustRegister(offersTotal)
	prometheus.MustRegister(contractsTotal)
	prometheus.MustRegister(replicationsTotal)
	prometheus.MustRegister(tournamentEfficiency)
}

// IncOffer records one offer resolved with the given action
// ("standing", "contract", or "rejected").
func IncOffer(action string) {
	offersTotal.WithLabelValues(action).Inc()
}

// IncContract records one settled contract.
func IncContract() {
	contractsTotal.Inc()
}

// IncReplication records one completed tournament replication.
func IncReplication() {
	replicationsTotal.Inc()
}

// SetTournamentEfficiency records the most recently completed tournament's
// mean efficiency.
func SetTournamentEfficiency(v float64) {
	tournamentEfficiency.Set(v)
}
