package resultsapi

import "cda-sim/internal/tournament"

// RunSummary is the JSON shape served at /api/snapshot: the most recently
// completed tournament's aggregate statistics plus which market it ran.
type RunSummary struct {
	MarketName           string             `json:"market_name"`
	Replications          int                `json:"replications"`
	Failed                int                `json:"failed"`
	MedianSurplus         float64            `json:"median_surplus"`
	MeanSurplus           float64            `json:"mean_surplus"`
	MedianEfficiency      float64            `json:"median_efficiency"`
	MeanEfficiency        float64            `json:"mean_efficiency"`
	PerTraderMeanSurplus  map[string]float64 `json:"per_trader_mean_surplus"`
	SurplusHistogram      []int              `json:"surplus_histogram"`
	EfficiencyHistogram   []int              `json:"efficiency_histogram"`
}

// NewRunSummary converts a tournament.Summary into the API's DTO.
func NewRunSummary(marketName string, s tournament.Summary) RunSummary {
	return RunSummary{
		MarketName:           marketName,
		Replications:         s.Replications,
		Failed:               s.Failed,
		MedianSurplus:        s.MedianSurplus,
		MeanSurplus:          s.MeanSurplus,
		MedianEfficiency:     s.MedianEfficiency,
		MeanEfficiency:       s.MeanEfficiency,
		PerTraderMeanSurplus: s.PerTraderMeanSurplus,
		SurplusHistogram:     s.SurplusHistogram,
		EfficiencyHistogram:  s.EfficiencyHistogram,
	}
}
