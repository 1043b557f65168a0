package domain

import "time"

// PlatformStats summarizes how a platform performed across comparable groups
type PlatformStats struct {
	BestDealWins              int     `json:"bestDealWins"`
	AvgPricePer100g           float64 `json:"avgPricePer100g"`
	AvgPriceDifferencePercent float64 `json:"avgPriceDifferencePercent"`
}

// Insights are platform-level aggregates over the deals table
type Insights struct {
	PlatformPerformance       map[Platform]PlatformStats `json:"platformPerformance"`
	BestDealsCount            map[Platform]int           `json:"bestDealsCount"`
	AvgPriceDifferencePercent float64                    `json:"avgPriceDifferencePercent"`
	MaxSavingsOpportunity     float64                    `json:"maxSavingsOpportunity"`
	WorstDeals                []DealRecord               `json:"worstDeals"`
}

// AnalysisResult is everything one pipeline run produces
type AnalysisResult struct {
	RunID       string             `json:"runId"`
	CreatedAt   time.Time          `json:"createdAt"`
	InputCount  int                `json:"inputCount"`
	Platforms   []Platform         `json:"platforms"`
	Normalized  []NormalizedRecord `json:"normalized"`
	Groups      []ProductGroup     `json:"groups"`
	Deals       []DealRecord       `json:"deals"`
	Comparison  []ComparisonRow    `json:"comparison"`
	Insights    Insights           `json:"insights"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`
}

// AnalysisSummary is the lightweight listing form of a persisted run
type AnalysisSummary struct {
	RunID      string    `json:"runId"`
	CreatedAt  time.Time `json:"createdAt"`
	InputCount int       `json:"inputCount"`
	GroupCount int       `json:"groupCount"`
	DealCount  int       `json:"dealCount"`
}
