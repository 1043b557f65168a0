package usecase

import (
	"sort"

	"github.com/breadlens/backend/internal/domain"
)

const worstDealsLimit = 5

// GenerateInsights rolls the deals table up into platform-level statistics
func GenerateInsights(deals []domain.DealRecord) domain.Insights {
	insights := domain.Insights{
		PlatformPerformance: make(map[domain.Platform]domain.PlatformStats),
		BestDealsCount:      make(map[domain.Platform]int),
	}
	if len(deals) == 0 {
		return insights
	}

	type accumulator struct {
		wins            int
		count           int
		sumPerUnit      float64
		sumDiffPercents float64
	}
	acc := make(map[domain.Platform]*accumulator)

	var sumDiffPercent float64
	for _, d := range deals {
		a, ok := acc[d.Platform]
		if !ok {
			a = &accumulator{}
			acc[d.Platform] = a
		}
		a.count++
		a.sumPerUnit += d.PricePer100g
		a.sumDiffPercents += d.PriceDifferencePercent
		if d.IsBestDeal {
			a.wins++
			insights.BestDealsCount[d.Platform]++
		}

		sumDiffPercent += d.PriceDifferencePercent
		insights.MaxSavingsOpportunity = max(insights.MaxSavingsOpportunity, d.SavingsOpportunity)
	}

	for platform, a := range acc {
		insights.PlatformPerformance[platform] = domain.PlatformStats{
			BestDealWins:              a.wins,
			AvgPricePer100g:           round2(a.sumPerUnit / float64(a.count)),
			AvgPriceDifferencePercent: round2(a.sumDiffPercents / float64(a.count)),
		}
	}
	insights.AvgPriceDifferencePercent = sumDiffPercent / float64(len(deals))

	worst := make([]domain.DealRecord, len(deals))
	copy(worst, deals)
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].PriceDifferencePercent > worst[j].PriceDifferencePercent
	})
	if len(worst) > worstDealsLimit {
		worst = worst[:worstDealsLimit]
	}
	insights.WorstDeals = worst

	return insights
}
