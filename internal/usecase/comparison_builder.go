package usecase

import (
	"github.com/breadlens/backend/internal/domain"
)

// BuildComparisonTable pivots every product group into one row with a price
// slot per platform. Comparability is derived from the group itself, so groups
// excluded from the deals table still get a row with their prices filled in.
func BuildComparisonTable(
	groups []domain.ProductGroup,
	deals []domain.DealRecord,
	platforms []domain.Platform,
) []domain.ComparisonRow {
	spread := make(map[int]float64)
	for _, d := range deals {
		spread[d.GroupID] = max(spread[d.GroupID], d.PriceDifferencePercent)
	}

	rows := make([]domain.ComparisonRow, 0, len(groups))
	for _, group := range groups {
		names := make([]string, len(group.Members))
		brands := make([]string, len(group.Members))
		for i, m := range group.Members {
			names[i] = m.Name
			brands[i] = m.BrandStandardized
		}

		available := len(group.Platforms())
		comparable := available >= 2

		row := domain.ComparisonRow{
			GroupID:            group.ID,
			ProductName:        mode(names),
			Brand:              mode(brands),
			IsComparable:       comparable,
			PlatformsAvailable: available,
			PriceSpreadPercent: spread[group.ID],
			Slots:              make(map[domain.Platform]domain.PlatformSlot, len(platforms)),
		}

		cheapest := cheapestPerPlatform(group.Members)
		groupMin := 0.0
		first := true
		for _, m := range cheapest {
			if first || m.PricePer100g < groupMin {
				groupMin = m.PricePer100g
				first = false
			}
		}

		for _, p := range platforms {
			slot := domain.PlatformSlot{}
			if m, ok := cheapest[p]; ok {
				price, perUnit := m.Price, m.PricePer100g
				slot.Price = &price
				slot.PricePer100g = &perUnit
				slot.IsBest = comparable && perUnit == groupMin
			}
			row.Slots[p] = slot
		}

		rows = append(rows, row)
	}

	return rows
}

// cheapestPerPlatform keeps each platform's lowest price-per-100g listing
func cheapestPerPlatform(members []domain.NormalizedRecord) map[domain.Platform]domain.NormalizedRecord {
	cheapest := make(map[domain.Platform]domain.NormalizedRecord)
	for _, m := range members {
		if cur, ok := cheapest[m.Platform]; !ok || m.PricePer100g < cur.PricePer100g {
			cheapest[m.Platform] = m
		}
	}
	return cheapest
}

// mode returns the most frequent value, ties going to the first seen
func mode(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
