package usecase

import (
	"fmt"

	"github.com/breadlens/backend/internal/domain"
)

// IdentifyDeals compares every group carried by at least two platforms and
// annotates each listing with its gap to the group's cheapest price per 100g.
// Groups that cannot be compared are left out and reported as diagnostics.
func IdentifyDeals(groups []domain.ProductGroup) ([]domain.DealRecord, []domain.Diagnostic) {
	var deals []domain.DealRecord
	var diags []domain.Diagnostic

	for _, group := range groups {
		platforms := group.Platforms()
		if len(platforms) < 2 {
			diags = append(diags, groupDiagnostic(group, domain.CodeGroupNotComparable,
				fmt.Sprintf("group %d is carried by %d platform(s)", group.ID, len(platforms))))
			continue
		}

		var priced []domain.NormalizedRecord
		for _, m := range group.Members {
			if m.PricePer100g > 0 {
				priced = append(priced, m)
			}
		}
		if len(priced) < 2 {
			diags = append(diags, groupDiagnostic(group, domain.CodeGroupUnpriced,
				fmt.Sprintf("group %d has %d priced listing(s)", group.ID, len(priced))))
			continue
		}

		minPrice := priced[0].PricePer100g
		for _, m := range priced[1:] {
			minPrice = min(minPrice, m.PricePer100g)
		}

		for _, m := range priced {
			diff := m.PricePer100g - minPrice
			diffPercent := 0.0
			if minPrice > 0 {
				diffPercent = diff / minPrice * 100
			}

			isBest := m.PricePer100g == minPrice
			savings := diff
			if isBest {
				savings = 0
			}

			deals = append(deals, domain.DealRecord{
				GroupID:                group.ID,
				Name:                   m.Name,
				Brand:                  m.BrandStandardized,
				WeightGrams:            m.WeightGrams,
				Price:                  m.Price,
				PricePer100g:           m.PricePer100g,
				Platform:               m.Platform,
				IsBestDeal:             isBest,
				PriceDifference:        diff,
				PriceDifferencePercent: diffPercent,
				SavingsOpportunity:     savings,
			})
		}
	}

	return deals, diags
}

func groupDiagnostic(group domain.ProductGroup, code, message string) domain.Diagnostic {
	return domain.Diagnostic{
		Stage:   domain.StageDeals,
		Level:   domain.LevelInfo,
		Code:    code,
		Message: message,
		Subject: group.Key,
	}
}
