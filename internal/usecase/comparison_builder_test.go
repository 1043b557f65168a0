package usecase

import (
	"testing"

	"github.com/breadlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPlatforms = []domain.Platform{"blinkit", "zepto", "bbnow"}

func TestBuildComparisonTable(t *testing.T) {
	groups := []domain.ProductGroup{
		{ID: 0, Members: []domain.NormalizedRecord{
			member("blinkit", "Britannia Bread 400g", 55, 400),
			member("zepto", "Britannia White Bread", 50, 400),
		}},
		{ID: 1, Members: []domain.NormalizedRecord{
			member("bbnow", "Local Loaf", 40, 300),
		}},
	}
	deals, _ := IdentifyDeals(groups)

	rows := BuildComparisonTable(groups, deals, testPlatforms)

	require.Len(t, rows, len(groups))

	first := rows[0]
	assert.True(t, first.IsComparable)
	assert.Equal(t, 2, first.PlatformsAvailable)
	assert.InDelta(t, 10, first.PriceSpreadPercent, 1e-9)
	require.NotNil(t, first.Slots["blinkit"].Price)
	assert.Equal(t, 55.0, *first.Slots["blinkit"].Price)
	assert.False(t, first.Slots["blinkit"].IsBest)
	assert.True(t, first.Slots["zepto"].IsBest)
	assert.Nil(t, first.Slots["bbnow"].Price)
	assert.Nil(t, first.Slots["bbnow"].PricePer100g)

	second := rows[1]
	assert.False(t, second.IsComparable)
	assert.Equal(t, 1, second.PlatformsAvailable)
	assert.Zero(t, second.PriceSpreadPercent)
	require.NotNil(t, second.Slots["bbnow"].PricePer100g)
	assert.Equal(t, 13.33, *second.Slots["bbnow"].PricePer100g)
	for _, slot := range second.Slots {
		assert.False(t, slot.IsBest)
	}
}

func TestBuildComparisonTable_CheapestListingPerPlatform(t *testing.T) {
	groups := []domain.ProductGroup{{ID: 0, Members: []domain.NormalizedRecord{
		member("zepto", "Bread", 60, 400),
		member("zepto", "Bread", 44, 400),
		member("blinkit", "Bread", 44, 400),
	}}}
	deals, _ := IdentifyDeals(groups)

	rows := BuildComparisonTable(groups, deals, testPlatforms)

	require.Len(t, rows, 1)
	assert.Equal(t, 44.0, *rows[0].Slots["zepto"].Price)
	assert.True(t, rows[0].Slots["zepto"].IsBest)
	assert.True(t, rows[0].Slots["blinkit"].IsBest)
	assert.InDelta(t, 36.36, rows[0].PriceSpreadPercent, 0.01)
}

func TestBuildComparisonTable_NameAndBrandByMajority(t *testing.T) {
	a := member("zepto", "White Bread", 40, 400)
	b := member("blinkit", "Bread White", 42, 400)
	c := member("bbnow", "Bread White", 41, 400)
	c.BrandStandardized = "Brittania"
	groups := []domain.ProductGroup{{ID: 0, Members: []domain.NormalizedRecord{a, b, c}}}

	rows := BuildComparisonTable(groups, nil, testPlatforms)

	require.Len(t, rows, 1)
	assert.Equal(t, "Bread White", rows[0].ProductName)
	assert.Equal(t, "Britannia", rows[0].Brand)
}

func TestMode(t *testing.T) {
	assert.Equal(t, "", mode(nil))
	assert.Equal(t, "a", mode([]string{"a", "b"}))
	assert.Equal(t, "b", mode([]string{"a", "b", "b"}))
}
