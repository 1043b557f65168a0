package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandFromName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "known brand", in: "Britannia 100% Whole Wheat Bread", want: "Britannia"},
		{name: "known brand anywhere", in: "Soft Harvest Gold White Bread", want: "Harvest Gold"},
		{name: "case insensitive", in: "english oven sandwich bread", want: "English Oven"},
		{name: "capitalized first word", in: "Elite Milk Bread", want: "Elite"},
		{name: "short first word", in: "Go Bread", want: "Unknown"},
		{name: "lowercase first word", in: "local pav", want: "Unknown"},
		{name: "empty", in: "  ", want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BrandFromName(tt.in))
		})
	}
}

func TestRemoveBrand(t *testing.T) {
	assert.Equal(t, "100% Whole Wheat Bread", RemoveBrand("Britannia 100% Whole Wheat Bread", "Britannia"))
	assert.Equal(t, "Soft White Bread", RemoveBrand("Soft Harvest Gold White Bread", "Harvest Gold"))
	assert.Equal(t, "english oven bread", RemoveBrand("english oven bread", "English Oven"))
	assert.Equal(t, "Bread", RemoveBrand(" Bread ", "Unknown"))
}

func TestIsBread(t *testing.T) {
	for _, name := range []string{"White Bread", "Multigrain LOAF", "Burger Buns", "Ladi Pav", "Sliced Brown"} {
		assert.True(t, IsBread(name), name)
	}
	for _, name := range []string{"Amul Butter", "Eggs 6 pcs", ""} {
		assert.False(t, IsBread(name), name)
	}
}

func TestWeightFromName(t *testing.T) {
	assert.Equal(t, "400 g", WeightFromName("Milk Bread 400 g"))
	assert.Equal(t, "2 x 200g", WeightFromName("Pav 2 x 200g pack"))
	assert.Equal(t, "1 kg", WeightFromName("Family Loaf 1 kg"))
	assert.Equal(t, "", WeightFromName("White Bread"))
}
