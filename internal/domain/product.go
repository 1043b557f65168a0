package domain

// Platform identifies a grocery-delivery platform, e.g. "blinkit".
type Platform string

// Default platforms, in the order their comparison columns are rendered
const (
	PlatformBlinkit Platform = "blinkit"
	PlatformZepto   Platform = "zepto"
	PlatformBBNow   Platform = "bbnow"
)

// DefaultPlatforms lists the platforms scraped when none are configured
var DefaultPlatforms = []Platform{PlatformBlinkit, PlatformZepto, PlatformBBNow}

// UnknownBrand is the sentinel brand for listings without a recognizable brand
const UnknownBrand = "Unknown"

// RawRecord is a single product listing as extracted from a platform page.
// Weight and Price are the free-form strings shown on the page.
type RawRecord struct {
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	Weight   string   `json:"weight"`
	Price    string   `json:"price"`
	Platform Platform `json:"platform"`
}

// NormalizedRecord is a RawRecord cleaned into comparable numeric fields
type NormalizedRecord struct {
	Name              string   `json:"name"`
	Brand             string   `json:"brand,omitempty"`
	BrandStandardized string   `json:"brandStandardized"`
	WeightText        string   `json:"weightText"`
	PriceText         string   `json:"priceText"`
	Platform          Platform `json:"platform"`
	WeightGrams       float64  `json:"weightGrams"`
	Price             float64  `json:"price"`
	PricePer100g      float64  `json:"pricePer100g"`
	ProductKey        string   `json:"productKey"`
}

// ProductGroup is a cluster of listings believed to be the same product
type ProductGroup struct {
	ID      int                `json:"id"`
	Key     string             `json:"key"` // lexicographically smallest key of the defining match-set
	Members []NormalizedRecord `json:"members"`
}

// Platforms returns the distinct platforms of the group in first-seen order
func (g ProductGroup) Platforms() []Platform {
	seen := make(map[Platform]bool)
	var platforms []Platform
	for _, m := range g.Members {
		if !seen[m.Platform] {
			seen[m.Platform] = true
			platforms = append(platforms, m.Platform)
		}
	}
	return platforms
}

// GroupedRecord is a NormalizedRecord annotated with its group
type GroupedRecord struct {
	NormalizedRecord
	GroupID int `json:"groupId"`
}

// DealRecord is a listing from a comparable group with group-relative metrics
type DealRecord struct {
	GroupID                int      `json:"groupId"`
	Name                   string   `json:"name"`
	Brand                  string   `json:"brand"`
	WeightGrams            float64  `json:"weightGrams"`
	Price                  float64  `json:"price"`
	PricePer100g           float64  `json:"pricePer100g"`
	Platform               Platform `json:"platform"`
	IsBestDeal             bool     `json:"isBestDeal"`
	PriceDifference        float64  `json:"priceDifference"`
	PriceDifferencePercent float64  `json:"priceDifferencePercent"`
	SavingsOpportunity     float64  `json:"savingsOpportunity"`
}

// PlatformSlot holds one platform's cheapest listing in a comparison row.
// Nil pointers mean the platform does not carry the product.
type PlatformSlot struct {
	Price        *float64 `json:"price"`
	PricePer100g *float64 `json:"pricePer100g"`
	IsBest       bool     `json:"isBest"`
}

// ComparisonRow is one product group pivoted into per-platform columns
type ComparisonRow struct {
	GroupID            int                       `json:"groupId"`
	ProductName        string                    `json:"productName"`
	Brand              string                    `json:"brand"`
	IsComparable       bool                      `json:"isComparable"`
	PlatformsAvailable int                       `json:"platformsAvailable"`
	PriceSpreadPercent float64                   `json:"priceSpreadPercent"`
	Slots              map[Platform]PlatformSlot `json:"slots"`
}
