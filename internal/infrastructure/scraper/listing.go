package scraper

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/breadlens/backend/internal/domain"
)

// commonBrands are searched for in product names when a platform does not
// expose the brand separately. Order matters: the first hit wins.
var commonBrands = []string{
	"Britannia", "Modern", "Harvest Gold", "English Oven",
	"The Health Factory", "Brittania", "Wibs", "Perfect Bread",
	"Bonn", "Fresh", "Daily", "Premium", "Baker's",
}

// breadKeywords keep non-bread listings out of a search result page
var breadKeywords = []string{"bread", "loaf", "bun", "pav", "slice"}

// Matches pack sizes embedded in names like "Milk Bread 400 g" or "2 x 200g"
var sizePattern = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*[x×]\s*\d+(?:\.\d+)?\s*(?:kg|g|gm|grams?)\b|\b\d+(?:\.\d+)?\s*(?:kg|g|gm|grams?|ml)\b`)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// BrandFromName guesses the brand of a listing from its name: a known brand
// contained in the name, else a capitalized first word longer than two
// letters, else "Unknown"
func BrandFromName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.UnknownBrand
	}

	lower := strings.ToLower(name)
	for _, brand := range commonBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}

	first := strings.Fields(name)[0]
	runes := []rune(first)
	if len(runes) > 2 && unicode.IsUpper(runes[0]) {
		return first
	}

	return domain.UnknownBrand
}

// RemoveBrand strips the brand from the name when the name contains it verbatim
func RemoveBrand(name, brand string) string {
	if brand == "" || brand == domain.UnknownBrand {
		return strings.TrimSpace(name)
	}
	name = strings.ReplaceAll(name, brand, "")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))
}

// IsBread reports whether the name looks like a bread product
func IsBread(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range breadKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// WeightFromName returns the pack size mentioned in a name, or ""
func WeightFromName(name string) string {
	return strings.TrimSpace(sizePattern.FindString(name))
}

// cleanText collapses whitespace in scraped node text
func cleanText(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}
