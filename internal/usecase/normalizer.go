package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/breadlens/backend/internal/domain"
)

// Default minimum pack weight; lighter listings are single buns or samples
const defaultMinWeightGrams = 100.0

// Compiled patterns for weight and price parsing
var (
	numberPattern         = regexp.MustCompile(`\d+(?:\.\d+)?`)
	multiplicativePattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*[x×]\s*\d+(?:\.\d+)?`)
	pricePattern          = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*(\d[\d,]*(?:\.\d+)?)`)
	keyPunctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// marketingSuffixes are trailing qualifiers platforms append to product names
var marketingSuffixes = []string{
	" | Clean Label - Not Brown",
	" | Clean Label",
	" - Not Brown",
}

// brandAliases maps an uppercased raw brand to its canonical spelling.
// Includes common misspellings seen on the platforms.
var brandAliases = map[string]string{
	"BRITANNIA":          "Britannia",
	"BRITTANIA":          "Britannia",
	"BRITANIA":           "Britannia",
	"MODERN":             "Modern",
	"HARVEST GOLD":       "Harvest Gold",
	"ENGLISH OVEN":       "English Oven",
	"THE HEALTH FACTORY": "The Health Factory",
	"HEALTH FACTORY":     "The Health Factory",
	"WIBS":               "Wibs",
	"BONN":               "Bonn",
	"FRESH":              "Fresh",
	"DAILY":              "Daily",
	"PERFECT BREAD":      "Perfect Bread",
	"BAKER'S":            "Baker's",
}

// keyStopWords are descriptive words dropped from names before matching
var keyStopWords = []string{"whole wheat", "atta", "sliced", "fresh", "premium"}

var keyStopWordPattern = buildStopWordPattern(keyStopWords)

func buildStopWordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// NormalizerConfig holds configuration for the normalizer
type NormalizerConfig struct {
	MinWeightGrams float64
}

// Normalizer turns raw listings into structured, comparable records
type Normalizer struct {
	minWeightGrams float64
}

// NewNormalizer creates a normalizer with the given configuration
func NewNormalizer(config NormalizerConfig) *Normalizer {
	minWeight := config.MinWeightGrams
	if minWeight <= 0 {
		minWeight = defaultMinWeightGrams
	}
	return &Normalizer{minWeightGrams: minWeight}
}

// Normalize cleans every record and silently drops the ones that cannot be
// compared (no name, no price, too light). Each drop is reported as a diagnostic.
func (n *Normalizer) Normalize(records []domain.RawRecord) ([]domain.NormalizedRecord, []domain.Diagnostic) {
	normalized := make([]domain.NormalizedRecord, 0, len(records))
	var diags []domain.Diagnostic

	for _, raw := range records {
		rec, diag, ok := n.NormalizeRecord(raw)
		if !ok {
			diags = append(diags, diag)
			continue
		}
		normalized = append(normalized, rec)
	}

	return normalized, diags
}

// NormalizeRecord normalizes a single record. When the record is rejected
// ok is false and the returned diagnostic explains why.
func (n *Normalizer) NormalizeRecord(raw domain.RawRecord) (domain.NormalizedRecord, domain.Diagnostic, bool) {
	name := StripMarketingSuffixes(raw.Name)
	if name == "" {
		return domain.NormalizedRecord{}, dropDiagnostic(raw, domain.CodeMissingName, "record has no name"), false
	}

	price := ParsePrice(raw.Price)
	if price <= 0 {
		return domain.NormalizedRecord{}, dropDiagnostic(raw, domain.CodeInvalidPrice,
			fmt.Sprintf("unparseable or non-positive price %q", raw.Price)), false
	}

	weight := ParseWeight(raw.Weight)
	if weight < n.minWeightGrams {
		return domain.NormalizedRecord{}, dropDiagnostic(raw, domain.CodeUnderweight,
			fmt.Sprintf("weight %q parsed to %.2fg, below %.0fg", raw.Weight, weight, n.minWeightGrams)), false
	}

	brand := StandardizeBrand(raw.Brand)

	return domain.NormalizedRecord{
		Name:              name,
		Brand:             raw.Brand,
		BrandStandardized: brand,
		WeightText:        raw.Weight,
		PriceText:         raw.Price,
		Platform:          raw.Platform,
		WeightGrams:       weight,
		Price:             price,
		PricePer100g:      PricePer100g(price, weight),
		ProductKey:        ProductKey(brand, name),
	}, domain.Diagnostic{}, true
}

func dropDiagnostic(raw domain.RawRecord, code, message string) domain.Diagnostic {
	return domain.Diagnostic{
		Stage:    domain.StageNormalize,
		Level:    domain.LevelInfo,
		Code:     code,
		Message:  message,
		Platform: raw.Platform,
		Subject:  raw.Name,
	}
}

// StripMarketingSuffixes removes known trailing qualifiers and trims whitespace
func StripMarketingSuffixes(name string) string {
	name = strings.TrimSpace(name)
	for stripped := true; stripped; {
		stripped = false
		for _, suffix := range marketingSuffixes {
			if len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
				name = strings.TrimSpace(name[:len(name)-len(suffix)])
				stripped = true
			}
		}
	}
	return name
}

// StandardizeBrand maps a raw brand onto its canonical form.
// Empty and "Unknown" brands stay "Unknown"; unmapped brands are title-cased.
func StandardizeBrand(brand string) string {
	upper := strings.ToUpper(strings.TrimSpace(brand))
	if upper == "" || upper == strings.ToUpper(domain.UnknownBrand) {
		return domain.UnknownBrand
	}
	if canonical, ok := brandAliases[upper]; ok {
		return canonical
	}
	return titleCase(upper)
}

// titleCase upper-cases the first letter of each space or hyphen separated word
func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	startOfWord := true
	for i, r := range runes {
		if startOfWord && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
		}
		startOfWord = unicode.IsSpace(r) || r == '-'
	}
	return string(runes)
}

// ParseWeight converts free-form weight text into grams.
//
//	"2 x 200 g"      -> 400
//	"1 kg"           -> 1000
//	"1 pack (350 g)" -> 350
//
// Millilitres are passed through unconverted. Unparseable text yields 0.
func ParseWeight(text string) float64 {
	text = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(text), ",", ""))

	tokens := numberPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return 0
	}
	nums := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0
		}
		nums = append(nums, v)
	}

	var total float64
	if multiplicativePattern.MatchString(text) && len(nums) >= 2 {
		total = nums[0] * nums[1]
	} else {
		total = nums[len(nums)-1]
	}

	if weightUnit(text) == "kg" {
		total *= 1000
	}

	return round2(total)
}

// weightUnit detects the unit by substring; "kg" is tested before "g" so it is
// never mistaken for grams
func weightUnit(text string) string {
	switch {
	case strings.Contains(text, "kg"):
		return "kg"
	case strings.Contains(text, "ml"):
		return "ml"
	case strings.Contains(text, "g"):
		return "g"
	default:
		return ""
	}
}

// ParsePrice returns the first currency-prefixed amount in the text, or 0
func ParsePrice(text string) float64 {
	match := pricePattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// PricePer100g normalizes a price to a 100g basis, rounded to 2 decimals
func PricePer100g(price, weightGrams float64) float64 {
	if weightGrams <= 0 {
		return 0
	}
	return round2(price / weightGrams * 100)
}

// ProductKey builds the matching key "<brand>_<cleaned name>"
func ProductKey(brandStandardized, name string) string {
	cleaned := strings.ToLower(name)
	cleaned = keyStopWordPattern.ReplaceAllString(cleaned, "")
	cleaned = keyPunctuationPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.ToLower(brandStandardized) + "_" + cleaned
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
