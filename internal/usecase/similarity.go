package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TokenSortRatio scores two strings 0-100 ignoring word order.
// Both sides are lowercased, non-alphanumerics become spaces, tokens are
// sorted and re-joined, and the results are compared with an Indel ratio.
func TokenSortRatio(a, b string) float64 {
	if a == b {
		return 100
	}

	sa := sortedTokens(a)
	sb := sortedTokens(b)
	if sa == "" || sb == "" {
		return 0
	}

	return math.Round(indelRatio(sa, sb))
}

// sortedTokens normalizes a string into its sorted token form
func sortedTokens(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelRatio is 100 * (1 - indel distance / total length), where the indel
// distance counts only insertions and deletions
func indelRatio(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)
	total := len(r1) + len(r2)
	if total == 0 {
		return 100
	}
	lcs := lcsLength(r1, r2)
	return float64(2*lcs) / float64(total) * 100
}

// lcsLength computes the longest common subsequence length
func lcsLength(r1, r2 []rune) int {
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for i := 1; i <= len(r1); i++ {
		curr[0] = 0
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
