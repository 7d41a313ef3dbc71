package graph

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/chrisroyse/docprov/internal/models"
)

// abbreviationPairs lists expansions tier-2 resolution treats as equivalent
// when comparing names, for every entity type (§4.6.2).
var abbreviationPairs = [][2]string{
	{"corp", "corporation"},
	{"inc", "incorporated"},
	{"ltd", "limited"},
	{"co", "company"},
	{"assn", "association"},
	{"dept", "department"},
}

// normalizeAbbreviations rewrites known abbreviations to their expanded
// form so two spellings of the same name compare equal after the rewrite.
func normalizeAbbreviations(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	for i, t := range tokens {
		t = strings.TrimSuffix(t, ".")
		for _, pair := range abbreviationPairs {
			if t == pair[0] || t == pair[1] {
				tokens[i] = pair[1]
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}

// tokenSortedSimilarity compares two strings independent of word order -
// e.g. "Smith, John" vs "John Smith" - by sorting each string's tokens
// before scoring with Jaro-Winkler.
func tokenSortedSimilarity(a, b string) float64 {
	return matchr.JaroWinkler(sortedTokens(a), sortedTokens(b), false)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sortStrings(tokens)
	return strings.Join(tokens, " ")
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// initialMatchScore handles "J. Smith" <-> "John Smith": same surname, and
// the given name's first initial matches. Capped at 0.90 per §4.6.2.
func initialMatchScore(a, b string) float64 {
	at := strings.Fields(strings.ToLower(a))
	bt := strings.Fields(strings.ToLower(b))
	if len(at) < 2 || len(bt) < 2 {
		return 0
	}
	aSurname, bSurname := at[len(at)-1], bt[len(bt)-1]
	if aSurname != bSurname {
		return 0
	}
	aFirst, bFirst := strings.TrimSuffix(at[0], "."), strings.TrimSuffix(bt[0], ".")
	if aFirst == "" || bFirst == "" {
		return 0
	}
	if aFirst == bFirst {
		return 0.90
	}
	if len(aFirst) == 1 && strings.HasPrefix(bFirst, aFirst) {
		return 0.90
	}
	if len(bFirst) == 1 && strings.HasPrefix(aFirst, bFirst) {
		return 0.90
	}
	return 0
}

// isContained reports whether one normalized location name is a substring
// of the other at word boundaries (e.g. "New York" inside "New York City").
func isContained(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}
	if shorter == "" {
		return false
	}
	longTokens := strings.Fields(longer)
	shortTokens := strings.Fields(shorter)
	if len(shortTokens) == 0 || len(shortTokens) > len(longTokens) {
		return false
	}
	for i := 0; i+len(shortTokens) <= len(longTokens); i++ {
		match := true
		for j, tok := range shortTokens {
			if longTokens[i+j] != tok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// combinedSimilarity merges token-sorted string similarity, abbreviation
// expansion, initial-matching, and (for locations) substring-containment
// into the single score tier-2 resolution merges against (§4.6.2).
func combinedSimilarity(entityType models.EntityType, a, b string) float64 {
	if entityType == models.EntityLocation && isContained(a, b) {
		return 1.0
	}

	score := tokenSortedSimilarity(a, b)

	if expanded := tokenSortedSimilarity(normalizeAbbreviations(a), normalizeAbbreviations(b)); expanded > score {
		score = expanded
	}

	if entityType == models.EntityPerson {
		if initial := initialMatchScore(a, b); initial > score {
			score = initial
		}
	}

	return score
}
