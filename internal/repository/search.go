package repository

import (
	"strings"
	"unicode"
)

// SearchTerms lowercases s and splits it into letter/digit tokens, dropping
// duplicates while keeping first-seen order
func SearchTerms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// matchScore counts how many query terms appear as tokens of name
func matchScore(name string, terms []string) int {
	tokens := make(map[string]struct{})
	for _, t := range SearchTerms(name) {
		tokens[t] = struct{}{}
	}

	score := 0
	for _, term := range terms {
		if _, ok := tokens[term]; ok {
			score++
		}
	}
	return score
}
