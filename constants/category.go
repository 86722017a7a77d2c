package constants

import (
	"strings"
)

// Category is one of the five fixed document classes a project collects.
type Category string

// Stable values (store these exact strings on disk).
const (
	Statute        Category = "estatuto"
	Minutes        Category = "ata"
	Identification Category = "identificacao"
	License        Category = "licenca"
	Schedule       Category = "programacao"
)

var allCategories = []Category{
	Statute,
	Minutes,
	Identification,
	License,
	Schedule,
}

// AllCategories returns the fixed category list in its canonical order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form user input onto a known category.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"statute":         Statute,
		"bylaws":          Statute,
		"minutes":         Minutes,
		"meeting minutes": Minutes,
		"identification":  Identification,
		"ids":             Identification,
		"license":         License,
		"schedule":        Schedule,
		"programming":     Schedule,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return "", false
}

// IsValid reports whether c is one of the five fixed categories.
func (c Category) IsValid() bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}
