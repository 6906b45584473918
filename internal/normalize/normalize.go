// Package normalize maps manufacturer name variants written in any
// script to a single canonical English form.
package normalize

import (
	"strings"
	"unicode"

	"github.com/Itecs-company/Alias/internal/fuzz"
)

// fuzzyThreshold is the minimum similarity (0-100) for a dictionary
// variant to claim an alphabetic-script input.
const fuzzyThreshold = 85

// Dictionary resolves name variants to canonical manufacturer names.
// Lookups are pure; the dictionary is built once and read-only after.
type Dictionary struct {
	variants map[string]string // cleaned variant -> canonical
}

// NewDictionary builds a dictionary from canonical name -> variant
// list. Every canonical name is also registered as a variant of
// itself.
func NewDictionary(entries map[string][]string) *Dictionary {
	d := &Dictionary{variants: make(map[string]string)}
	for canonical, vars := range entries {
		d.variants[fuzz.Clean(canonical)] = canonical
		for _, v := range vars {
			d.variants[fuzz.Clean(v)] = canonical
		}
	}
	return d
}

// Default returns the built-in multilingual dictionary.
func Default() *Dictionary {
	return NewDictionary(defaultEntries)
}

// Normalize returns the canonical form for name, trying an exact
// variant lookup, then CJK substring containment, then fuzzy matching
// against every variant. Unknown names come back unchanged.
func (d *Dictionary) Normalize(name string) string {
	cleaned := fuzz.Clean(name)
	if cleaned == "" {
		return name
	}

	if canonical, ok := d.variants[cleaned]; ok {
		return canonical
	}

	if containsCJK(cleaned) {
		for variant, canonical := range d.variants {
			if !containsCJK(variant) {
				continue
			}
			if strings.Contains(cleaned, variant) || strings.Contains(variant, cleaned) {
				return canonical
			}
		}
	}

	best, bestScore := "", 0.0
	for variant, canonical := range d.variants {
		if s := fuzz.Ratio(cleaned, variant); s > bestScore {
			best, bestScore = canonical, s
		}
	}
	if bestScore > fuzzyThreshold {
		return best
	}

	return name
}

// KnownCanonical reports whether name normalizes to a dictionary entry
// rather than passing through unchanged.
func (d *Dictionary) KnownCanonical(name string) bool {
	_, ok := d.variants[fuzz.Clean(d.Normalize(name))]
	return ok
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// IsLatin reports whether every letter in s belongs to the Latin
// script. Non-Latin hints get an extra normalized query variant during
// web search.
func IsLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
