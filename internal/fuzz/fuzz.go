// Package fuzz provides string similarity scoring on a 0-100 scale.
// Scores are edit-distance ratios with token-order-insensitive
// variants for comparing manufacturer names that arrive in arbitrary
// word order or with extra legal suffixes.
package fuzz

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Clean lowercases, strips diacritics and collapses whitespace so
// comparisons are insensitive to case and accenting.
func Clean(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Ratio is the plain similarity of the two strings after cleaning.
func Ratio(a, b string) float64 {
	return similarity(Clean(a), Clean(b))
}

// PartialRatio is the best similarity between the shorter string and
// any same-length window of the longer one. It scores substring
// matches highly, e.g. a part number embedded in a longer line.
func PartialRatio(a, b string) float64 {
	a, b = Clean(a), Clean(b)
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return similarity(string(short), string(long))
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if s := similarity(string(short), string(long[i:i+len(short)])); s > best {
			best = s
			if best >= 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the strings with their tokens sorted, so
// "Instruments Texas" scores 100 against "Texas Instruments".
func TokenSortRatio(a, b string) float64 {
	return similarity(sortTokens(a), sortTokens(b))
}

// TokenSetRatio compares on token sets: the shared tokens anchor the
// score so that one side carrying extra tokens is penalized lightly.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var shared, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := similarity(base, withA)
	if s := similarity(base, withB); s > best {
		best = s
	}
	if s := similarity(withA, withB); s > best {
		best = s
	}
	return best
}

// WRatio is the weighted composite used for name agreement scoring:
// the max of the plain, token-sort and token-set ratios, with a
// discounted partial ratio thrown in when the lengths diverge enough
// for a substring match to be meaningful.
func WRatio(a, b string) float64 {
	best := Ratio(a, b)
	if s := TokenSortRatio(a, b); s > best {
		best = s
	}
	if s := TokenSetRatio(a, b); s > best {
		best = s
	}

	la, lb := len([]rune(Clean(a))), len([]rune(Clean(b)))
	if la > 0 && lb > 0 {
		longer, shorter := la, lb
		if shorter > longer {
			longer, shorter = shorter, longer
		}
		if float64(longer)/float64(shorter) > 1.5 {
			if s := PartialRatio(a, b) * 0.9; s > best {
				best = s
			}
		}
	}
	return best
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return levenshtein.Similarity(a, b, nil) * 100
}

func sortTokens(s string) string {
	tokens := strings.Fields(Clean(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(Clean(s)) {
		set[t] = struct{}{}
	}
	return set
}
