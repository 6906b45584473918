package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Itecs-company/Alias/internal/fuzz"
	"github.com/Itecs-company/Alias/internal/normalize"
	"github.com/Itecs-company/Alias/internal/registry"
)

const (
	domainConfidence  = 0.95
	mentionConfidence = 0.90

	knownListThreshold = 78
	hintThreshold      = 62
	partialThreshold   = 70
	aliasThreshold     = 60

	fallbackConfidence = 0.30

	contextLineCap  = 20
	phraseCap       = 40
	maxPhraseTokens = 3
)

// noisePhrases mark scraped lines that are bot-check or access-wall
// boilerplate rather than document content.
var noisePhrases = []string{
	"captcha",
	"are you a robot",
	"verify you are human",
	"unusual traffic",
	"access denied",
	"enable javascript",
	"cloudflare",
	"cookies must be enabled",
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "are": {}, "was": {}, "all": {}, "new": {}, "can": {},
	"datasheet": {}, "datasheets": {}, "pdf": {}, "download": {},
	"part": {}, "parts": {}, "number": {}, "series": {}, "page": {},
	"home": {}, "product": {}, "products": {}, "search": {}, "price": {},
	"stock": {}, "buy": {}, "order": {}, "sheet": {}, "data": {},
	"specification": {}, "specifications": {}, "features": {},
	"description": {}, "online": {}, "free": {}, "view": {},
}

var datasheetKeywords = []string{"datasheet", "manufacturer", "specifications", "features"}

// MatchResult is the heuristic matcher's scored manufacturer guess.
type MatchResult struct {
	Manufacturer string
	Confidence   float64
	AliasUsed    string
	DebugLog     string
}

// Matcher derives a manufacturer guess from extracted page text, the
// part being resolved and the page's URL.
type Matcher struct {
	registry *registry.Registry
	dict     *normalize.Dictionary
}

// NewMatcher builds a Matcher. Nil arguments get the built-in tables.
func NewMatcher(reg *registry.Registry, dict *normalize.Dictionary) *Matcher {
	if reg == nil {
		reg = registry.Default()
	}
	if dict == nil {
		dict = normalize.Default()
	}
	return &Matcher{registry: reg, dict: dict}
}

// Match checks heuristics in priority order and returns the first hit.
// The second return is false when no guess at all could be made.
func (m *Matcher) Match(text, partNumber, hint, sourceURL string) (MatchResult, bool) {
	if r, ok := m.matchDomain(sourceURL, hint); ok {
		return r, true
	}
	if r, ok := m.matchKnownMention(text, hint); ok {
		return r, true
	}
	return m.matchContextual(text, partNumber, hint)
}

// matchDomain asserts the manufacturer when the page is hosted on a
// known vendor domain. Provenance from the vendor's own site is the
// strongest signal the matcher has.
func (m *Matcher) matchDomain(sourceURL, hint string) (MatchResult, bool) {
	name, ok := m.registry.ManufacturerForURL(sourceURL)
	if !ok {
		return MatchResult{}, false
	}
	return MatchResult{
		Manufacturer: name,
		Confidence:   domainConfidence,
		AliasUsed:    m.aliasFor(hint, name),
		DebugLog:     fmt.Sprintf("manufacturer domain match for %s", sourceURL),
	}, true
}

// matchKnownMention looks for canonical manufacturer names verbatim in
// the text, majority vote when several distinct names appear.
func (m *Matcher) matchKnownMention(text, hint string) (MatchResult, bool) {
	lower := strings.ToLower(text)
	var best string
	bestCount := 0
	for _, name := range m.registry.Manufacturers() {
		count := strings.Count(lower, strings.ToLower(name))
		if count > bestCount {
			best, bestCount = name, count
		}
	}
	if bestCount == 0 {
		return MatchResult{}, false
	}
	return MatchResult{
		Manufacturer: best,
		Confidence:   mentionConfidence,
		AliasUsed:    m.aliasFor(hint, best),
		DebugLog:     fmt.Sprintf("known manufacturer %q mentioned %d time(s)", best, bestCount),
	}, true
}

// matchContextual tokenizes the most relevant lines into candidate name
// phrases and fuzzy-matches them against the known list, then the hint,
// then the part number. The final fallback accepts the first phrase at
// low confidence so the pipeline always has something to escalate from.
func (m *Matcher) matchContextual(text, partNumber, hint string) (MatchResult, bool) {
	lines := contextLines(text, partNumber, hint)
	phrases := candidatePhrases(lines)
	if len(phrases) == 0 {
		return MatchResult{}, false
	}

	// known-list pass
	var best MatchResult
	for _, phrase := range phrases {
		for _, name := range m.registry.Manufacturers() {
			score := fuzz.WRatio(phrase, name)
			if score < knownListThreshold {
				continue
			}
			conf := 0.55 + score/100*0.35
			if conf > best.Confidence {
				best = MatchResult{
					Manufacturer: name,
					Confidence:   conf,
					DebugLog:     fmt.Sprintf("phrase %q matched known manufacturer %q (score %.0f)", phrase, name, score),
				}
			}
		}
	}
	if best.Manufacturer != "" {
		best.AliasUsed = m.aliasFor(hint, best.Manufacturer)
		return best, true
	}

	// hint pass
	if hint != "" {
		normalizedHint := m.dict.Normalize(hint)
		for _, phrase := range phrases {
			score := fuzz.WRatio(phrase, hint)
			if s := fuzz.WRatio(phrase, normalizedHint); s > score {
				score = s
			}
			if score < hintThreshold {
				continue
			}
			conf := 0.40 + score/100*0.30
			if conf > best.Confidence {
				best = MatchResult{
					Manufacturer: phrase,
					Confidence:   conf,
					AliasUsed:    hint,
					DebugLog:     fmt.Sprintf("phrase %q matched submitted hint %q (score %.0f)", phrase, hint, score),
				}
			}
		}
		if best.Manufacturer != "" {
			return best, true
		}
	}

	// part-number pass
	for _, phrase := range phrases {
		score := fuzz.PartialRatio(phrase, partNumber)
		if score < partialThreshold {
			continue
		}
		conf := score / 100 * 0.5
		if conf > best.Confidence {
			best = MatchResult{
				Manufacturer: phrase,
				Confidence:   conf,
				DebugLog:     fmt.Sprintf("phrase %q partially matched part number (score %.0f)", phrase, score),
			}
		}
	}
	if best.Manufacturer != "" {
		best.AliasUsed = m.aliasFor(hint, best.Manufacturer)
		return best, true
	}

	return MatchResult{
		Manufacturer: phrases[0],
		Confidence:   fallbackConfidence,
		AliasUsed:    m.aliasFor(hint, phrases[0]),
		DebugLog:     fmt.Sprintf("no heuristic fired, falling back to first candidate phrase %q", phrases[0]),
	}, true
}

// aliasFor returns the hint when it plausibly names the same
// manufacturer, checking the raw and normalized forms.
func (m *Matcher) aliasFor(hint, manufacturer string) string {
	if hint == "" || manufacturer == "" {
		return ""
	}
	if fuzz.WRatio(hint, manufacturer) >= aliasThreshold {
		return hint
	}
	if fuzz.WRatio(m.dict.Normalize(hint), manufacturer) >= aliasThreshold {
		return hint
	}
	return ""
}

// contextLines picks the lines most likely to name the manufacturer:
// lines mentioning the part number, else the hint, else datasheet
// keywords, else the head of the document. Noise boilerplate is dropped.
func contextLines(text, partNumber, hint string) []string {
	all := strings.Split(text, "\n")
	clean := make([]string, 0, len(all))
	for _, line := range all {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isNoiseLine(trimmed) {
			continue
		}
		clean = append(clean, trimmed)
	}

	strippedPart := stripSeparators(partNumber)
	selectors := []func(string) bool{
		func(l string) bool {
			lower := strings.ToLower(l)
			return strings.Contains(lower, strings.ToLower(partNumber)) ||
				(strippedPart != "" && strings.Contains(stripSeparators(l), strippedPart))
		},
	}
	if hint != "" {
		lowerHint := strings.ToLower(hint)
		selectors = append(selectors, func(l string) bool {
			return strings.Contains(strings.ToLower(l), lowerHint)
		})
	}
	selectors = append(selectors, func(l string) bool {
		lower := strings.ToLower(l)
		for _, kw := range datasheetKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	})

	for _, match := range selectors {
		var picked []string
		for _, line := range clean {
			if match(line) {
				picked = append(picked, line)
				if len(picked) == contextLineCap {
					break
				}
			}
		}
		if len(picked) > 0 {
			return picked
		}
	}

	if len(clean) > contextLineCap {
		clean = clean[:contextLineCap]
	}
	return clean
}

func isNoiseLine(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range noisePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// candidatePhrases tokenizes lines into alphabetic words and joins
// adjacent words into short phrases that could be manufacturer names.
func candidatePhrases(lines []string) []string {
	var phrases []string
	seen := map[string]struct{}{}

	add := func(p string) bool {
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			return len(phrases) < phraseCap
		}
		seen[key] = struct{}{}
		phrases = append(phrases, p)
		return len(phrases) < phraseCap
	}

	// shorter phrases first so a tight single-token match outranks a
	// looser window containing it on equal fuzzy score
	tokenized := make([][]string, 0, len(lines))
	for _, line := range lines {
		tokenized = append(tokenized, nameTokens(line))
	}
	for n := 1; n <= maxPhraseTokens; n++ {
		for _, tokens := range tokenized {
			for i := 0; i+n <= len(tokens); i++ {
				if !add(strings.Join(tokens[i:i+n], " ")) {
					return phrases
				}
			}
		}
	}
	return phrases
}

// nameTokens returns the alphabetic words of a line that are long
// enough and not stopwords.
func nameTokens(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[strings.ToLower(f)]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
