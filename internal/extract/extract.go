// Package extract asks a language model to name the manufacturer
// of a part from document text.
package extract

import (
	"context"
	"strings"
)

const (
	// relevantTextLimit caps the document excerpt sent to the model.
	relevantTextLimit = 3000

	// leadLines is how many lines from the top of the document are
	// always included. Datasheets put the vendor name in the header.
	leadLines = 10
)

// Extraction is the model's answer for a single document.
type Extraction struct {
	Manufacturer string
	Confidence   float64
}

// Extractor names the manufacturer of partNumber from document text.
// An empty Manufacturer means the document does not identify one.
type Extractor interface {
	ExtractManufacturer(ctx context.Context, text, partNumber, hint string) (Extraction, error)
}

// RelevantText trims a document down to the lines most likely to name
// the manufacturer: the opening lines, lines mentioning the part number
// with two lines of surrounding context, and lines mentioning the hint
// with one line of context. The result is capped at relevantTextLimit
// characters.
func RelevantText(text, partNumber, hint string) string {
	lines := strings.Split(text, "\n")
	keep := make(map[int]bool, len(lines))

	for i := 0; i < len(lines) && i < leadLines; i++ {
		keep[i] = true
	}

	lowerPart := strings.ToLower(strings.TrimSpace(partNumber))
	lowerHint := strings.ToLower(strings.TrimSpace(hint))
	for i, line := range lines {
		lower := strings.ToLower(line)
		if lowerPart != "" && strings.Contains(lower, lowerPart) {
			markRange(keep, i-2, i+2, len(lines))
		}
		if lowerHint != "" && strings.Contains(lower, lowerHint) {
			markRange(keep, i-1, i+1, len(lines))
		}
	}

	var b strings.Builder
	for i, line := range lines {
		if !keep[i] {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if b.Len()+len(trimmed)+1 > relevantTextLimit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(trimmed)
	}
	return b.String()
}

func markRange(keep map[int]bool, from, to, n int) {
	if from < 0 {
		from = 0
	}
	if to >= n {
		to = n - 1
	}
	for i := from; i <= to; i++ {
		keep[i] = true
	}
}
