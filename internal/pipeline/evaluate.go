package pipeline

import (
	"github.com/Itecs-company/Alias/internal/fuzz"
	"github.com/Itecs-company/Alias/internal/model"
)

// matchedBoundary is the minimum hint agreement, inclusive, for a
// "matched" verdict.
const matchedBoundary = 0.70

// EvaluateMatch scores agreement between the operator's hint and the
// resolved manufacturer name. No hint means no verdict; a hint with
// nothing resolved stays pending.
func EvaluateMatch(hint string, resolved *string) (status *string, confidence *float64) {
	if hint == "" {
		return nil, nil
	}
	if resolved == nil || *resolved == "" {
		s := model.MatchStatusPending
		return &s, nil
	}

	score := fuzz.WRatio(hint, *resolved) / 100
	s := model.MatchStatusMismatch
	if score >= matchedBoundary {
		s = model.MatchStatusMatched
	}
	return &s, &score
}
