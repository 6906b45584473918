package search

import (
	"context"
	"unicode/utf8"
)

// payloadLimit bounds how much of a request or response body lands in
// the audit log.
const payloadLimit = 4000

// Recorder receives an audit record for every outbound provider call.
// Recording is best-effort; implementations must not fail the search.
type Recorder interface {
	Record(ctx context.Context, provider, direction, query string, statusCode *int, payload string)
}

// Truncate caps a payload at the audit log bound, backing off to a
// rune boundary so the stored payload stays valid UTF-8.
func Truncate(payload string) string {
	if len(payload) <= payloadLimit {
		return payload
	}
	cut := payloadLimit
	for cut > 0 && !utf8.RuneStart(payload[cut]) {
		cut--
	}
	return payload[:cut]
}
