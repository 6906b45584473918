// Package search gives the pipeline one uniform search capability
// over several backends, with pacing, caching and audit logging
// wrapped around each call.
package search

import "context"

// Result is one search hit, backend-independent.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Outcome is the result of one provider call. Provider failures are
// data, not errors: stage logic branches on the outcome instead of
// catching anything.
type Outcome struct {
	Results []Result
	Err     error
}

// Ok wraps successful results, possibly empty.
func Ok(results []Result) Outcome {
	return Outcome{Results: results}
}

// Failed wraps a provider failure.
func Failed(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the call produced usable results.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Provider is the uniform search capability.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) Outcome
}
