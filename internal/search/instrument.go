package search

import (
	"context"
	"encoding/json"

	"github.com/Itecs-company/Alias/internal/model"
)

// Instrumented wraps a provider with pacing, result caching and audit
// logging. Any of the three collaborators may be nil, which disables
// that behavior; the recorder is an explicit constructor parameter,
// not a runtime capability probe.
type Instrumented struct {
	inner    Provider
	limiter  *PacedLimiter
	cache    *Cache
	recorder Recorder
}

// Instrument wraps p.
func Instrument(p Provider, limiter *PacedLimiter, cache *Cache, recorder Recorder) *Instrumented {
	return &Instrumented{inner: p, limiter: limiter, cache: cache, recorder: recorder}
}

// Name returns the wrapped provider's name.
func (i *Instrumented) Name() string { return i.inner.Name() }

// Search runs the wrapped provider call. Cached results bypass the
// limiter and the audit log entirely; they cost nothing.
func (i *Instrumented) Search(ctx context.Context, query string, maxResults int) Outcome {
	key := Key(i.inner.Name(), query, maxResults)
	if i.cache != nil {
		if results, ok := i.cache.Get(key); ok {
			return Ok(results)
		}
	}

	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return Failed(err)
		}
	}

	if i.recorder != nil {
		i.recorder.Record(ctx, i.inner.Name(), model.LogDirectionRequest, query, nil, Truncate(query))
	}

	out := i.inner.Search(ctx, query, maxResults)

	if i.recorder != nil {
		payload := ""
		if out.OK() {
			if raw, err := json.Marshal(out.Results); err == nil {
				payload = string(raw)
			}
		} else {
			payload = out.Err.Error()
		}
		i.recorder.Record(ctx, i.inner.Name(), model.LogDirectionResponse, query, nil, Truncate(payload))
	}

	if out.OK() && i.cache != nil {
		i.cache.Set(key, out.Results)
	}

	return out
}
