package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Itecs-company/Alias/pkg/openai"
)

type stubProvider struct {
	name  string
	calls atomic.Int32
	out   Outcome
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, _ string, _ int) Outcome {
	s.calls.Add(1)
	return s.out
}

type memRecorder struct {
	records []string
}

func (r *memRecorder) Record(_ context.Context, provider, direction, _ string, _ *int, payload string) {
	r.records = append(r.records, provider+":"+direction+":"+payload)
}

func TestOutcome(t *testing.T) {
	assert.True(t, Ok(nil).OK())
	assert.True(t, Ok([]Result{{Link: "x"}}).OK())
	assert.False(t, Failed(eris.New("boom")).OK())
}

func TestCache(t *testing.T) {
	c := NewCache(time.Hour)
	key := Key("duckduckgo", "LM358", 10)

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, []Result{{Title: "t", Link: "l"}})
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "l", got[0].Link)

	// Different params produce a different key.
	_, ok = c.Get(Key("duckduckgo", "LM358", 5))
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	key := Key("p", "q", 1)
	c.Set(key, []Result{{Link: "x"}})

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestPacedLimiterSpacing(t *testing.T) {
	l := NewPacedLimiter(100, time.Second, 50*time.Millisecond)

	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(context.Background()))
	}
	// Two spacing gaps after the initial token.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestInstrumentedCachesSuccess(t *testing.T) {
	stub := &stubProvider{name: "stub", out: Ok([]Result{{Link: "https://ti.com"}})}
	p := Instrument(stub, nil, NewCache(time.Hour), nil)

	first := p.Search(context.Background(), "LM358", 10)
	second := p.Search(context.Background(), "LM358", 10)

	require.True(t, first.OK())
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestInstrumentedDoesNotCacheFailure(t *testing.T) {
	stub := &stubProvider{name: "stub", out: Failed(eris.New("down"))}
	p := Instrument(stub, nil, NewCache(time.Hour), nil)

	p.Search(context.Background(), "q", 10)
	p.Search(context.Background(), "q", 10)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestInstrumentedRecords(t *testing.T) {
	stub := &stubProvider{name: "stub", out: Ok([]Result{{Link: "https://ti.com"}})}
	rec := &memRecorder{}
	p := Instrument(stub, nil, nil, rec)

	p.Search(context.Background(), "LM358", 10)

	require.Len(t, rec.records, 2)
	assert.Contains(t, rec.records[0], "stub:request:")
	assert.Contains(t, rec.records[1], "stub:response:")
	assert.Contains(t, rec.records[1], "ti.com")
}

func TestTruncate(t *testing.T) {
	long := make([]byte, payloadLimit+100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, Truncate(string(long)), payloadLimit)
	assert.Equal(t, "short", Truncate("short"))
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	// 意法半导体 repeated; 3 bytes per rune, so the 4000-byte bound
	// lands mid-rune.
	long := strings.Repeat("意法半导体", payloadLimit/3)
	got := Truncate(long)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), payloadLimit)
	assert.Greater(t, len(got), payloadLimit-utf8.UTFMax)
}

func TestLLMProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"c","choices":[{"index":0,"message":{"role":"assistant","content":"` +
			`[{\"title\":\"LM358 datasheet\",\"url\":\"https://www.ti.com/lit/ds/symlink/lm358.pdf\",\"summary\":\"TI datasheet\"}]` +
			`"}}]}`))
	}))
	defer srv.Close()

	p := NewLLMProvider(openai.NewClient("k", openai.WithBaseURL(srv.URL)))
	out := p.Search(context.Background(), "LM358 manufacturer site", 5)

	require.True(t, out.OK())
	require.Len(t, out.Results, 1)
	assert.Equal(t, "https://www.ti.com/lit/ds/symlink/lm358.pdf", out.Results[0].Link)
}

func TestLLMProviderMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"c","choices":[{"index":0,"message":{"role":"assistant","content":"I could not find anything."}}]}`))
	}))
	defer srv.Close()

	p := NewLLMProvider(openai.NewClient("k", openai.WithBaseURL(srv.URL)))
	out := p.Search(context.Background(), "q", 5)

	require.True(t, out.OK())
	assert.Empty(t, out.Results)
}

func TestParseSuggestionsFenced(t *testing.T) {
	content := "```json\n[{\"title\":\"t\",\"url\":\"https://x.example\",\"summary\":\"s\"}]\n```"
	got, ok := parseSuggestions(content)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "https://x.example", got[0].URL)
}
