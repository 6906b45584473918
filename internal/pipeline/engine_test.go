package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Itecs-company/Alias/internal/extract"
	"github.com/Itecs-company/Alias/internal/model"
	"github.com/Itecs-company/Alias/internal/normalize"
	"github.com/Itecs-company/Alias/internal/registry"
	"github.com/Itecs-company/Alias/internal/search"
)

type stubSearch struct {
	name    string
	results []search.Result
	err     error
}

func (s *stubSearch) Name() string { return s.name }

func (s *stubSearch) Search(context.Context, string, int) search.Outcome {
	if s.err != nil {
		return search.Failed(s.err)
	}
	return search.Ok(s.results)
}

type stubDocExtractor struct {
	got extract.Extraction
	err error
}

func (s stubDocExtractor) ExtractManufacturer(context.Context, string, string, string) (extract.Extraction, error) {
	return s.got, s.err
}

type memNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *memNotifier) Notify(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveOneDomainAnchorScenario(t *testing.T) {
	st := newTestStore(t)
	page := htmlServer(t, "LM358 low power dual operational amplifier")

	reg := registry.New(
		map[string]string{"127.0.0.1": "Texas Instruments"},
		registry.Default().Manufacturers(),
	)
	eng := NewEngine(EngineConfig{
		Store:   st,
		Matcher: NewMatcher(reg, nil),
		Web:     &stubSearch{name: "duckduckgo", results: []search.Result{{Title: "LM358", Link: page.URL + "/product/LM358"}}},
	})

	res, err := eng.ResolveOne(context.Background(), model.PartRequest{
		PartNumber:       "LM358",
		ManufacturerHint: "Texas Instruments",
	}, false)
	require.NoError(t, err)

	require.NotNil(t, res.ManufacturerName)
	assert.Equal(t, "Texas Instruments", *res.ManufacturerName)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.95, *res.Confidence, 1e-9)
	require.NotNil(t, res.SearchStage)
	assert.Equal(t, model.StageInternet, *res.SearchStage)
	require.NotNil(t, res.MatchStatus)
	assert.Equal(t, model.MatchStatusMatched, *res.MatchStatus)
	assert.Nil(t, res.DebugLog)

	// a stage-1 success terminates the pipeline
	require.Len(t, res.StageHistory, 3)
	assert.Equal(t, model.StageSuccess, res.StageHistory[0].Status)
	assert.Equal(t, model.StageSkipped, res.StageHistory[1].Status)
	assert.Equal(t, model.StageSkipped, res.StageHistory[2].Status)

	// manufacturer row was created
	m, err := st.GetManufacturerByName(context.Background(), "texas instruments")
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestResolveOneCacheShortCircuit(t *testing.T) {
	st := newTestStore(t)
	page := htmlServer(t, "LM358 product page")

	reg := registry.New(map[string]string{"127.0.0.1": "Texas Instruments"}, nil)
	eng := NewEngine(EngineConfig{
		Store:   st,
		Matcher: NewMatcher(reg, nil),
		Web:     &stubSearch{name: "duckduckgo", results: []search.Result{{Link: page.URL + "/lm358"}}},
	})
	ctx := context.Background()

	first, err := eng.ResolveOne(ctx, model.PartRequest{PartNumber: "LM358"}, false)
	require.NoError(t, err)
	require.NotNil(t, first.SearchStage)
	assert.Equal(t, model.StageInternet, *first.SearchStage)

	second, err := eng.ResolveOne(ctx, model.PartRequest{PartNumber: "LM358"}, false)
	require.NoError(t, err)

	require.NotNil(t, second.SearchStage)
	assert.Equal(t, model.StageCache, *second.SearchStage)
	assert.Equal(t, *first.ManufacturerName, *second.ManufacturerName)
	assert.InDelta(t, *first.Confidence, *second.Confidence, 1e-9)
	require.Len(t, second.StageHistory, 3)
	for _, s := range second.StageHistory {
		assert.Equal(t, model.StageSkipped, s.Status)
	}
}

func TestResolveOneCacheRejectedByDisagreeingHint(t *testing.T) {
	st := newTestStore(t)
	page := htmlServer(t, "LM358 product page")

	reg := registry.New(map[string]string{"127.0.0.1": "Texas Instruments"}, nil)
	eng := NewEngine(EngineConfig{
		Store:   st,
		Matcher: NewMatcher(reg, nil),
		Web:     &stubSearch{name: "duckduckgo", results: []search.Result{{Link: page.URL + "/lm358"}}},
	})
	ctx := context.Background()

	_, err := eng.ResolveOne(ctx, model.PartRequest{PartNumber: "LM358"}, false)
	require.NoError(t, err)

	res, err := eng.ResolveOne(ctx, model.PartRequest{
		PartNumber:       "LM358",
		ManufacturerHint: "Toshiba",
	}, false)
	require.NoError(t, err)

	// disagreeing hint forces a fresh pipeline run
	require.NotNil(t, res.SearchStage)
	assert.Equal(t, model.StageInternet, *res.SearchStage)
	require.NotNil(t, res.MatchStatus)
	assert.Equal(t, model.MatchStatusMismatch, *res.MatchStatus)
}

func TestResolveOneUnresolved(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(EngineConfig{
		Store: st,
		Web:   &stubSearch{name: "duckduckgo"},
		CSE:   &stubSearch{name: "google_cse"},
	})
	ctx := context.Background()

	res, err := eng.ResolveOne(ctx, model.PartRequest{PartNumber: "XYZ-NONEXISTENT-0001"}, false)
	require.NoError(t, err)

	assert.Nil(t, res.ManufacturerName)
	assert.Nil(t, res.MatchStatus)
	assert.Nil(t, res.Confidence)
	require.Len(t, res.StageHistory, 3)
	assert.Equal(t, model.StageNoResults, res.StageHistory[0].Status)
	assert.Equal(t, model.StageNoResults, res.StageHistory[1].Status)
	assert.Equal(t, model.StageSkipped, res.StageHistory[2].Status)

	// the unresolved outcome is persisted with a full audit trail
	part, err := st.LatestPartByNumber(ctx, "XYZ-NONEXISTENT-0001")
	require.NoError(t, err)
	require.NotNil(t, part)
	assert.Nil(t, part.ManufacturerName)
	assert.Len(t, part.StageHistory, 3)
}

func TestResolveOneUnresolvedWithHintIsPending(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(EngineConfig{
		Store: st,
		Web:   &stubSearch{name: "duckduckgo"},
	})

	res, err := eng.ResolveOne(context.Background(), model.PartRequest{
		PartNumber:       "XYZ-NONEXISTENT-0002",
		ManufacturerHint: "Acme",
	}, false)
	require.NoError(t, err)

	assert.Nil(t, res.ManufacturerName)
	require.NotNil(t, res.MatchStatus)
	assert.Equal(t, model.MatchStatusPending, *res.MatchStatus)
	assert.Nil(t, res.MatchConfidence)
}

func TestResolveOneEscalatesToLLM(t *testing.T) {
	st := newTestStore(t)
	weakPage := htmlServer(t, "ZX-100 available from Zorand supplier listing")
	docPage := htmlServer(t, "Zorand Electronics ZX-100 technical documentation")

	eng := NewEngine(EngineConfig{
		Store:    st,
		Web:      &stubSearch{name: "duckduckgo", results: []search.Result{{Link: weakPage.URL + "/zx100"}}},
		CSE:      &stubSearch{name: "google_cse"},
		LLM:      &stubSearch{name: "openai", results: []search.Result{{Link: docPage.URL + "/zx100.html"}}},
		Analyzer: extract.NewAnalyzer(nil, stubDocExtractor{got: extract.Extraction{Manufacturer: "Zorand Electronics", Confidence: 0.85}}),
	})

	res, err := eng.ResolveOne(context.Background(), model.PartRequest{
		PartNumber:       "ZX-100",
		ManufacturerHint: "Zorand",
	}, true)
	require.NoError(t, err)

	require.Len(t, res.StageHistory, 3)
	assert.Equal(t, model.StageLowConfidence, res.StageHistory[0].Status)
	require.NotNil(t, res.StageHistory[0].Confidence)
	assert.InDelta(t, 0.70, *res.StageHistory[0].Confidence, 1e-9)
	assert.Equal(t, model.StageNoResults, res.StageHistory[1].Status)
	assert.Equal(t, model.StageSuccess, res.StageHistory[2].Status)

	require.NotNil(t, res.ManufacturerName)
	assert.Equal(t, "Zorand Electronics", *res.ManufacturerName)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.85, *res.Confidence, 1e-9)
	require.NotNil(t, res.SearchStage)
	assert.Equal(t, model.StageOpenAI, *res.SearchStage)
	require.NotNil(t, res.AliasUsed)
	assert.Equal(t, "Zorand", *res.AliasUsed)
	require.NotNil(t, res.MatchStatus)
	assert.Equal(t, model.MatchStatusMatched, *res.MatchStatus)
	assert.NotNil(t, res.DebugLog)
}

func TestResolveOneLLMOverrideSuccess(t *testing.T) {
	run := func(t *testing.T, override bool) *model.ResolutionResult {
		t.Helper()
		st := newTestStore(t)
		mentionPage := htmlServer(t, "STMicroelectronics components overview STMicroelectronics stock")
		docPage := htmlServer(t, "Zorand Electronics ZX-200 technical documentation")

		pol := DefaultPolicy()
		pol.LLMEscalationBelow = 0.99
		pol.LLMOverrideSuccess = override

		eng := NewEngine(EngineConfig{
			Store:    st,
			Policy:   pol,
			Web:      &stubSearch{name: "duckduckgo", results: []search.Result{{Link: mentionPage.URL + "/a"}}},
			CSE:      &stubSearch{name: "google_cse"},
			LLM:      &stubSearch{name: "openai", results: []search.Result{{Link: docPage.URL + "/zx200.html"}}},
			Analyzer: extract.NewAnalyzer(nil, stubDocExtractor{got: extract.Extraction{Manufacturer: "Zorand Electronics", Confidence: 0.97}}),
		})

		res, err := eng.ResolveOne(context.Background(), model.PartRequest{PartNumber: "ZX-200"}, false)
		require.NoError(t, err)

		// Both the mention vote and the document analysis succeed.
		require.Len(t, res.StageHistory, 3)
		assert.Equal(t, model.StageSuccess, res.StageHistory[0].Status)
		assert.Equal(t, model.StageSuccess, res.StageHistory[2].Status)
		return res
	}

	t.Run("flag off keeps earlier success", func(t *testing.T) {
		res := run(t, false)
		require.NotNil(t, res.ManufacturerName)
		assert.Equal(t, "STMicroelectronics", *res.ManufacturerName)
		require.NotNil(t, res.Confidence)
		assert.InDelta(t, 0.90, *res.Confidence, 1e-9)
		require.NotNil(t, res.SearchStage)
		assert.Equal(t, model.StageInternet, *res.SearchStage)
	})

	t.Run("flag on lets higher LLM confidence win", func(t *testing.T) {
		res := run(t, true)
		require.NotNil(t, res.ManufacturerName)
		assert.Equal(t, "Zorand Electronics", *res.ManufacturerName)
		require.NotNil(t, res.Confidence)
		assert.InDelta(t, 0.97, *res.Confidence, 1e-9)
		require.NotNil(t, res.SearchStage)
		assert.Equal(t, model.StageOpenAI, *res.SearchStage)
	})
}

func TestResolveOneFallbackPicksBestLowConfidence(t *testing.T) {
	st := newTestStore(t)
	weakPage := htmlServer(t, "Frobnitz Gadgetry catalog listing")
	mentionPage := htmlServer(t, "STMicroelectronics components overview STMicroelectronics stock")

	pol := DefaultPolicy()
	pol.InternetThreshold = 0.99
	pol.GoogleThreshold = 0.99
	pol.LLMEscalationBelow = 0.99

	eng := NewEngine(EngineConfig{
		Store:  st,
		Policy: pol,
		Web:    &stubSearch{name: "duckduckgo", results: []search.Result{{Link: weakPage.URL + "/a"}}},
		CSE:    &stubSearch{name: "google_cse", results: []search.Result{{Link: mentionPage.URL + "/b"}}},
	})

	res, err := eng.ResolveOne(context.Background(), model.PartRequest{PartNumber: "ZZZ-999"}, false)
	require.NoError(t, err)

	require.NotNil(t, res.ManufacturerName)
	assert.Equal(t, "STMicroelectronics", *res.ManufacturerName)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.90, *res.Confidence, 1e-9)
	require.NotNil(t, res.SourceURL)
	assert.Equal(t, mentionPage.URL+"/b", *res.SourceURL)
	require.NotNil(t, res.SearchStage)
	assert.Equal(t, model.StageGoogle, *res.SearchStage)

	require.Len(t, res.StageHistory, 3)
	assert.Equal(t, model.StageLowConfidence, res.StageHistory[0].Status)
	assert.Equal(t, model.StageLowConfidence, res.StageHistory[1].Status)
	assert.Contains(t, res.StageHistory[1].Message, "best-effort fallback")
	assert.NotContains(t, res.StageHistory[0].Message, "best-effort fallback")
}

func TestResolveManyPreservesOrder(t *testing.T) {
	st := newTestStore(t)
	notifier := &memNotifier{}
	eng := NewEngine(EngineConfig{
		Store:    st,
		Web:      &stubSearch{name: "duckduckgo"},
		Notifier: notifier,
	})

	reqs := []model.PartRequest{
		{PartNumber: "AAA-1"},
		{PartNumber: "BBB-2"},
		{PartNumber: "CCC-3"},
		{PartNumber: "DDD-4"},
		{PartNumber: "EEE-5"},
	}

	results, err := eng.ResolveMany(context.Background(), reqs, false)
	require.NoError(t, err)

	require.Len(t, results, len(reqs))
	for i, req := range reqs {
		assert.Equal(t, req.PartNumber, results[i].PartNumber)
	}
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "5 parts")
}

func TestResolveOneRejectsEmptyPartNumber(t *testing.T) {
	eng := NewEngine(EngineConfig{Store: newTestStore(t)})

	_, err := eng.ResolveOne(context.Background(), model.PartRequest{PartNumber: "  "}, false)
	assert.Error(t, err)
}

func TestQueryVariants(t *testing.T) {
	dict := normalize.Default()

	t.Run("no hint", func(t *testing.T) {
		assert.Equal(t, []string{"LM358"}, queryVariants(dict, "LM358", ""))
	})

	t.Run("latin hint", func(t *testing.T) {
		got := queryVariants(dict, "LM358", "Texas Instruments")
		assert.Equal(t, []string{"LM358", "LM358 Texas Instruments"}, got)
	})

	t.Run("non-latin hint adds canonical variant", func(t *testing.T) {
		got := queryVariants(dict, "STM32F103", "意法半导体")
		require.Len(t, got, 3)
		assert.Equal(t, "STM32F103 意法半导体", got[1])
		assert.Equal(t, "STM32F103 STMicroelectronics", got[2])
	})
}
