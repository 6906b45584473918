package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/docs"
	"github.com/Itecs-company/Alias/internal/extract"
	"github.com/Itecs-company/Alias/internal/ingest"
	"github.com/Itecs-company/Alias/internal/normalize"
	"github.com/Itecs-company/Alias/internal/notify"
	"github.com/Itecs-company/Alias/internal/pipeline"
	"github.com/Itecs-company/Alias/internal/registry"
	"github.com/Itecs-company/Alias/internal/search"
	"github.com/Itecs-company/Alias/internal/store"
	"github.com/Itecs-company/Alias/pkg/anthropic"
	"github.com/Itecs-company/Alias/pkg/googlecse"
	"github.com/Itecs-company/Alias/pkg/openai"
	"github.com/Itecs-company/Alias/pkg/telegram"
	"github.com/Itecs-company/Alias/pkg/webscrape"
)

// Env bundles the long-lived services a command needs. Constructed
// once per process, read-only afterwards.
type Env struct {
	Store    store.Store
	Engine   *pipeline.Engine
	Importer *ingest.Importer
	Notifier notify.Notifier
}

// Close releases the environment's resources.
func (e *Env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("failed to close store", zap.Error(err))
	}
}

// initEnv builds the full pipeline environment from config: store,
// instrumented providers, extractor backend, notifier, engine.
func initEnv(ctx context.Context) (*Env, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	policy := pipeline.DefaultPolicy()
	if cfg.Pipeline.PolicyFile != "" {
		policy, err = pipeline.LoadPolicy(cfg.Pipeline.PolicyFile)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
	}

	reg := registry.Default()
	if cfg.Registry.File != "" {
		reg, err = registry.LoadFile(cfg.Registry.File)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
	}

	dict := normalize.Default()
	fetcher := docs.NewFetcher()
	recorder := pipeline.NewStoreRecorder(st)
	cache := search.NewCache(time.Duration(cfg.Search.CacheTTLMinutes) * time.Minute)
	limiter := search.NewPacedLimiter(
		cfg.Search.MaxRequestsPerHour,
		time.Hour,
		time.Duration(cfg.Search.MinIntervalSecs)*time.Second,
	)

	var webOpts []webscrape.Option
	if cfg.Search.BaseURL != "" {
		webOpts = append(webOpts, webscrape.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.UserAgent != "" {
		webOpts = append(webOpts, webscrape.WithUserAgent(cfg.Search.UserAgent))
	}
	web := search.Instrument(search.NewWebProvider(webscrape.NewClient(webOpts...)), limiter, cache, recorder)

	var cse search.Provider
	if cfg.Google.Key != "" {
		client := googlecse.NewClient(cfg.Google.Key, cfg.Google.CX, googlecse.WithBaseURL(cfg.Google.BaseURL))
		cse = search.Instrument(search.NewCSEProvider(client), limiter, cache, recorder)
	}

	var llm search.Provider
	var analyzer *extract.Analyzer
	if cfg.OpenAI.Key != "" {
		client := openai.NewClient(cfg.OpenAI.Key,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithModel(cfg.OpenAI.Model),
		)
		llm = search.Instrument(search.NewLLMProvider(client), limiter, cache, recorder)

		extractor, err := buildExtractor(client)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		analyzer = extract.NewAnalyzer(fetcher, extractor)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.Enabled {
		notifier = notify.NewTelegram(telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.ChatID))
	}

	engine := pipeline.NewEngine(pipeline.EngineConfig{
		Store:    st,
		Policy:   policy,
		Matcher:  pipeline.NewMatcher(reg, dict),
		Dict:     dict,
		Fetcher:  fetcher,
		Web:      web,
		CSE:      cse,
		LLM:      llm,
		Analyzer: analyzer,
		Notifier: notifier,
	})

	return &Env{
		Store:    st,
		Engine:   engine,
		Importer: ingest.NewImporter(engine, ingest.Options{}),
		Notifier: notifier,
	}, nil
}

// buildExtractor picks the document-analysis backend from config.
func buildExtractor(openaiClient openai.Client) (extract.Extractor, error) {
	switch cfg.Pipeline.Extractor {
	case "openai":
		return extract.NewOpenAIExtractor(openaiClient, cfg.OpenAI.Model), nil
	case "anthropic":
		return extract.NewAnthropicExtractor(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("unknown extractor backend %q", cfg.Pipeline.Extractor)
	}
}
