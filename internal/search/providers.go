package search

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/pkg/googlecse"
	"github.com/Itecs-company/Alias/pkg/openai"
	"github.com/Itecs-company/Alias/pkg/webscrape"
)

// Provider names as they appear in stage status and audit rows.
const (
	ProviderDuckDuckGo = "duckduckgo"
	ProviderGoogleCSE  = "google_cse"
	ProviderOpenAI     = "openai"
)

// webProvider adapts the scraping client.
type webProvider struct {
	client webscrape.Client
}

// NewWebProvider wraps a web-scrape client as a Provider.
func NewWebProvider(client webscrape.Client) Provider {
	return &webProvider{client: client}
}

func (p *webProvider) Name() string { return ProviderDuckDuckGo }

func (p *webProvider) Search(ctx context.Context, query string, maxResults int) Outcome {
	results, err := p.client.Search(ctx, query, maxResults)
	if err != nil {
		return Failed(err)
	}
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return Ok(out)
}

// cseProvider adapts the Custom Search client.
type cseProvider struct {
	client googlecse.Client
}

// NewCSEProvider wraps a Google Custom Search client as a Provider.
func NewCSEProvider(client googlecse.Client) Provider {
	return &cseProvider{client: client}
}

func (p *cseProvider) Name() string { return ProviderGoogleCSE }

func (p *cseProvider) Search(ctx context.Context, query string, maxResults int) Outcome {
	results, err := p.client.Search(ctx, query, maxResults)
	if err != nil {
		return Failed(err)
	}
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return Ok(out)
}

const suggestSystemPrompt = `You suggest likely web pages for electronic component lookups.
Respond with a strict JSON array, no prose: [{"title": "...", "url": "...", "summary": "..."}].
Prefer manufacturer product pages and datasheet URLs. Return [] if you have no plausible suggestion.`

// llmProvider asks a language model to fabricate candidate URLs. It
// is the most expensive backend and only serves the last stage.
type llmProvider struct {
	client openai.Client
}

// NewLLMProvider wraps an OpenAI client as a URL-suggesting Provider.
func NewLLMProvider(client openai.Client) Provider {
	return &llmProvider{client: client}
}

func (p *llmProvider) Name() string { return ProviderOpenAI }

type llmSuggestion struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

func (p *llmProvider) Search(ctx context.Context, query string, maxResults int) Outcome {
	temp := 0.1
	resp, err := p.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Messages: []openai.Message{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: &temp,
	})
	if err != nil {
		return Failed(err)
	}
	if len(resp.Choices) == 0 {
		return Ok(nil)
	}

	suggestions, ok := parseSuggestions(resp.Choices[0].Message.Content)
	if !ok {
		zap.L().Debug("search: llm returned non-json suggestions",
			zap.String("query", query),
		)
		return Ok(nil)
	}

	var out []Result
	for _, s := range suggestions {
		if s.URL == "" {
			continue
		}
		out = append(out, Result{Title: s.Title, Link: s.URL, Snippet: s.Summary})
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	return Ok(out)
}

// parseSuggestions tolerates markdown fences and surrounding prose
// around the JSON array.
func parseSuggestions(content string) ([]llmSuggestion, bool) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var suggestions []llmSuggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &suggestions); err != nil {
		return nil, false
	}
	return suggestions, true
}
