// Package webscrape searches the public web by scraping the
// DuckDuckGo HTML endpoint. It needs no API key, which makes it the
// cheapest search tier.
package webscrape

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://html.duckduckgo.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxAttempts      = 3
)

// Result is one organic search result.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client performs web searches.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the search endpoint base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent overrides the browser User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a web-scrape search client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	endpoint := c.baseURL + "/html/?q=" + url.QueryEscape(query)

	var lastErr error
	for attempt := range maxAttempts {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "webscrape: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "webscrape: send request")
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("webscrape: status %d for query %q", resp.StatusCode, query)
			zap.L().Warn("webscrape: rate limited, backing off",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, eris.Errorf("webscrape: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		results, err := parseResults(resp.Body, maxResults)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		return results, nil
	}

	return nil, eris.Wrap(lastErr, "webscrape: attempts exhausted")
}

func parseResults(body io.Reader, maxResults int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrap(err, "webscrape: parse html")
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		anchor := s.Find(".result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		link := unwrapRedirect(href)
		if link == "" {
			return true
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(anchor.Text()),
			Link:    link,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return maxResults <= 0 || len(results) < maxResults
	})

	return results, nil
}

// unwrapRedirect strips the engine's redirect wrapper
// (//duckduckgo.com/l/?uddg=<encoded>) and returns the target URL.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}

func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(float64(time.Second) * math.Pow(2, float64(attempt)))
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "webscrape: backoff cancelled")
	case <-t.C:
		return nil
	}
}
