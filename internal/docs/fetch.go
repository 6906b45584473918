// Package docs retrieves candidate documents (datasheets, product
// pages) and turns them into plain text for the heuristic matcher and
// the LLM analyzer.
package docs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 8 * time.Second
	defaultTotalTimeout   = 20 * time.Second
	retryDelay            = 1 * time.Second
	defaultMaxBytes       = 10 << 20
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher downloads raw document bytes over HTTP(S) or FTP. One
// instance is shared process-wide; it holds no per-request state.
type Fetcher struct {
	client         *http.Client
	insecureClient *http.Client
	ftpTimeout     time.Duration
	userAgent      string
	maxBytes       int64
}

// FetchOption configures the fetcher.
type FetchOption func(*Fetcher)

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) FetchOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBytes overrides the document size cap.
func WithMaxBytes(n int64) FetchOption {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithHTTPClient overrides both HTTP clients. Intended for tests.
func WithHTTPClient(hc *http.Client) FetchOption {
	return func(f *Fetcher) {
		f.client = hc
		f.insecureClient = hc
	}
}

// NewFetcher creates a fetcher with a connect timeout, a total request
// timeout, and a second client with certificate verification disabled
// for the cert-failure fallback path.
func NewFetcher(opts ...FetchOption) *Fetcher {
	dialer := &net.Dialer{Timeout: defaultConnectTimeout}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultConnectTimeout,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	f := &Fetcher{
		client:         &http.Client{Timeout: defaultTotalTimeout, Transport: transport},
		insecureClient: &http.Client{Timeout: defaultTotalTimeout, Transport: insecureTransport},
		ftpTimeout:     defaultTotalTimeout,
		userAgent:      defaultUserAgent,
		maxBytes:       defaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchBytes retrieves the document at rawURL and returns its bytes
// and content type. Transient failures get one retry after a short
// delay. A certificate verification failure gets one retry with
// verification disabled; obscure vendor sites routinely carry broken
// chains and the content is treated as untrusted source text anyway.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", eris.Wrap(err, "docs: parse url")
	}
	if u.Scheme == "ftp" {
		data, err := f.fetchFTP(ctx, rawURL)
		return data, "", err
	}

	data, contentType, err := f.get(ctx, rawURL, f.client)
	if err == nil {
		return data, contentType, nil
	}

	if isCertificateError(err) {
		zap.L().Warn("docs: certificate verification failed, retrying without verification",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return f.get(ctx, rawURL, f.insecureClient)
	}

	zap.L().Debug("docs: fetch failed, retrying once",
		zap.String("url", rawURL),
		zap.Error(err),
	)
	select {
	case <-ctx.Done():
		return nil, "", eris.Wrap(ctx.Err(), "docs: fetch cancelled")
	case <-time.After(retryDelay):
	}

	return f.get(ctx, rawURL, f.client)
}

// FetchToFile downloads rawURL into a temp file and returns its path.
// The caller owns the file and must remove it.
func (f *Fetcher) FetchToFile(ctx context.Context, rawURL string) (string, error) {
	data, _, err := f.FetchBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "aliasfinder-doc-*")
	if err != nil {
		return "", eris.Wrap(err, "docs: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", eris.Wrap(err, "docs: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", eris.Wrap(err, "docs: close temp file")
	}
	return tmp.Name(), nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, client *http.Client) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "docs: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", eris.Wrap(err, "docs: get")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", eris.Errorf("docs: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", eris.Wrap(err, "docs: read body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", eris.Errorf("docs: document from %s exceeds %d byte cap", rawURL, f.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func isCertificateError(err error) bool {
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &certVerify) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return true
	}
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		return true
	}
	return strings.Contains(err.Error(), "certificate")
}
