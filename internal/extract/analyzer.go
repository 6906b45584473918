package extract

import (
	"context"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/docs"
)

// Analyzer downloads a document, pulls out its text, and asks an
// Extractor to name the manufacturer. Documents are staged on disk so
// large PDFs do not accumulate in memory across candidate URLs.
type Analyzer struct {
	fetcher   *docs.Fetcher
	extractor Extractor
}

// NewAnalyzer builds an Analyzer over the given extractor. A nil
// fetcher gets a default one.
func NewAnalyzer(fetcher *docs.Fetcher, extractor Extractor) *Analyzer {
	if fetcher == nil {
		fetcher = docs.NewFetcher()
	}
	return &Analyzer{fetcher: fetcher, extractor: extractor}
}

// AnalyzeURL fetches rawURL and extracts the manufacturer for
// partNumber from its text. The staged temp file is removed before
// returning, on every path.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL, partNumber, hint string) (Extraction, error) {
	path, err := a.fetcher.FetchToFile(ctx, rawURL)
	if err != nil {
		return Extraction{}, eris.Wrap(err, "extract: fetch document")
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			zap.L().Warn("failed to remove staged document",
				zap.String("path", path),
				zap.Error(rmErr))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return Extraction{}, eris.Wrap(err, "extract: read staged document")
	}

	text := docs.ExtractText(data, http.DetectContentType(data))
	if text == "" {
		return Extraction{}, eris.New("extract: document has no text")
	}

	return a.extractor.ExtractManufacturer(ctx, text, partNumber, hint)
}

// AnalyzeURLs tries each URL in order and returns the first extraction
// naming a manufacturer. Per-URL failures are logged and skipped; an
// error is returned only when every URL fails.
func (a *Analyzer) AnalyzeURLs(ctx context.Context, urls []string, partNumber, hint string) (Extraction, string, error) {
	var lastErr error
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return Extraction{}, "", err
		}
		ex, err := a.AnalyzeURL(ctx, u, partNumber, hint)
		if err != nil {
			zap.L().Debug("document analysis failed",
				zap.String("url", u),
				zap.Error(err))
			lastErr = err
			continue
		}
		if ex.Manufacturer != "" {
			return ex, u, nil
		}
	}
	if lastErr != nil {
		return Extraction{}, "", eris.Wrap(lastErr, "extract: all documents failed")
	}
	return Extraction{}, "", nil
}
