package docs

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// extractConcurrency caps simultaneous fetches in ExtractFromURLs.
const extractConcurrency = 5

// ExtractText converts raw document bytes to plain text. PDFs are
// sniffed by magic bytes or content-type hint; a PDF that fails to
// parse is re-tried as HTML, since servers sometimes mislabel error
// pages.
func ExtractText(data []byte, contentType string) string {
	if isPDF(data, contentType) {
		if text, err := extractPDF(data); err == nil && text != "" {
			return text
		}
		zap.L().Debug("docs: pdf extraction failed, falling back to html")
	}
	return extractHTML(data)
}

// ExtractFromURLs fetches and extracts text for each URL under a
// bounded concurrency cap. URLs that fail or yield no text are
// omitted; a fully empty map is a valid result.
func ExtractFromURLs(ctx context.Context, f *Fetcher, urls []string) map[string]string {
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(urls))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)

	for _, u := range urls {
		g.Go(func() error {
			data, contentType, err := f.FetchBytes(ctx, u)
			if err != nil {
				zap.L().Debug("docs: skipping url", zap.String("url", u), zap.Error(err))
				return nil
			}
			text := ExtractText(data, contentType)
			if text == "" {
				return nil
			}
			mu.Lock()
			out[u] = text
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return out
}

func isPDF(data []byte, contentType string) bool {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

// extractPDF returns the concatenated per-page text of a PDF.
func extractPDF(data []byte) (string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageText := extractPageText(ctx, pageNr)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream pulls text-showing operators (Tj, TJ, ')
// out of a PDF content stream.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return collapseWhitespace(sb.String())
}

// decodePDFString handles basic PDF string escape sequences,
// including octal escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for range 2 {
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
					}
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// extractHTML strips script and style elements and returns the
// visible text, one trimmed line per text block, blank lines dropped.
func extractHTML(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, raw := range strings.Split(doc.Text(), "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseWhitespace(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteRune('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
