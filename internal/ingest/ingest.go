// Package ingest turns uploaded spreadsheets into part requests and
// runs them through the resolution pipeline row by row.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/model"
)

// PartResolver is the slice of the pipeline the importer needs.
type PartResolver interface {
	ResolveOne(ctx context.Context, req model.PartRequest, debug bool) (*model.ResolutionResult, error)
}

// Options configures column detection. Header cells are lowercased and
// trimmed before comparison.
type Options struct {
	PartColumnAliases         []string
	ManufacturerColumnAliases []string
}

// DefaultOptions covers the column namings seen in operator uploads
// across languages.
func DefaultOptions() Options {
	return Options{
		PartColumnAliases: []string{
			"part number", "part_number", "partnumber", "part no", "part",
			"pn", "mpn", "p/n", "артикул", "номер детали", "парт номер",
			"型号", "零件号", "품번",
		},
		ManufacturerColumnAliases: []string{
			"manufacturer", "mfr", "mfg", "brand", "vendor", "maker",
			"производитель", "бренд", "制造商", "厂商", "제조사",
		},
	}
}

// RowError reports one failed row. Line is 1-based as a spreadsheet
// user would count it.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report is the outcome of one bulk import.
type Report struct {
	Results []model.ResolutionResult `json:"results"`
	Skipped int                      `json:"skipped"`
	Errors  []RowError               `json:"errors"`
}

// Row pairs a parsed part request with its spreadsheet line,
// 1-based as a spreadsheet user would count it.
type Row struct {
	Line    int
	Request model.PartRequest
}

// Parse reads the first sheet of an xlsx workbook and extracts part
// requests. Rows without a part number are counted as skipped, not
// errored. A workbook whose header lacks a recognizable part-number
// column is a configuration error.
func Parse(data []byte, opts Options) ([]Row, int, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, 0, eris.New("ingest: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, 0, eris.New("ingest: sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	partCol := findColumn(header, opts.PartColumnAliases)
	if partCol < 0 {
		return nil, 0, eris.Errorf("ingest: no part-number column among headers %v", header)
	}
	mfrCol := findColumn(header, opts.ManufacturerColumnAliases)

	var rows []Row
	skipped := 0
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		part := cellAt(cells, partCol)
		if part == "" {
			skipped++
			continue
		}
		rows = append(rows, Row{
			Line: i + 2, // after the header
			Request: model.PartRequest{
				PartNumber:       part,
				ManufacturerHint: cellAt(cells, mfrCol),
			},
		})
	}
	return rows, skipped, nil
}

// Importer runs parsed rows through the pipeline.
type Importer struct {
	resolver PartResolver
	opts     Options
}

// NewImporter builds an Importer. Zero Options get the defaults.
func NewImporter(resolver PartResolver, opts Options) *Importer {
	if len(opts.PartColumnAliases) == 0 {
		def := DefaultOptions()
		opts.PartColumnAliases = def.PartColumnAliases
		if len(opts.ManufacturerColumnAliases) == 0 {
			opts.ManufacturerColumnAliases = def.ManufacturerColumnAliases
		}
	}
	return &Importer{resolver: resolver, opts: opts}
}

// Run parses the workbook and resolves every row. One row's failure is
// reported in the Errors list and never aborts the batch; only a
// malformed workbook propagates as an error.
func (im *Importer) Run(ctx context.Context, data []byte, debug bool) (*Report, error) {
	rows, skipped, err := Parse(data, im.opts)
	if err != nil {
		return nil, err
	}

	report := &Report{Skipped: skipped}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ingest: cancelled")
		}
		res, err := im.resolver.ResolveOne(ctx, r.Request, debug)
		if err != nil {
			zap.L().Warn("row resolution failed",
				zap.Int("line", r.Line),
				zap.String("part_number", r.Request.PartNumber),
				zap.Error(err))
			report.Errors = append(report.Errors, RowError{
				Line:    r.Line,
				Message: fmt.Sprintf("%s: %v", r.Request.PartNumber, err),
			})
			continue
		}
		report.Results = append(report.Results, *res)
	}

	zap.L().Info("import finished",
		zap.Int("resolved", len(report.Results)),
		zap.Int("skipped", report.Skipped),
		zap.Int("errored", len(report.Errors)))
	return report, nil
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		cleaned := strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if cleaned == a {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
