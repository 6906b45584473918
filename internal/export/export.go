// Package export renders resolved parts as an xlsx workbook for
// operator download.
package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Itecs-company/Alias/internal/model"
)

var header = []string{
	"part_number",
	"manufacturer",
	"alias_used",
	"match_status",
	"confidence",
	"source_url",
	"search_stage",
	"created_at",
}

// WriteWorkbook writes the parts as a single-sheet workbook to w.
func WriteWorkbook(w io.Writer, parts []model.Part) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Parts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}

	for _, p := range parts {
		row := sheet.AddRow()
		row.AddCell().SetString(p.PartNumber)
		row.AddCell().SetString(deref(p.ManufacturerName))
		row.AddCell().SetString(deref(p.AliasUsed))
		row.AddCell().SetString(deref(p.MatchStatus))
		row.AddCell().SetString(formatConfidence(p.Confidence))
		row.AddCell().SetString(deref(p.SourceURL))
		row.AddCell().SetString(deref(p.SearchStage))
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatConfidence(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}
