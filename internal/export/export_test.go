package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/Itecs-company/Alias/internal/model"
)

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func TestWriteWorkbook(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	parts := []model.Part{
		{
			PartNumber:       "LM358",
			ManufacturerName: strPtr("Texas Instruments"),
			AliasUsed:        strPtr("TI"),
			MatchStatus:      strPtr(model.MatchStatusMatched),
			Confidence:       f64Ptr(0.95),
			SourceURL:        strPtr("https://www.ti.com/product/LM358"),
			SearchStage:      strPtr(model.StageInternet),
			CreatedAt:        created,
		},
		{
			PartNumber: "XYZ-UNKNOWN",
			CreatedAt:  created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, parts))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "part_number", sheet.Rows[0].Cells[0].String())

	resolved := sheet.Rows[1]
	assert.Equal(t, "LM358", resolved.Cells[0].String())
	assert.Equal(t, "Texas Instruments", resolved.Cells[1].String())
	assert.Equal(t, "0.95", resolved.Cells[4].String())
	assert.Equal(t, "Internet", resolved.Cells[6].String())

	unresolved := sheet.Rows[2]
	assert.Equal(t, "XYZ-UNKNOWN", unresolved.Cells[0].String())
	assert.Equal(t, "", unresolved.Cells[1].String())
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}
