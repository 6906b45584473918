package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Itecs-company/Alias/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func TestSQLite_SaveAndGetLatestPart(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &model.Part{
		PartNumber:       "LM358",
		ManufacturerName: strPtr("Texes Instruments"),
		Confidence:       f64Ptr(0.5),
	}
	require.NoError(t, st.SavePart(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &model.Part{
		PartNumber:       "LM358",
		ManufacturerName: strPtr("Texas Instruments"),
		Confidence:       f64Ptr(0.95),
		SourceURL:        strPtr("https://www.ti.com/product/LM358"),
		SearchStage:      strPtr(model.StageInternet),
		StageHistory: []model.StageStatus{
			{Name: model.StageInternet, Status: model.StageSuccess, Provider: "duckduckgo", Confidence: f64Ptr(0.95), URLsConsidered: 3},
		},
	}
	require.NoError(t, st.SavePart(ctx, second))

	got, err := st.LatestPartByNumber(ctx, "LM358")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "Texas Instruments", *got.ManufacturerName)
	require.Len(t, got.StageHistory, 1)
	assert.Equal(t, model.StageSuccess, got.StageHistory[0].Status)
	assert.Equal(t, 3, got.StageHistory[0].URLsConsidered)
}

func TestSQLite_LatestPartMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.LatestPartByNumber(context.Background(), "XYZ-NONEXISTENT-0001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SaveUnresolvedPart(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	part := &model.Part{
		PartNumber:            "XYZ-NONEXISTENT-0001",
		SubmittedManufacturer: strPtr("Acme"),
		MatchStatus:           strPtr(model.MatchStatusPending),
		DebugLog:              strPtr("no candidates from any stage"),
	}
	require.NoError(t, st.SavePart(ctx, part))

	got, err := st.LatestPartByNumber(ctx, "XYZ-NONEXISTENT-0001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ManufacturerName)
	assert.Nil(t, got.Confidence)
	assert.Equal(t, model.MatchStatusPending, *got.MatchStatus)
}

func TestSQLite_ListParts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, pn := range []string{"A1", "B2", "C3"} {
		require.NoError(t, st.SavePart(ctx, &model.Part{PartNumber: pn}))
	}

	parts, err := st.ListParts(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	rest, err := st.ListParts(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestSQLite_ManufacturerLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	got, err := st.GetManufacturerByName(ctx, "Texas Instruments")
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := st.CreateManufacturer(ctx, "Texas Instruments")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Case-insensitive lookup finds the row.
	got, err = st.GetManufacturerByName(ctx, "TEXAS INSTRUMENTS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
}

func TestSQLite_AddAliasIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	m, err := st.CreateManufacturer(ctx, "STMicroelectronics")
	require.NoError(t, err)

	require.NoError(t, st.AddAlias(ctx, m.ID, "意法半导体"))
	require.NoError(t, st.AddAlias(ctx, m.ID, "意法半导体"))
	require.NoError(t, st.AddAlias(ctx, m.ID, "ST Micro"))
	require.NoError(t, st.AddAlias(ctx, m.ID, "st micro"))

	aliases, err := st.ListAliases(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, aliases, 2)
}

func TestSQLite_SearchLogs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	code := 200
	require.NoError(t, st.RecordSearchLog(ctx, &model.SearchLog{
		Provider:  "duckduckgo",
		Direction: model.LogDirectionRequest,
		Query:     "LM358 manufacturer",
		Payload:   "LM358 manufacturer",
	}))
	require.NoError(t, st.RecordSearchLog(ctx, &model.SearchLog{
		Provider:   "duckduckgo",
		Direction:  model.LogDirectionResponse,
		Query:      "LM358 manufacturer",
		StatusCode: &code,
		Payload:    `[{"title":"LM358"}]`,
	}))

	logs, err := st.ListSearchLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, entry := range logs {
		assert.Equal(t, "duckduckgo", entry.Provider)
	}
}
