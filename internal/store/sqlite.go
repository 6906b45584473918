package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Itecs-company/Alias/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS manufacturers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS manufacturer_aliases (
	id              TEXT PRIMARY KEY,
	manufacturer_id TEXT NOT NULL REFERENCES manufacturers(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS parts (
	id                     TEXT PRIMARY KEY,
	part_number            TEXT NOT NULL,
	manufacturer_id        TEXT REFERENCES manufacturers(id),
	manufacturer_name      TEXT,
	alias_used             TEXT,
	submitted_manufacturer TEXT,
	match_status           TEXT,
	match_confidence       REAL,
	confidence             REAL,
	source_url             TEXT,
	debug_log              TEXT,
	search_stage           TEXT,
	stage_history          TEXT,
	created_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS search_logs (
	id          TEXT PRIMARY KEY,
	provider    TEXT NOT NULL,
	direction   TEXT NOT NULL,
	query       TEXT NOT NULL,
	status_code INTEGER,
	payload     TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_manufacturers_name ON manufacturers(name COLLATE NOCASE);
CREATE UNIQUE INDEX IF NOT EXISTS idx_aliases_unique ON manufacturer_aliases(manufacturer_id, name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_parts_part_number ON parts(part_number);
CREATE INDEX IF NOT EXISTS idx_search_logs_provider ON search_logs(provider);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePart(ctx context.Context, part *model.Part) error {
	if part.ID == "" {
		part.ID = uuid.New().String()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = time.Now().UTC()
	}

	historyJSON, err := json.Marshal(part.StageHistory)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stage history")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parts (id, part_number, manufacturer_id, manufacturer_name, alias_used,
			submitted_manufacturer, match_status, match_confidence, confidence, source_url,
			debug_log, search_stage, stage_history, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		part.ID, part.PartNumber, part.ManufacturerID, part.ManufacturerName, part.AliasUsed,
		part.SubmittedManufacturer, part.MatchStatus, part.MatchConfidence, part.Confidence,
		part.SourceURL, part.DebugLog, part.SearchStage, string(historyJSON), part.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert part")
}

const partColumns = `id, part_number, manufacturer_id, manufacturer_name, alias_used,
	submitted_manufacturer, match_status, match_confidence, confidence, source_url,
	debug_log, search_stage, stage_history, created_at`

func (s *SQLiteStore) LatestPartByNumber(ctx context.Context, partNumber string) (*model.Part, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partColumns+` FROM parts WHERE part_number = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		partNumber,
	)
	part, err := scanPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get latest part %s", partNumber)
	}
	return part, nil
}

func (s *SQLiteStore) ListParts(ctx context.Context, limit, offset int) ([]model.Part, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+partColumns+` FROM parts ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parts")
	}
	defer rows.Close()

	var parts []model.Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan part")
		}
		parts = append(parts, *part)
	}
	return parts, eris.Wrap(rows.Err(), "sqlite: iterate parts")
}

func (s *SQLiteStore) GetManufacturerByName(ctx context.Context, name string) (*model.Manufacturer, error) {
	var m model.Manufacturer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM manufacturers WHERE name = ? COLLATE NOCASE`,
		name,
	).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get manufacturer %s", name)
	}
	return &m, nil
}

func (s *SQLiteStore) CreateManufacturer(ctx context.Context, name string) (*model.Manufacturer, error) {
	m := model.Manufacturer{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manufacturers (id, name, created_at) VALUES (?, ?, ?)`,
		m.ID, m.Name, m.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert manufacturer %s", name)
	}
	return &m, nil
}

func (s *SQLiteStore) ListAliases(ctx context.Context, manufacturerID string) ([]model.ManufacturerAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, manufacturer_id, name, created_at FROM manufacturer_aliases WHERE manufacturer_id = ? ORDER BY created_at`,
		manufacturerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list aliases")
	}
	defer rows.Close()

	var aliases []model.ManufacturerAlias
	for rows.Next() {
		var a model.ManufacturerAlias
		if err := rows.Scan(&a.ID, &a.ManufacturerID, &a.Name, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alias")
		}
		aliases = append(aliases, a)
	}
	return aliases, eris.Wrap(rows.Err(), "sqlite: iterate aliases")
}

// AddAlias is idempotent: a case-insensitive duplicate is silently
// ignored.
func (s *SQLiteStore) AddAlias(ctx context.Context, manufacturerID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO manufacturer_aliases (id, manufacturer_id, name, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), manufacturerID, name, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert alias %s", name)
}

func (s *SQLiteStore) RecordSearchLog(ctx context.Context, entry *model.SearchLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (id, provider, direction, query, status_code, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Provider, entry.Direction, entry.Query, entry.StatusCode, entry.Payload, entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert search log")
}

func (s *SQLiteStore) ListSearchLogs(ctx context.Context, limit int) ([]model.SearchLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, direction, query, status_code, payload, created_at FROM search_logs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list search logs")
	}
	defer rows.Close()

	var logs []model.SearchLog
	for rows.Next() {
		var entry model.SearchLog
		if err := rows.Scan(&entry.ID, &entry.Provider, &entry.Direction, &entry.Query, &entry.StatusCode, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search log")
		}
		logs = append(logs, entry)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: iterate search logs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPart(row rowScanner) (*model.Part, error) {
	var (
		part        model.Part
		historyJSON sql.NullString
	)
	err := row.Scan(
		&part.ID, &part.PartNumber, &part.ManufacturerID, &part.ManufacturerName,
		&part.AliasUsed, &part.SubmittedManufacturer, &part.MatchStatus,
		&part.MatchConfidence, &part.Confidence, &part.SourceURL,
		&part.DebugLog, &part.SearchStage, &historyJSON, &part.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if historyJSON.Valid && historyJSON.String != "" && historyJSON.String != "null" {
		if err := json.Unmarshal([]byte(historyJSON.String), &part.StageHistory); err != nil {
			return nil, eris.Wrap(err, "unmarshal stage history")
		}
	}
	return &part, nil
}
