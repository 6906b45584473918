package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Itecs-company/Alias/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, extracted so
// tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS manufacturers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS manufacturer_aliases (
	id              TEXT PRIMARY KEY,
	manufacturer_id TEXT NOT NULL REFERENCES manufacturers(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS parts (
	seq                    BIGSERIAL,
	id                     TEXT PRIMARY KEY,
	part_number            TEXT NOT NULL,
	manufacturer_id        TEXT REFERENCES manufacturers(id),
	manufacturer_name      TEXT,
	alias_used             TEXT,
	submitted_manufacturer TEXT,
	match_status           TEXT,
	match_confidence       DOUBLE PRECISION,
	confidence             DOUBLE PRECISION,
	source_url             TEXT,
	debug_log              TEXT,
	search_stage           TEXT,
	stage_history          JSONB,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_logs (
	id          TEXT PRIMARY KEY,
	provider    TEXT NOT NULL,
	direction   TEXT NOT NULL,
	query       TEXT NOT NULL,
	status_code INTEGER,
	payload     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_manufacturers_name ON manufacturers(lower(name));
CREATE UNIQUE INDEX IF NOT EXISTS idx_aliases_unique ON manufacturer_aliases(manufacturer_id, lower(name));
CREATE INDEX IF NOT EXISTS idx_parts_part_number ON parts(part_number);
CREATE INDEX IF NOT EXISTS idx_search_logs_provider ON search_logs(provider);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SavePart(ctx context.Context, part *model.Part) error {
	if part.ID == "" {
		part.ID = uuid.New().String()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = time.Now().UTC()
	}

	historyJSON, err := json.Marshal(part.StageHistory)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stage history")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO parts (id, part_number, manufacturer_id, manufacturer_name, alias_used,
			submitted_manufacturer, match_status, match_confidence, confidence, source_url,
			debug_log, search_stage, stage_history, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		part.ID, part.PartNumber, part.ManufacturerID, part.ManufacturerName, part.AliasUsed,
		part.SubmittedManufacturer, part.MatchStatus, part.MatchConfidence, part.Confidence,
		part.SourceURL, part.DebugLog, part.SearchStage, string(historyJSON), part.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert part")
}

const pgPartColumns = `id, part_number, manufacturer_id, manufacturer_name, alias_used,
	submitted_manufacturer, match_status, match_confidence, confidence, source_url,
	debug_log, search_stage, stage_history, created_at`

func (s *PostgresStore) LatestPartByNumber(ctx context.Context, partNumber string) (*model.Part, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgPartColumns+` FROM parts WHERE part_number = $1 ORDER BY seq DESC LIMIT 1`,
		partNumber,
	)
	part, err := scanPGPart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get latest part %s", partNumber)
	}
	return part, nil
}

func (s *PostgresStore) ListParts(ctx context.Context, limit, offset int) ([]model.Part, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgPartColumns+` FROM parts ORDER BY seq DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parts")
	}
	defer rows.Close()

	var parts []model.Part
	for rows.Next() {
		part, err := scanPGPart(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan part")
		}
		parts = append(parts, *part)
	}
	return parts, eris.Wrap(rows.Err(), "postgres: iterate parts")
}

func (s *PostgresStore) GetManufacturerByName(ctx context.Context, name string) (*model.Manufacturer, error) {
	var m model.Manufacturer
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM manufacturers WHERE lower(name) = lower($1)`,
		name,
	).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get manufacturer %s", name)
	}
	return &m, nil
}

func (s *PostgresStore) CreateManufacturer(ctx context.Context, name string) (*model.Manufacturer, error) {
	m := model.Manufacturer{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO manufacturers (id, name, created_at) VALUES ($1, $2, $3)`,
		m.ID, m.Name, m.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert manufacturer %s", name)
	}
	return &m, nil
}

func (s *PostgresStore) ListAliases(ctx context.Context, manufacturerID string) ([]model.ManufacturerAlias, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, manufacturer_id, name, created_at FROM manufacturer_aliases WHERE manufacturer_id = $1 ORDER BY created_at`,
		manufacturerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list aliases")
	}
	defer rows.Close()

	var aliases []model.ManufacturerAlias
	for rows.Next() {
		var a model.ManufacturerAlias
		if err := rows.Scan(&a.ID, &a.ManufacturerID, &a.Name, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alias")
		}
		aliases = append(aliases, a)
	}
	return aliases, eris.Wrap(rows.Err(), "postgres: iterate aliases")
}

// AddAlias is idempotent: the unique index on (manufacturer_id,
// lower(name)) absorbs duplicates.
func (s *PostgresStore) AddAlias(ctx context.Context, manufacturerID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO manufacturer_aliases (id, manufacturer_id, name, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (manufacturer_id, lower(name)) DO NOTHING`,
		uuid.New().String(), manufacturerID, name, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert alias %s", name)
}

func (s *PostgresStore) RecordSearchLog(ctx context.Context, entry *model.SearchLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_logs (id, provider, direction, query, status_code, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Provider, entry.Direction, entry.Query, entry.StatusCode, entry.Payload, entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert search log")
}

func (s *PostgresStore) ListSearchLogs(ctx context.Context, limit int) ([]model.SearchLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, provider, direction, query, status_code, payload, created_at FROM search_logs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list search logs")
	}
	defer rows.Close()

	var logs []model.SearchLog
	for rows.Next() {
		var entry model.SearchLog
		if err := rows.Scan(&entry.ID, &entry.Provider, &entry.Direction, &entry.Query, &entry.StatusCode, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search log")
		}
		logs = append(logs, entry)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: iterate search logs")
}

func scanPGPart(row pgx.Row) (*model.Part, error) {
	var (
		part        model.Part
		historyJSON []byte
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
	if len(historyJSON) > 0 && string(historyJSON) != "null" {
		if err := json.Unmarshal(historyJSON, &part.StageHistory); err != nil {
			return nil, eris.Wrap(err, "unmarshal stage history")
		}
	}
	return &part, nil
}
