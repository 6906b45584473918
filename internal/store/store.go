// Package store persists resolution records, canonical manufacturers
// and the provider audit log behind one interface with SQLite and
// Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Itecs-company/Alias/internal/model"
)

// Store is the persistence boundary of the resolution pipeline.
// Lookup methods return (nil, nil) when no row matches.
type Store interface {
	// Parts
	SavePart(ctx context.Context, part *model.Part) error
	LatestPartByNumber(ctx context.Context, partNumber string) (*model.Part, error)
	ListParts(ctx context.Context, limit, offset int) ([]model.Part, error)

	// Manufacturers and aliases
	GetManufacturerByName(ctx context.Context, name string) (*model.Manufacturer, error)
	CreateManufacturer(ctx context.Context, name string) (*model.Manufacturer, error)
	ListAliases(ctx context.Context, manufacturerID string) ([]model.ManufacturerAlias, error)
	AddAlias(ctx context.Context, manufacturerID, name string) error

	// Audit log
	RecordSearchLog(ctx context.Context, entry *model.SearchLog) error
	ListSearchLogs(ctx context.Context, limit int) ([]model.SearchLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
