package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/model"
	"github.com/Itecs-company/Alias/internal/store"
)

// Resolver owns the canonical manufacturer table: lazy creation on
// first sight of a new name, idempotent alias accumulation.
type Resolver struct {
	store store.Store
}

// NewResolver builds a Resolver over the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the manufacturer row for canonicalName, creating it
// when no case-insensitive match exists.
func (r *Resolver) Resolve(ctx context.Context, canonicalName string) (*model.Manufacturer, error) {
	name := strings.TrimSpace(canonicalName)
	if name == "" {
		return nil, eris.New("pipeline: empty manufacturer name")
	}

	m, err := r.store.GetManufacturerByName(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: lookup manufacturer")
	}
	if m != nil {
		return m, nil
	}

	m, err = r.store.CreateManufacturer(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create manufacturer")
	}
	zap.L().Info("created manufacturer", zap.String("name", name), zap.String("id", m.ID))
	return m, nil
}

// SyncAliases attaches aliasNames to the manufacturer, skipping names
// already present case-insensitively and names equal to the canonical
// form. Calling twice with the same aliases is a no-op the second time.
func (r *Resolver) SyncAliases(ctx context.Context, m *model.Manufacturer, aliasNames []string) error {
	if len(aliasNames) == 0 {
		return nil
	}

	existing, err := r.store.ListAliases(ctx, m.ID)
	if err != nil {
		return eris.Wrap(err, "pipeline: list aliases")
	}
	have := make(map[string]struct{}, len(existing)+1)
	have[strings.ToLower(m.Name)] = struct{}{}
	for _, a := range existing {
		have[strings.ToLower(a.Name)] = struct{}{}
	}

	for _, name := range aliasNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := have[strings.ToLower(name)]; ok {
			continue
		}
		if err := r.store.AddAlias(ctx, m.ID, name); err != nil {
			return eris.Wrapf(err, "pipeline: add alias %q", name)
		}
		have[strings.ToLower(name)] = struct{}{}
	}
	return nil
}
