package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/model"
	"github.com/Itecs-company/Alias/internal/search"
	"github.com/Itecs-company/Alias/internal/store"
)

// StoreRecorder writes provider request/response audit entries to the
// store. Write failures are logged and dropped so a broken audit path
// cannot take a resolution down with it.
type StoreRecorder struct {
	store store.Store
}

// NewStoreRecorder builds a store-backed search.Recorder.
func NewStoreRecorder(st store.Store) *StoreRecorder {
	return &StoreRecorder{store: st}
}

func (r *StoreRecorder) Record(ctx context.Context, provider, direction, query string, statusCode *int, payload string) {
	entry := &model.SearchLog{
		ID:         uuid.NewString(),
		Provider:   provider,
		Direction:  direction,
		Query:      query,
		StatusCode: statusCode,
		Payload:    search.Truncate(payload),
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.RecordSearchLog(ctx, entry); err != nil {
		zap.L().Warn("failed to record search log",
			zap.String("provider", provider),
			zap.String("direction", direction),
			zap.Error(err))
	}
}
