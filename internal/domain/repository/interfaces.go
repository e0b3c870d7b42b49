package repository

import (
	"context"
	"errors"
	"time"

	"LPQuant/internal/domain/models"
)

var ErrPoolNotFound = errors.New("pool not found")

// EventSource pages through on-chain swap events.
type EventSource interface {
	FetchEvents(ctx context.Context, eventType, cursor string, limit int) (*models.EventPage, error)
}

// Publisher fans parsed swaps out to a message bus.
type Publisher interface {
	Publish(ctx context.Context, s *models.Swap) error
	PublishBatch(ctx context.Context, swaps []*models.Swap) error
	Close() error
}

// SwapStore persists swaps, aggregated bars and the poller cursor.
type SwapStore interface {
	Init(ctx context.Context) error // ensure tables
	InsertSwaps(ctx context.Context, swaps []*models.Swap) (int, error)
	UpsertBars(ctx context.Context, bars []models.Bar) error
	GetBars(ctx context.Context, poolID string, iv Interval, from, to time.Time, limit int) ([]models.Bar, error)
	GetSwaps(ctx context.Context, poolID string, from, to time.Time) ([]*models.Swap, error)
	GetCursor(ctx context.Context) (string, error)
	SetCursor(ctx context.Context, cursor string) error
	Stats(ctx context.Context) (*models.IndexerStats, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records ingestion activity.
type Metrics interface {
	RecordSwapsIngested(backend, poolID string, n int)
	RecordError(kind string)
	RecordLastPrice(poolID string, price float64)
	RecordLatency(op string, seconds float64)
}
