package repository

import (
	"context"

	"HerdPulse/internal/domain/models"
)

// Storage persists production records. Store registers the record's subject
// when the backend has not seen it yet.
type Storage interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, r *models.YieldRecord) error
	StoreBatch(ctx context.Context, records []*models.YieldRecord) error
	UpsertSubject(ctx context.Context, s models.Subject) error
	Health(ctx context.Context) error
	Close() error
}

// YieldStore is a backend serving both the ingest path and analytics reads.
type YieldStore interface {
	HistoryProvider
	Storage
}

type Publisher interface {
	Publish(ctx context.Context, r *models.YieldRecord) error
	PublishBatch(ctx context.Context, records []*models.YieldRecord) error
	Close() error
}

type Metrics interface {
	RecordMessageSent(backend, owner string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
