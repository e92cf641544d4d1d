package repository

import (
	"context"
	"time"

	"HerdPulse/internal/domain/models"
)

// HistoryQuery selects yield records of one owner, optionally narrowed to a subject.
// Every non-empty filter applies.
type HistoryQuery struct {
	SubjectID string
	OwnerID   string
	From      *time.Time
	To        *time.Time
	Order     Order
	Limit     int // 0 means no limit
}

// HistoryProvider provides read-only access to production history for analytics.
type HistoryProvider interface {
	FetchRecords(ctx context.Context, q HistoryQuery) ([]models.YieldRecord, error)
	ListSubjects(ctx context.Context, ownerID string) ([]models.Subject, error)
	// DataVersion changes whenever any record of the owner changes.
	DataVersion(ctx context.Context, ownerID string) (string, error)
}
