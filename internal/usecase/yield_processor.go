package usecase

import (
	"context"
	"fmt"
	"time"

	"HerdPulse/internal/domain/models"
	drepo "HerdPulse/internal/domain/repository"
)

// Ingest backends.
const (
	BackendDirect = "direct"
	BackendKafka  = "kafka"
)

// YieldProcessor accepts production records and routes them to the configured backend.
type YieldProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

func NewYieldProcessor(pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, backend string) *YieldProcessor {
	return &YieldProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Backend reports where records go.
func (p *YieldProcessor) Backend() string { return p.backend }

// Record turns a validated request into a record and processes it.
func (p *YieldProcessor) Record(ctx context.Context, req models.YieldRequest) (*models.YieldRecord, error) {
	d, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	r := models.NewYieldRecord(req.OwnerID, req.SubjectID, d, req.Morning, req.Afternoon)
	if err := p.Process(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *YieldProcessor) Process(ctx context.Context, r *models.YieldRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.Publish(ctx, r)
	case BackendDirect:
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process record: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, r.OwnerID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

func (p *YieldProcessor) ProcessBatch(ctx context.Context, records []*models.YieldRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, records)
	case BackendDirect:
		err = p.store.StoreBatch(ctx, records)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, r := range records {
		p.metrics.RecordMessageSent(p.backend, r.OwnerID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// LabelSubject registers a subject or renames it. Labels always go straight to
// the store, whatever the record backend.
func (p *YieldProcessor) LabelSubject(ctx context.Context, req models.SubjectRequest) (models.Subject, error) {
	s := models.Subject{ID: req.SubjectID, OwnerID: req.OwnerID, Label: req.Label}
	if p.store == nil {
		return s, fmt.Errorf("label subject: no store configured")
	}
	if err := p.store.UpsertSubject(ctx, s); err != nil {
		p.metrics.RecordError("label_subject")
		return s, fmt.Errorf("label subject: %w", err)
	}
	return s, nil
}

// Close releases the publisher. The store is shared and closed by its owner.
func (p *YieldProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
}
