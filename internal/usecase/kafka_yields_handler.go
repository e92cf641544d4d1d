package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	pkgkafka "HerdPulse/pkg/kafka"
)

// KafkaYieldsHandler consumes ingest events and writes them to storage.
type KafkaYieldsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaYieldsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaYieldsHandler {
	return &KafkaYieldsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaYieldsHandler) Topic() string { return h.topic }

func (h *KafkaYieldsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.YieldEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode yield event: %w", err)
	}
	if ev.OwnerID == "" || ev.SubjectID == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("yield event %s: owner_id and subject_id required", ev.EventID)
	}
	r, err := ev.Record()
	if err != nil {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("yield event %s: %w", ev.EventID, err)
	}
	if ev.SentAt > 0 {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.UnixMilli(ev.SentAt)).Seconds())
	}

	start := time.Now()
	err = h.storage.Store(ctx, &r)
	h.metrics.RecordLatency("store_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("store", r.OwnerID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaYieldsHandler)(nil)
