package repository

import (
	"context"
	"time"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/repository"
	pkgkafka "HerdPulse/pkg/kafka"

	"github.com/google/uuid"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by subject so
// one animal's days stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.YieldRecord) error {
	return p.producer.Publish(ctx, p.topic, subjectKey(r), newYieldEvent(r))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, records []*models.YieldRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: subjectKey(r), Value: newYieldEvent(r)})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func subjectKey(r *models.YieldRecord) []byte {
	return []byte(r.OwnerID + "/" + r.SubjectID)
}

func newYieldEvent(r *models.YieldRecord) models.YieldEvent {
	return models.YieldEvent{
		EventID:   uuid.NewString(),
		OwnerID:   r.OwnerID,
		SubjectID: r.SubjectID,
		Date:      models.Day(r.Date).Format(models.DateLayout),
		Morning:   r.Morning,
		Afternoon: r.Afternoon,
		Total:     r.Total,
		SentAt:    time.Now().UnixMilli(),
	}
}
