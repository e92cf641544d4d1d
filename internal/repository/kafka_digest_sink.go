package repository

import (
	"context"
	"fmt"

	pkgkafka "HerdPulse/pkg/kafka"
	applogger "HerdPulse/pkg/logger"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaDigestSink ships log digests to a Kafka topic, one message per entry keyed
// by level, so operators can alert on repeated warnings without scraping logs.
type KafkaDigestSink struct {
	producer batchPublisher
	topic    string
	service  string
}

var _ applogger.DigestSink = (*KafkaDigestSink)(nil)

func NewKafkaDigestSink(producer *pkgkafka.Producer, topic, service string) *KafkaDigestSink {
	return &KafkaDigestSink{producer: producer, topic: topic, service: service}
}

type digestMessage struct {
	Service string `json:"service"`
	applogger.DigestEntry
}

func (s *KafkaDigestSink) SendDigest(ctx context.Context, entries []applogger.DigestEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(s.service + "/" + e.Level),
			Value: digestMessage{Service: s.service, DigestEntry: e},
		})
	}
	if err := s.producer.PublishBatch(ctx, s.topic, msgs); err != nil {
		return fmt.Errorf("publish log digest: %w", err)
	}
	return nil
}
