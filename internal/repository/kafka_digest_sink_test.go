package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgkafka "HerdPulse/pkg/kafka"
	applogger "HerdPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (p *recordingProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)
	return p.err
}

func TestKafkaDigestSink_OneMessagePerEntry(t *testing.T) {
	p := &recordingProducer{}
	s := &KafkaDigestSink{producer: p, topic: "herdpulse.log-digest", service: "api"}
	now := time.Now()

	err := s.SendDigest(context.Background(), []applogger.DigestEntry{
		{Level: "warn", Message: "analytics: not enough data", Count: 4, FirstSeen: now, LastSeen: now},
		{Level: "error", Message: "analytics: failed", Count: 1, FirstSeen: now, LastSeen: now},
	})
	require.NoError(t, err)
	assert.Equal(t, "herdpulse.log-digest", p.topic)
	require.Len(t, p.msgs, 2)
	assert.Equal(t, "api/warn", string(p.msgs[0].Key))

	m, ok := p.msgs[0].Value.(digestMessage)
	require.True(t, ok)
	assert.Equal(t, "api", m.Service)
	assert.Equal(t, 4, m.Count)
}

func TestKafkaDigestSink_EmptyAndErrors(t *testing.T) {
	p := &recordingProducer{err: errors.New("broker down")}
	s := &KafkaDigestSink{producer: p, topic: "t", service: "api"}

	require.NoError(t, s.SendDigest(context.Background(), nil))
	assert.Empty(t, p.msgs)

	err := s.SendDigest(context.Background(), []applogger.DigestEntry{{Level: "warn"}})
	assert.ErrorContains(t, err, "broker down")
}
