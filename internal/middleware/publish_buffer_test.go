package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"HerdPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type flakyPublisher struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	sent      []*models.YieldRecord
	closed    bool
}

func (f *flakyPublisher) Publish(_ context.Context, r *models.YieldRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, r)
	return nil
}

func (f *flakyPublisher) PublishBatch(ctx context.Context, records []*models.YieldRecord) error {
	for _, r := range records {
		if err := f.Publish(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *flakyPublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *flakyPublisher) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLatency(string, float64)    {}

func record(subject string) *models.YieldRecord {
	r := models.NewYieldRecord("farm-1", subject, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10, 8)
	return &r
}

func TestPublishBuffer_PassThrough(t *testing.T) {
	next := &flakyPublisher{}
	buf := NewPublishBuffer(next, nopMetrics{})

	require.NoError(t, buf.Publish(context.Background(), record("cow-1")))
	assert.Equal(t, 1, next.delivered())
	assert.Equal(t, 0, buf.Pending())
	require.NoError(t, buf.Close())
	assert.True(t, next.closed)
}

func TestPublishBuffer_RetriesAfterFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	next := &flakyPublisher{failFirst: 2}
	buf := NewPublishBuffer(next, nopMetrics{}, WithBackoff(time.Millisecond, 5*time.Millisecond))
	buf.Start(context.Background())

	require.NoError(t, buf.Publish(context.Background(), record("cow-1")))
	assert.Eventually(t, func() bool { return next.delivered() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, buf.Close())
}

func TestPublishBuffer_Full(t *testing.T) {
	next := &flakyPublisher{failFirst: 100}
	buf := NewPublishBuffer(next, nopMetrics{}, WithBufferSize(1))

	require.NoError(t, buf.Publish(context.Background(), record("cow-1")))
	err := buf.Publish(context.Background(), record("cow-2"))
	require.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, 1, buf.Pending())
}

func TestPublishBuffer_CloseFlushes(t *testing.T) {
	next := &flakyPublisher{failFirst: 1}
	buf := NewPublishBuffer(next, nopMetrics{})

	require.NoError(t, buf.Publish(context.Background(), record("cow-1")))
	assert.Equal(t, 1, buf.Pending())
	require.NoError(t, buf.Close())
	assert.Equal(t, 1, next.delivered())
	assert.True(t, next.closed)
}

func TestPublishBuffer_RejectsInvalid(t *testing.T) {
	next := &flakyPublisher{}
	buf := NewPublishBuffer(next, nopMetrics{})

	bad := record("")
	assert.Error(t, buf.Publish(context.Background(), bad))
	neg := record("cow-1")
	neg.Morning = -1
	assert.Error(t, buf.PublishBatch(context.Background(), []*models.YieldRecord{record("cow-2"), neg}))
	assert.Equal(t, 0, next.delivered())
}
