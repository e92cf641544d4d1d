package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	applogger "HerdPulse/pkg/logger"
)

// ErrBufferFull is returned when downstream failed and no buffer slot was free.
var ErrBufferFull = errors.New("publish buffer full")

// PublishBuffer sits between the ingest use case and the Kafka publisher. It
// validates records and, when the broker rejects one, keeps it in a bounded
// buffer that a background loop retries with exponential backoff.
type PublishBuffer struct {
	next       domrepo.Publisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
	bufSize    int
	backoffMin time.Duration
	backoffMax time.Duration
	bufCh      chan *models.YieldRecord
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	started    bool
}

var _ domrepo.Publisher = (*PublishBuffer)(nil)

type BufferOption func(*PublishBuffer)

// WithBufferSize sets how many records may wait for a retry.
func WithBufferSize(n int) BufferOption {
	return func(p *PublishBuffer) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff bounds the delay between retries of a failing record.
func WithBackoff(min, max time.Duration) BufferOption {
	return func(p *PublishBuffer) {
		if min > 0 && max >= min {
			p.backoffMin, p.backoffMax = min, max
		}
	}
}

func WithBufferLogger(l *applogger.Logger) BufferOption {
	return func(p *PublishBuffer) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPublishBuffer(next domrepo.Publisher, metrics domrepo.Metrics, opts ...BufferOption) *PublishBuffer {
	p := &PublishBuffer{
		next:       next,
		metrics:    metrics,
		log:        applogger.Nop(),
		bufSize:    1000,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.YieldRecord, p.bufSize)
	return p
}

// Start launches the retry loop. It is a no-op when already running.
func (p *PublishBuffer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.wg.Add(1)
	go p.retryLoop(ctx)
}

func (p *PublishBuffer) retryLoop(ctx context.Context) {
	defer p.wg.Done()
	backoff := p.backoffMin
	for {
		select {
		case <-p.stopCh:
			return
		case r := <-p.bufCh:
			if err := p.next.Publish(ctx, r); err != nil {
				p.metrics.RecordError("buffer_retry")
				if backoff < p.backoffMax {
					backoff *= 2
					if backoff > p.backoffMax {
						backoff = p.backoffMax
					}
				}
				p.enqueue(r)
				select {
				case <-p.stopCh:
					return
				case <-time.After(backoff):
				}
				continue
			}
			backoff = p.backoffMin
			p.metrics.RecordMessageSent("kafka_retry", r.OwnerID)
		}
	}
}

func (p *PublishBuffer) Publish(ctx context.Context, r *models.YieldRecord) error {
	if err := validateRecord(r); err != nil {
		p.metrics.RecordError("buffer_validate")
		return err
	}
	if err := p.next.Publish(ctx, r); err != nil {
		p.metrics.RecordError("buffer_publish")
		if !p.enqueue(r) {
			return fmt.Errorf("%w: %v", ErrBufferFull, err)
		}
		p.log.Warn("publish failed, record buffered",
			applogger.String("owner_id", r.OwnerID),
			applogger.String("subject_id", r.SubjectID),
			applogger.Error(err),
		)
	}
	return nil
}

// PublishBatch buffers the whole batch when the broker rejects it.
func (p *PublishBuffer) PublishBatch(ctx context.Context, records []*models.YieldRecord) error {
	for _, r := range records {
		if err := validateRecord(r); err != nil {
			p.metrics.RecordError("buffer_validate")
			return err
		}
	}
	if err := p.next.PublishBatch(ctx, records); err != nil {
		p.metrics.RecordError("buffer_publish_batch")
		for i, r := range records {
			if !p.enqueue(r) {
				return fmt.Errorf("%w after %d of %d records: %v", ErrBufferFull, i, len(records), err)
			}
		}
		p.log.Warn("publish batch failed, records buffered", applogger.Int("count", len(records)), applogger.Error(err))
	}
	return nil
}

// Pending reports how many records wait for a retry.
func (p *PublishBuffer) Pending() int { return len(p.bufCh) }

// Close stops the retry loop, makes one last attempt for buffered records and
// closes the downstream publisher.
func (p *PublishBuffer) Close() error {
	p.mu.Lock()
	if p.started {
		p.started = false
		close(p.stopCh)
	}
	p.mu.Unlock()
	p.wg.Wait()

	dropped := 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for len(p.bufCh) > 0 {
		r := <-p.bufCh
		if err := p.next.Publish(ctx, r); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		p.metrics.RecordError("buffer_drop")
		p.log.Error("buffered records dropped on close", applogger.Int("count", dropped))
	}
	return p.next.Close()
}

func (p *PublishBuffer) enqueue(r *models.YieldRecord) bool {
	select {
	case p.bufCh <- r:
		return true
	default:
		p.metrics.RecordError("buffer_full")
		return false
	}
}

func validateRecord(r *models.YieldRecord) error {
	if r == nil {
		return fmt.Errorf("record nil")
	}
	if r.OwnerID == "" || r.SubjectID == "" {
		return fmt.Errorf("owner and subject are required")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date missing")
	}
	if r.Morning < 0 || r.Afternoon < 0 {
		return fmt.Errorf("negative yield")
	}
	return nil
}
