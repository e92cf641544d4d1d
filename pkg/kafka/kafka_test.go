package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWithJitter(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, max)
	}
	assert.LessOrEqual(t, backoffWithJitter(min, max, 1), min)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encodeValue(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = encodeValue(make(chan int))
	assert.Error(t, err)
}

func TestHookChain_OrderAndPanics(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(d, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "xab", string(data))
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	panicky := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
	})
	_, _, _, err = panicky.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestTraceAndRejectEmptyHooks(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := TraceHook().BeforeHandle(context.Background(), "t", km, []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "abc", ctx.Value(CtxTraceID))

	_, _, _, err = RejectEmptyHook().BeforeHandle(context.Background(), "t", km, nil)
	assert.Error(t, err)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)

	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, 4, c.cfg.WorkerCount)
	assert.Error(t, c.Start())
}

func TestProducerConfig(t *testing.T) {
	cfg := defaultProducerConfig()
	assert.Error(t, cfg.validate(), "brokers missing")

	for _, opt := range []ProducerOption{
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithDelivery(1, 0),
		WithBatching(500, 0, 50*time.Millisecond),
		WithKeyPartitioning(false),
	} {
		opt(&cfg)
	}
	require.NoError(t, cfg.validate())
	assert.Equal(t, 3, cfg.MaxAttempts)

	w := cfg.writer()
	assert.Equal(t, kafka.Zstd, w.Compression)
	assert.Equal(t, 500, w.BatchSize)
	assert.Equal(t, int64(1<<20), w.BatchBytes)
	assert.Equal(t, 50*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)

	cfg.Compression = "brotli"
	assert.Error(t, cfg.validate())
	cfg.Compression = "gzip"
	cfg.RequiredAcks = 2
	assert.Error(t, cfg.validate())
}
