package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu      sync.Mutex
	batches [][]DigestEntry
}

func (s *memSink) SendDigest(_ context.Context, entries []DigestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, entries)
	return nil
}

func (s *memSink) all() []DigestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DigestEntry
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func TestDigest_FoldsRepeats(t *testing.T) {
	sink := &memSink{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxEntries: 10, Sink: sink})

	l := Nop()
	l.AttachDigest(d)
	for i := 0; i < 3; i++ {
		l.Error("store failed", String("owner_id", "o1"), Error(errors.New("boom")))
	}
	l.Warn("slow query", Int("rows", 5))
	l.Info("not collected")

	assert.Equal(t, 2, d.Pending())
	d.Close()

	entries := sink.all()
	require.Len(t, entries, 2)
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 3, counts["store failed"])
	assert.Equal(t, 1, counts["slow query"])
}

func TestDigest_FlushesAtThreshold(t *testing.T) {
	sink := &memSink{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxEntries: 2, Sink: sink})
	defer d.Close()

	d.Add("error", "a", nil, "x.go:1")
	d.Add("error", "b", nil, "x.go:2")

	assert.Zero(t, d.Pending())
	assert.Len(t, sink.all(), 2)
}
