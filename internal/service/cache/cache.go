package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// BytesCache stores raw bytes with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a cache key from an operation, its scope (owner, subject, params)
// and the owner's data version. A new version makes older keys unreachable.
// Every part is length-prefixed so no two scopes share a key, whatever
// separators the ids contain.
func Key(op string, version string, scope ...string) string {
	var b strings.Builder
	b.WriteString("herdpulse:")
	b.WriteString(op)
	for _, part := range scope {
		fmt.Fprintf(&b, ":%d:%s", len(part), part)
	}
	fmt.Fprintf(&b, "@%d:%s", len(version), version)
	return b.String()
}

// Memo serves JSON results from a BytesCache, computing each missing key once
// even under concurrent callers.
type Memo struct {
	c   BytesCache
	ttl time.Duration
	sf  singleflight.Group
}

func NewMemo(c BytesCache, ttl time.Duration) *Memo {
	return &Memo{c: c, ttl: ttl}
}

// Get returns the cached JSON for key or marshals the result of compute. hit
// reports whether the bytes came from the cache. Cache read or write failures
// fall through to compute; only compute and marshal errors are returned.
//
// Concurrent callers of one key share a single compute. It runs on a context
// that keeps the first caller's values and deadline but not its cancellation,
// so a caller that goes away only abandons its own wait.
func (m *Memo) Get(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (b []byte, hit bool, err error) {
	if m.c != nil {
		if b, ok, err := m.c.GetBytes(ctx, key); err == nil && ok {
			return b, true, nil
		}
	}

	ch := m.sf.DoChan(key, func() (interface{}, error) {
		cctx := context.WithoutCancel(ctx)
		if dl, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			cctx, cancel = context.WithDeadline(cctx, dl)
			defer cancel()
		}
		res, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		if m.c != nil {
			_ = m.c.SetBytes(cctx, key, b, m.ttl)
		}
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}
