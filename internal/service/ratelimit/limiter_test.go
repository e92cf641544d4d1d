package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func fixedClock(l *Limiter, at *time.Time) {
	l.now = func() time.Time { return *at }
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	fixedClock(l, &now)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	fixedClock(l, &now)

	l.Allow("old")
	now = now.Add(time.Hour)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Sweep(time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware_Answers429(t *testing.T) {
	e := echo.New()
	e.Use(Middleware(New(1, 0.001), nil))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	do := func(owner string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?owner_id="+owner, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("farm-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("farm-1"))
	assert.Equal(t, http.StatusNoContent, do("farm-2"))
}
