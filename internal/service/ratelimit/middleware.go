package ratelimit

import (
	xhttp "HerdPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c echo.Context) string

// OwnerOrIP charges requests to their owner_id when present, else the client IP.
func OwnerOrIP(c echo.Context) string {
	if owner := c.QueryParam("owner_id"); owner != "" {
		return "owner:" + owner
	}
	return "ip:" + c.RealIP()
}

// Middleware answers 429 once a key has spent its bucket.
func Middleware(l *Limiter, key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = OwnerOrIP
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(key(c)) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
