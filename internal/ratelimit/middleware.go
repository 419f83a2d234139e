package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
)

// HitRecorder is notified of rejected requests.
type HitRecorder interface {
	RecordRateLimitHit(route string)
}

// Rule is a budget for one route.
type Rule struct {
	Route  string
	Limit  int
	Window time.Duration
}

// Middleware rejects requests beyond rule.Limit per client IP and window with ErrRateLimited.
func Middleware(limiter Limiter, rule Rule, recorder HitRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || rule.Limit <= 0 {
				return next(c)
			}

			key := rule.Route + ":" + c.RealIP()
			d := limiter.Allow(c.Request().Context(), key, rule.Limit, rule.Window)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining(rule.Limit)))
			if d.Allowed {
				return next(c)
			}

			h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
			if recorder != nil {
				recorder.RecordRateLimitHit(rule.Route)
			}
			return oops.Code("RATE_LIMITED").
				With("route", rule.Route, "ip", c.RealIP()).
				Wrap(apperrors.ErrRateLimited)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
