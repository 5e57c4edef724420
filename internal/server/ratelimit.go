package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/pollwave/pollwave/internal/config"
)

// Idle clients fall out of the limiter store after this long, keeping the
// per-IP bucket map bounded.
const rateLimiterExpiry = 5 * time.Minute

// newAPIRateLimiter limits /api requests per client IP using the rate and
// burst from the configuration. Requests over the budget get a 429 instead
// of queueing.
func newAPIRateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.APIRatePerSecond),
			Burst:     cfg.APIRateBurst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}
