package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/pollwave/pollwave/internal/auth"
	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/websocket"
)

func TestAPIRateLimiterDeniesBeyondBurst(t *testing.T) {
	cfg := testConfig()
	cfg.APIRatePerSecond = 1
	cfg.APIRateBurst = 2

	clock := clockwork.NewRealClock()
	tokens := auth.NewTokens(testTokenSecret, time.Hour, clock)
	hub := websocket.NewHub(clock, 100)
	t.Cleanup(func() { hub.Stop() })

	appSvc := &mockAppService{
		listPollsFn: func(context.Context, domain.ListPollsParams) ([]*domain.Poll, int, error) {
			return nil, 0, nil
		},
	}
	srv := NewServer(cfg, appSvc, hub, tokens, &mockHealthChecker{})

	for range 2 {
		rec := doRequest(srv, http.MethodGet, "/api/polls", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(srv, http.MethodGet, "/api/polls", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthEndpointsBypassRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.APIRatePerSecond = 1
	cfg.APIRateBurst = 1

	clock := clockwork.NewRealClock()
	tokens := auth.NewTokens(testTokenSecret, time.Hour, clock)
	hub := websocket.NewHub(clock, 100)
	t.Cleanup(func() { hub.Stop() })

	srv := NewServer(cfg, &mockAppService{}, hub, tokens, &mockHealthChecker{})

	for range 5 {
		rec := doRequest(srv, http.MethodGet, "/health/live", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
