package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/pollwave/pollwave/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(requestID)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())

	rateLimiter := newAPIRateLimiter(s.config)

	// Observability endpoints, no auth
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api", rateLimiter)

	// Users and auth
	api.POST("/users", s.handleCreateUser)
	api.GET("/users", s.handleListUsers, s.requireAuth)
	api.POST("/auth/login", s.handleLogin)

	// Polls
	api.GET("/polls", s.handleListPolls)
	api.POST("/polls", s.handleCreatePoll, s.requireAuth)
	api.GET("/polls/:id", s.handleGetPoll)
	api.GET("/polls/:id/results", s.handlePollResults)
	api.POST("/polls/:id/close", s.handleClosePoll, s.requireAuth)

	// Votes
	api.POST("/polls/:id/votes", s.handleCastVote, s.requireAuth)
	api.DELETE("/polls/:id/votes", s.handleRetractVote, s.requireAuth)

	// Realtime subscription endpoint, no rate limiter: it holds one
	// long-lived connection instead of issuing repeated requests.
	s.echo.GET("/ws", s.handleWebSocket)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
