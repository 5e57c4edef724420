package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pollwave/pollwave/internal/app"
	"github.com/pollwave/pollwave/internal/auth"
	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/domain"
	"github.com/pollwave/pollwave/internal/websocket"
)

type appService interface {
	CreateUser(ctx context.Context, name, email, secretHash string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreatePoll(ctx context.Context, creatorID uuid.UUID, req app.CreatePollRequest) (*domain.Poll, error)
	GetPoll(ctx context.Context, pollID, viewerID uuid.UUID) (*domain.Poll, *domain.ResultSnapshot, *uuid.UUID, error)
	ListPolls(ctx context.Context, params domain.ListPollsParams) ([]*domain.Poll, int, error)
	ClosePoll(ctx context.Context, pollID, requesterID uuid.UUID) error
	Results(ctx context.Context, pollID uuid.UUID) (*domain.ResultSnapshot, error)
	CastVote(ctx context.Context, voterID, pollID, optionID uuid.UUID) (*domain.Vote, error)
	RetractVote(ctx context.Context, voterID, pollID uuid.UUID) error
}

type healthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app    appService
	hub    *websocket.Hub
	tokens *auth.Tokens

	dbHealth  healthChecker
	startTime time.Time
}

func NewServer(cfg *config.Config, app appService, hub *websocket.Hub, tokens *auth.Tokens, dbHealth healthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		hub:       hub,
		tokens:    tokens,
		dbHealth:  dbHealth,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
