package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/app"
	"github.com/pollwave/pollwave/internal/auth"
	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/logging"
	"github.com/pollwave/pollwave/internal/poll"
	"github.com/pollwave/pollwave/internal/postgres"
	"github.com/pollwave/pollwave/internal/results"
	"github.com/pollwave/pollwave/internal/server"
	"github.com/pollwave/pollwave/internal/version"
	"github.com/pollwave/pollwave/internal/vote"
	"github.com/pollwave/pollwave/internal/websocket"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server, hub *websocket.Hub, stopSweeper context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopSweeper()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	build := version.Get()
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"port", cfg.Port,
		"version", build.Version,
		"commit", build.Commit,
	)

	pool := setupDB(cfg)
	defer pool.Close()

	userRepo := postgres.NewUserRepo(pool)
	pollRepo := postgres.NewPollRepo(pool)
	voteRepo := postgres.NewVoteRepo(pool)

	hub := websocket.NewHub(clock, cfg.MaxSubscribersPerPoll)

	aggregator := results.NewAggregator(pollRepo, voteRepo)
	ledger := vote.NewLedger(userRepo, pollRepo, voteRepo, aggregator, hub, clock)
	lifecycle := poll.NewLifecycle(pollRepo, clock)

	appSvc := app.NewService(userRepo, pollRepo, voteRepo, ledger, lifecycle, aggregator, clock)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := app.NewSweeper(lifecycle, clock, cfg.SweepInterval)
	go sweeper.Run(sweeperCtx)

	tokens := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL, clock)

	srv := server.NewServer(cfg, appSvc, hub, tokens, pool)

	done := runGracefulShutdown(srv, hub, stopSweeper)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
