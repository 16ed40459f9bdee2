package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ganarapp/sorteo/internal/config"
	"github.com/ganarapp/sorteo/internal/gateway"
	"github.com/ganarapp/sorteo/internal/postgres"
	"github.com/ganarapp/sorteo/internal/redis"
	postgresrepo "github.com/ganarapp/sorteo/internal/repository/postgres"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
	"github.com/ganarapp/sorteo/internal/service"
	"github.com/ganarapp/sorteo/internal/service/registry"
	"github.com/ganarapp/sorteo/internal/sweeper"
	httpgin "github.com/ganarapp/sorteo/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	sweeper    *sweeper.Sweeper
	pubsub     *redisrepo.TicketsPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewTicketsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	accessCodes := redisrepo.NewAccessCodeStore(rdb, cfg.Core.AccessCodeTTL)

	gateways, err := gateway.NewRegistry(cfg.Core.EnabledGateways)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateways: %w", err)
	}

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, accessCodes, service.Config{
		Registry: registry.Config{},
	})

	sw := sweeper.New(services.Registry, logger, sweeper.Config{
		Interval: cfg.Core.SweepInterval,
		TTL:      cfg.Core.ReservationTTL,
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, gateways, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		sweeper: sw,
		pubsub:  pubsub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Start reservation sweeper
	g.Go(func() error {
		if err := a.sweeper.Run(gCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("sweeper stopped: %w", err)
		}
		return nil
	})

	// Mirror ticket-change broadcasts into the log. Live availability
	// views consume the same channel.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, number string) {
			a.logger.Info("ticket changed", "number", number)
		})
		if err != nil && err != context.Canceled {
			return fmt.Errorf("pubsub subscriber stopped: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
