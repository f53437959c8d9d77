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

	"github.com/bharatgolchha/liveconvo/internal/adapter/httpserver"
	"github.com/bharatgolchha/liveconvo/internal/adapter/ingest"
	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	natsadapter "github.com/bharatgolchha/liveconvo/internal/adapter/nats"
	"github.com/bharatgolchha/liveconvo/internal/adapter/redis"
	"github.com/bharatgolchha/liveconvo/internal/adapter/websocket"
	"github.com/bharatgolchha/liveconvo/internal/app"
	"github.com/bharatgolchha/liveconvo/internal/broadcast"
	"github.com/bharatgolchha/liveconvo/internal/platform/config"
	"github.com/bharatgolchha/liveconvo/internal/platform/logging"
	"github.com/bharatgolchha/liveconvo/internal/platform/version"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// source is a transcript subscriber that runs until its context ends.
type source func(ctx context.Context) error

type sources struct {
	runs    []source
	checks  []httpserver.HealthCheck
	closers []func()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupHub(cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) *broadcast.Hub {
	registry := broadcast.NewMemoryRegistry(clock, cfg.BufferCapacity)
	return broadcast.NewHub(registry, clock, broadcast.Config{
		MaxConnectionsPerSession: cfg.MaxConnectionsPerSession,
		SendQueueSize:            cfg.SendQueueSize,
		SlowConsumerLag:          cfg.SlowConsumerLag,
		IdleTimeout:              cfg.IdleTimeout,
		ReapInterval:             cfg.ReapInterval,
	}, metrics.NewHubMetrics(reg))
}

func setupSources(ctx context.Context, cfg *config.Config, appSvc *app.Service, clock clockwork.Clock, reg prometheus.Registerer) sources {
	var out sources
	ingestMetrics := metrics.NewIngestMetrics(reg)

	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL,
			redis.NewMetricsHook(metrics.NewRedisMetrics(reg), clock),
			redis.NewCircuitBreakerHook(metrics.NewBreakerMetrics(reg)),
		)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		sub := redis.NewIngestSubscriber(rdb, cfg.RedisChannelPattern, ingest.NewHandler(redis.Source, appSvc, ingestMetrics))
		out.runs = append(out.runs, sub.Run)
		out.checks = append(out.checks, httpserver.HealthCheck{Name: redis.Source, Check: redis.HealthCheck(rdb)})
		out.closers = append(out.closers, func() { _ = rdb.Close() })
	}

	if cfg.NATSURL != "" {
		nc, err := natsadapter.Connect(cfg.NATSURL)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		sub := natsadapter.NewSubscriber(nc, cfg.NATSSubject, ingest.NewHandler(natsadapter.Source, appSvc, ingestMetrics))
		out.runs = append(out.runs, sub.Run)
		out.checks = append(out.checks, httpserver.HealthCheck{Name: natsadapter.Source, Check: natsadapter.HealthCheck(nc)})
		out.closers = append(out.closers, nc.Close)
	}

	return out
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	reg := metrics.NewRegistry()

	hub := setupHub(cfg, clock, reg)
	appSvc := app.NewService(hub)

	src := setupSources(ctx, cfg, appSvc, clock, reg)
	defer func() {
		for _, c := range src.closers {
			c()
		}
	}()

	wsHandler := websocket.NewHandler(
		appSvc,
		clock,
		websocket.NewCheckOrigin(cfg.Origins(), !cfg.IsProduction()),
		websocket.NewLimits(clock, int64(cfg.MaxWebSocketConnections)),
		metrics.NewWebSocketMetrics(reg),
	)

	srv := httpserver.NewServer(cfg, appSvc, wsHandler,
		httpserver.WithMetrics(metrics.NewHTTPMetrics(reg), metrics.Handler(reg)),
		httpserver.WithHealthChecks(src.checks...),
		httpserver.WithClock(clock),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	for _, run := range src.runs {
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		// Close sessions first so subscribers receive a close frame before the listener goes away.
		hub.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
