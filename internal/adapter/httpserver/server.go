package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/bharatgolchha/liveconvo/internal/platform/config"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

type appService interface {
	IngestSegment(ctx context.Context, sessionID, speakerTag, text string) (uint64, error)
	OpenSession(ctx context.Context, sessionID, label string) (domain.SessionSummary, error)
	Classify(label string) (domain.ConversationType, error)
	CloseSession(ctx context.Context, sessionID string) bool
	Session(ctx context.Context, sessionID string) (domain.SessionSummary, error)
	ActiveSessions(ctx context.Context) []domain.SessionSummary
	Connections(ctx context.Context, sessionID string) ([]domain.ConnectionInfo, error)
}

// subscriptionHandler serves one upgraded subscriber; see websocket.Handler.
type subscriptionHandler interface {
	Serve(w http.ResponseWriter, r *http.Request, clientIP, sessionID string, lastSeen *uint64) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	app          appService
	subscribers  subscriptionHandler
	httpMetrics  *metrics.HTTPMetrics
	metricsPage  http.Handler
	healthChecks []HealthCheck
	startTime    time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves reg-backed /metrics.
func WithMetrics(m *metrics.HTTPMetrics, page http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsPage = page
	}
}

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) {
		s.healthChecks = append(s.healthChecks, checks...)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

func NewServer(cfg *config.Config, app appService, subscribers subscriptionHandler, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:        e,
		config:      cfg,
		clock:       clockwork.NewRealClock(),
		app:         app,
		subscribers: subscribers,
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.startTime = srv.clock.Now()

	srv.registerRoutes()
	return srv
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
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
