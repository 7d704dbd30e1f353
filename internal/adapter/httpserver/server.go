package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/adapter/metrics"
	"github.com/architgupta225/Anonn-app-sub003/internal/app"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/architgupta225/Anonn-app-sub003/internal/platform/config"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type analyticsService interface {
	GetAnalytics(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*domain.Analytics, error)
	EvaluateRisk(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error)
	Trend(ctx context.Context, orgID uuid.UUID, asOf time.Time, periodDays int) ([]domain.TrendPoint, error)
	Invalidate(ctx context.Context, orgID uuid.UUID) error
	Settings() app.AnalyticsSettings
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	analytics    analyticsService
	healthChecks []HealthCheck

	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics

	clock     clockwork.Clock
	startTime time.Time
}

// NewServer builds the HTTP surface. registry and httpMetrics may be nil, which disables /metrics.
func NewServer(cfg *config.Config, analytics analyticsService, healthChecks []HealthCheck, registry *prometheus.Registry, httpMetrics *metrics.HTTPMetrics, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		analytics:    analytics,
		healthChecks: healthChecks,
		registry:     registry,
		httpMetrics:  httpMetrics,
		clock:        clock,
		startTime:    clock.Now(),
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

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}
