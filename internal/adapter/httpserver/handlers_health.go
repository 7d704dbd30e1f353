package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

const (
	statusReady     = "ready"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	checkOK         = "ok"
)

// HealthCheck is a named dependency check. A failing critical check (the review store)
// makes the instance unready. A failing optional one (the shared Redis cache) only
// degrades it.
type HealthCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

type healthResponse struct {
	Status      string            `json:"status"`
	FailedCheck string            `json:"failed_check,omitempty"`
	Checks      map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleStartup only waits for the critical dependencies.
func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupProbeTimeout)
	defer cancel()

	return s.writeHealth(c, s.runHealthChecks(ctx, true))
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": checkOK,
		"uptime": s.clock.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.writeHealth(c, s.runHealthChecks(ctx, false))
}

// runHealthChecks runs every check, or only the critical ones, and reports each outcome.
func (s *Server) runHealthChecks(ctx context.Context, criticalOnly bool) healthResponse {
	resp := healthResponse{Status: statusReady, Checks: make(map[string]string, len(s.healthChecks))}

	for _, hc := range s.healthChecks {
		if criticalOnly && !hc.Critical {
			continue
		}

		err := hc.Check(ctx)
		if err == nil {
			resp.Checks[hc.Name] = checkOK
			continue
		}
		resp.Checks[hc.Name] = err.Error()

		switch {
		case hc.Critical && resp.Status != statusUnhealthy:
			resp.Status = statusUnhealthy
			resp.FailedCheck = hc.Name
		case !hc.Critical && resp.Status == statusReady:
			resp.Status = statusDegraded
		}
	}
	return resp
}

func (s *Server) writeHealth(c echo.Context, resp healthResponse) error {
	code := http.StatusOK
	if resp.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	if err := c.JSON(code, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
