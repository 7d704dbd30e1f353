package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/analytics"
	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	apperrors "github.com/architgupta225/Anonn-app-sub003/internal/platform/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const fillZero = "zero"

type analyticsResponse struct {
	*domain.Analytics
	WindowDays       int     `json:"windowDays"`
	ThresholdPercent float64 `json:"thresholdPercent"`
}

type riskResponse struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	AsOf           time.Time `json:"asOf"`
	domain.RiskSignal
	WindowDays       int     `json:"windowDays"`
	ThresholdPercent float64 `json:"thresholdPercent"`
}

type trendResponse struct {
	OrganizationID uuid.UUID           `json:"organizationId"`
	AsOf           time.Time           `json:"asOf"`
	PeriodDays     int                 `json:"periodDays"`
	Filled         bool                `json:"filled"`
	Trend          []domain.TrendPoint `json:"trend"`
}

func (s *Server) registerAnalyticsRoutes() {
	api := s.echo.Group("/api", newRateLimiter(s.config.APIRateLimit, s.config.APIRateBurst))
	api.GET("/organizations/:id/analytics", s.handleGetAnalytics)
	api.GET("/organizations/:id/risk", s.handleGetRisk)
	api.GET("/organizations/:id/trend", s.handleGetTrend)
	api.POST("/organizations/:id/analytics/invalidate", s.handleInvalidate)
}

func (s *Server) handleGetAnalytics(c echo.Context) error {
	orgID, err := parseOrganizationID(c)
	if err != nil {
		return err
	}
	asOf, err := s.parseAsOf(c)
	if err != nil {
		return err
	}

	result, err := s.analytics.GetAnalytics(c.Request().Context(), orgID, asOf)
	if err != nil {
		return fmt.Errorf("get analytics: %w", err)
	}

	policy := s.analytics.Settings().Policy
	response := analyticsResponse{
		Analytics:        result,
		WindowDays:       policy.WindowDays,
		ThresholdPercent: policy.ThresholdPercent,
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleGetRisk(c echo.Context) error {
	orgID, err := parseOrganizationID(c)
	if err != nil {
		return err
	}
	asOf, err := s.parseAsOf(c)
	if err != nil {
		return err
	}

	policy := s.analytics.Settings().Policy
	if policy.WindowDays, err = intParam(c, "windowDays", policy.WindowDays); err != nil {
		return err
	}
	if policy.ThresholdPercent, err = floatParam(c, "threshold", policy.ThresholdPercent); err != nil {
		return err
	}

	signal, err := s.analytics.EvaluateRisk(c.Request().Context(), orgID, asOf, policy)
	if err != nil {
		return fmt.Errorf("evaluate risk: %w", err)
	}

	response := riskResponse{
		OrganizationID:   orgID,
		AsOf:             asOf,
		RiskSignal:       signal,
		WindowDays:       policy.WindowDays,
		ThresholdPercent: policy.ThresholdPercent,
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleGetTrend(c echo.Context) error {
	orgID, err := parseOrganizationID(c)
	if err != nil {
		return err
	}
	asOf, err := s.parseAsOf(c)
	if err != nil {
		return err
	}
	periodDays, err := intParam(c, "periodDays", s.analytics.Settings().TrendPeriodDays)
	if err != nil {
		return err
	}

	fill := c.QueryParam("fill")
	if fill != "" && fill != fillZero {
		return apperrors.ValidationError("unsupported fill mode").WithField("fill", fill)
	}

	points, err := s.analytics.Trend(c.Request().Context(), orgID, asOf, periodDays)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}

	filled := fill == fillZero
	if filled {
		from, to := analytics.Window(asOf, periodDays)
		points = analytics.FillGaps(points, from, to)
	}
	if points == nil {
		points = []domain.TrendPoint{}
	}

	response := trendResponse{
		OrganizationID: orgID,
		AsOf:           asOf,
		PeriodDays:     periodDays,
		Filled:         filled,
		Trend:          points,
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleInvalidate(c echo.Context) error {
	orgID, err := parseOrganizationID(c)
	if err != nil {
		return err
	}

	if err := s.analytics.Invalidate(c.Request().Context(), orgID); err != nil {
		return apperrors.ExternalError("failed to invalidate shared cache", err).WithField("organization_id", orgID.String())
	}

	slog.InfoContext(c.Request().Context(), "Analytics cache invalidated", "organization_id", orgID.String())
	return c.JSON(http.StatusOK, map[string]string{"status": "invalidated"})
}

func parseOrganizationID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	orgID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid organization ID").WithField("id", raw)
	}
	return orgID, nil
}

// parseAsOf reads an RFC3339 asOf, defaulting to now. The result is always UTC.
func (s *Server) parseAsOf(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("asOf")
	if raw == "" {
		return s.clock.Now().UTC(), nil
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.ValidationError("asOf must be an RFC3339 timestamp").WithField("asOf", raw)
	}
	return asOf.UTC(), nil
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationError(name+" must be an integer").WithField(name, raw)
	}
	return v, nil
}

func floatParam(c echo.Context, name string, fallback float64) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.ValidationError(name+" must be a number").WithField(name, raw)
	}
	return v, nil
}
