package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultWindowDays            = 30
	DefaultTrendPeriodDays       = 30
	DefaultRiskThresholdPercent  = 40.0
	DefaultNegativeMeanThreshold = 2.0
	trendDateLayout              = "2006-01-02"
)

// MaxWindowDays bounds risk windows and trend periods to ten years.
const MaxWindowDays = 3650

// ValidateDays reports ErrInvalidWindow unless days is within [1, MaxWindowDays].
// what names the quantity in the error, e.g. "window days".
func ValidateDays(what string, days int) error {
	if days <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidWindow, what, days)
	}
	if days > MaxWindowDays {
		return fmt.Errorf("%w: %s must not exceed %d, got %d", ErrInvalidWindow, what, MaxWindowDays, days)
	}
	return nil
}

// RiskPolicy configures a risk evaluation. Callers pass it per call; there is no global default to mutate.
type RiskPolicy struct {
	WindowDays       int
	ThresholdPercent float64
}

// DefaultRiskPolicy returns the 30 day / 40% policy.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		WindowDays:       DefaultWindowDays,
		ThresholdPercent: DefaultRiskThresholdPercent,
	}
}

// Validate rejects windows outside [1, MaxWindowDays] and thresholds outside [0,100]. It never clamps.
func (p RiskPolicy) Validate() error {
	if err := ValidateDays("window days", p.WindowDays); err != nil {
		return err
	}
	if p.ThresholdPercent < 0 || p.ThresholdPercent > 100 {
		return fmt.Errorf("%w: threshold percent must be within [0,100], got %g", ErrInvalidWindow, p.ThresholdPercent)
	}
	return nil
}

// WindowCounts is the result of aggregating one organization's reviews over a window.
type WindowCounts struct {
	Total    int
	Negative int
}

// RiskSignal flags an organization whose recent negative-review share exceeds the threshold.
type RiskSignal struct {
	HasRisk            bool    `json:"hasRisk"`
	NegativePercentage float64 `json:"negativePercentageLast30Days"`
}

// TrendPoint is the review volume of one UTC calendar day.
type TrendPoint struct {
	Date  time.Time
	Count int
}

type trendPointJSON struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(trendPointJSON{Date: p.Date.UTC().Format(trendDateLayout), Count: p.Count})
}

func (p *TrendPoint) UnmarshalJSON(data []byte) error {
	var raw trendPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.Parse(trendDateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("invalid trend date %q: %w", raw.Date, err)
	}
	p.Date = date
	p.Count = raw.Count
	return nil
}

// Analytics is the combined risk and trend view of one organization at one instant.
type Analytics struct {
	OrganizationID uuid.UUID    `json:"organizationId"`
	AsOf           time.Time    `json:"asOf"`
	Risk           RiskSignal   `json:"risk"`
	Trend          []TrendPoint `json:"trend"`
}

// AnalyticsCache is a shared cache of computed analytics, keyed by organization and minute.
// Get and Set are best-effort: implementations log failures and report a miss.
type AnalyticsCache interface {
	Get(ctx context.Context, orgID uuid.UUID, minute time.Time) (*Analytics, bool)
	Set(ctx context.Context, orgID uuid.UUID, minute time.Time, analytics *Analytics)
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}
