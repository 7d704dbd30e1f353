package analytics

import (
	"context"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
)

// Evaluator applies a RiskPolicy to the aggregated window counts.
type Evaluator struct {
	aggregator *Aggregator
}

func NewEvaluator(aggregator *Aggregator) *Evaluator {
	return &Evaluator{aggregator: aggregator}
}

// Evaluate is idempotent: the same asOf over unchanged store data yields the same signal.
func (e *Evaluator) Evaluate(ctx context.Context, orgID uuid.UUID, asOf time.Time, policy domain.RiskPolicy) (domain.RiskSignal, error) {
	if err := policy.Validate(); err != nil {
		return domain.RiskSignal{}, err
	}

	counts, err := e.aggregator.Aggregate(ctx, orgID, asOf, policy.WindowDays)
	if err != nil {
		return domain.RiskSignal{}, err
	}

	return SignalFromCounts(counts, policy.ThresholdPercent), nil
}

// SignalFromCounts flags risk when the negative share strictly exceeds thresholdPercent.
// An empty window is never a risk.
func SignalFromCounts(counts domain.WindowCounts, thresholdPercent float64) domain.RiskSignal {
	if counts.Total == 0 {
		return domain.RiskSignal{}
	}

	pct := 100 * float64(counts.Negative) / float64(counts.Total)
	return domain.RiskSignal{
		HasRisk:            pct > thresholdPercent,
		NegativePercentage: pct,
	}
}
