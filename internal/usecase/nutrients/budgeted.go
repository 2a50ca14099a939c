package nutrients

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/logger"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	RemainingDaily() int64
	RemainingMonthly() int64
}

// BudgetedParser gates a metered parser behind a token budget. Token usage
// itself is reported by the parser through its usage hook.
type BudgetedParser struct {
	inner  Parser
	budget BudgetChecker
	logger *zap.Logger
}

// NewBudgetedParser wraps inner with budget enforcement.
func NewBudgetedParser(inner Parser, budget BudgetChecker, logger *zap.Logger) *BudgetedParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetedParser{inner: inner, budget: budget, logger: logger}
}

// Name returns the wrapped parser's name.
func (p *BudgetedParser) Name() string { return p.inner.Name() }

// Nutrients checks the budget, then delegates. A rejected request is reported as
// the source being unavailable so the nutrients service moves on.
func (p *BudgetedParser) Nutrients(ctx context.Context, query string) (food.NutrientProfile, error) {
	if err := p.budget.Check(ctx); err != nil {
		logger.FromContext(ctx, p.logger).Error("Budget exceeded",
			zap.String("source", p.inner.Name()),
			zap.Error(err),
		)
		return food.NutrientProfile{}, domain.WrapSourceError(p.inner.Name(), fmt.Errorf("budget check: %w", err))
	}

	profile, err := p.inner.Nutrients(ctx, query)

	remaining := metrics.EstimatorBudgetTokensRemaining
	remaining.WithLabelValues(p.inner.Name(), "daily").Set(float64(p.budget.RemainingDaily()))
	remaining.WithLabelValues(p.inner.Name(), "monthly").Set(float64(p.budget.RemainingMonthly()))

	return profile, err
}
