// Package nutrients resolves nutrient profiles lazily, one parser at a time.
package nutrients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/logger"
)

// Service tries parsers in configured order until one answers.
type Service struct {
	parsers []Parser
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a nutrients service. timeout bounds each parser call; zero disables it.
func New(parsers []Parser, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{parsers: parsers, timeout: timeout, logger: logger}
}

// Profile returns the nutrients of query from the first parser that succeeds.
// When every parser fails it returns domain.ErrNotFound if none recognized the
// food, domain.ErrSourceUnavailable otherwise.
func (s *Service) Profile(ctx context.Context, query string) (food.NutrientProfile, error) {
	query, err := request.ValidateQuery(query)
	if err != nil {
		return food.NutrientProfile{}, err
	}
	if len(s.parsers) == 0 {
		return food.NutrientProfile{}, fmt.Errorf("nutrients: %w", domain.ErrNoSources)
	}

	log := logger.FromContext(ctx, s.logger)
	allNotFound := true
	var errs []error

	for _, p := range s.parsers {
		profile, err := s.call(ctx, p, query)
		if err == nil {
			return profile, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return food.NutrientProfile{}, fmt.Errorf("nutrients aborted: %w", ctxErr)
		}

		log.Warn("nutrient parser failed, trying next",
			zap.String("source", p.Name()), zap.Error(err))
		errs = append(errs, err)
		if !errors.Is(err, domain.ErrNotFound) {
			allNotFound = false
		}
	}

	if allNotFound {
		return food.NutrientProfile{}, fmt.Errorf("no parser recognized %q: %w", query, domain.ErrNotFound)
	}
	return food.NutrientProfile{}, fmt.Errorf("all nutrient parsers failed: %w",
		errors.Join(append([]error{domain.ErrSourceUnavailable}, errs...)...))
}

func (s *Service) call(ctx context.Context, p Parser, query string) (food.NutrientProfile, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Nutrients(ctx, query)
}
