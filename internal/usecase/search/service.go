// Package search aggregates food searches and barcode lookups across nutrition providers.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/result"
	"github.com/kailas-cloud/nutrisearch/internal/logger"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
)

// Config holds aggregation settings.
type Config struct {
	// SourceTimeout bounds each provider call. Zero means only the caller's context applies.
	SourceTimeout time.Duration
	// Priority orders origins for deduplication; nil uses food.DefaultPriority.
	Priority []food.Origin
	Logger   *zap.Logger
}

// Service fans requests out to providers and merges what comes back.
type Service struct {
	searchers []Searcher
	barcodes  []BarcodeLooker
	images    ImageFinder
	timeout   time.Duration
	priority  priorityIndex
	logger    *zap.Logger
}

// New creates a search service. images may be nil when no image finder is configured.
func New(searchers []Searcher, barcodes []BarcodeLooker, images ImageFinder, cfg Config) *Service {
	prio := cfg.Priority
	if len(prio) == 0 {
		prio = food.DefaultPriority()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		searchers: searchers,
		barcodes:  barcodes,
		images:    images,
		timeout:   cfg.SourceTimeout,
		priority:  newPriorityIndex(prio),
		logger:    log,
	}
}

// SearchAll queries every searcher concurrently and returns one page of deduplicated foods.
// Failing or slow sources contribute nothing; the call itself only fails when the
// caller's context is done.
func (s *Service) SearchAll(ctx context.Context, req *request.Request) (result.Result, error) {
	perSource := fanOut(ctx, s, "search", s.searchers, func(ctx context.Context, src Searcher) ([]food.Raw, error) {
		return src.Search(ctx, req.Query())
	})
	if err := ctx.Err(); err != nil {
		return result.Result{}, fmt.Errorf("search aborted: %w", err)
	}

	foods, dropped := merge(perSource, s.priority)
	s.record("search", len(foods), dropped)

	return result.Paginate(foods, req.Page(), req.PageSize()), nil
}

// SearchByBarcode looks code up on every barcode-capable source. No match is
// domain.ErrNotFound together with an empty result.
func (s *Service) SearchByBarcode(ctx context.Context, code string) (result.Result, error) {
	code, err := request.ValidateBarcode(code)
	if err != nil {
		return result.Empty(0, 0), err
	}
	if len(s.barcodes) == 0 {
		return result.Empty(0, 0), fmt.Errorf("barcode lookup: %w", domain.ErrNoSources)
	}

	perSource := fanOut(ctx, s, "barcode", s.barcodes, func(ctx context.Context, src BarcodeLooker) ([]food.Raw, error) {
		return src.LookupBarcode(ctx, code)
	})
	if err := ctx.Err(); err != nil {
		return result.Empty(0, 0), fmt.Errorf("barcode lookup aborted: %w", err)
	}

	foods, dropped := merge(perSource, s.priority)
	s.record("barcode", len(foods), dropped)

	if len(foods) == 0 {
		return result.Empty(0, 0), fmt.Errorf("barcode %s: %w", code, domain.ErrNotFound)
	}
	return result.New(foods, 0, len(foods), false), nil
}

// ImageURL returns the preview image of a food page.
func (s *Service) ImageURL(ctx context.Context, foodURL string) (string, error) {
	u, err := request.ValidateFoodURL(foodURL)
	if err != nil {
		return "", err
	}
	if s.images == nil {
		return "", fmt.Errorf("image lookup: %w", domain.ErrNoSources)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	img, err := s.images.ImageURL(ctx, u.String())
	if err != nil {
		return "", fmt.Errorf("image lookup: %w", err)
	}
	return img, nil
}

func (s *Service) record(op string, merged, dropped int) {
	metrics.AggregatedFoods.WithLabelValues(op).Observe(float64(merged))
	if dropped > 0 {
		metrics.DuplicateFoodsTotal.Add(float64(dropped))
	}
}

// fanOut calls fn once per source in parallel, each under the per-source timeout.
// Slot i holds the records of sources[i]; a failed source leaves its slot nil.
func fanOut[S Source](
	ctx context.Context, s *Service, op string, sources []S,
	fn func(ctx context.Context, src S) ([]food.Raw, error),
) [][]food.Raw {
	log := logger.FromContext(ctx, s.logger)
	slots := make([][]food.Raw, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			callCtx, cancel := ctx, context.CancelFunc(func() {})
			if s.timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			}
			defer cancel()

			start := time.Now()
			raws, err := fn(callCtx, src)
			if err != nil {
				log.Warn("source failed, skipping",
					zap.String("source", src.Name()),
					zap.String("operation", op),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = raws
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures are absorbed above

	return slots
}
