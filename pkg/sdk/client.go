package nutrisearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/result"
	"github.com/kailas-cloud/nutrisearch/internal/transport/edamam"
	"github.com/kailas-cloud/nutrisearch/internal/transport/nutritionix"
	openaiEst "github.com/kailas-cloud/nutrisearch/internal/transport/openai"
	"github.com/kailas-cloud/nutrisearch/internal/transport/openfoodfacts"
	"github.com/kailas-cloud/nutrisearch/internal/transport/scrape"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
	healthuc "github.com/kailas-cloud/nutrisearch/internal/usecase/health"
	nutrientsuc "github.com/kailas-cloud/nutrisearch/internal/usecase/nutrients"
	searchuc "github.com/kailas-cloud/nutrisearch/internal/usecase/search"
)

const defaultSourceTimeout = 4 * time.Second

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	SearchAll(ctx context.Context, req *request.Request) (result.Result, error)
	SearchByBarcode(ctx context.Context, code string) (result.Result, error)
	ImageURL(ctx context.Context, foodURL string) (string, error)
}

type nutrientsUseCase interface {
	Profile(ctx context.Context, query string) (food.NutrientProfile, error)
}

// Client is the nutrisearch SDK entry point. It is safe for concurrent use.
type Client struct {
	searchSvc    searchUseCase
	nutrientsSvc nutrientsUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a Client from the configured providers. At least one search
// provider (Nutritionix, Edamam or Open Food Facts) is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{sourceTimeout: defaultSourceTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	p := buildProviders(cfg)
	if len(p.searchers) == 0 {
		return nil, fmt.Errorf("nutrisearch: %w (use WithNutritionix, WithEdamam or WithOpenFoodFacts)", ErrNoSources)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	priority := make([]food.Origin, len(cfg.priority))
	for i, o := range cfg.priority {
		priority[i] = food.Origin(o)
	}

	c := &Client{
		searchSvc: searchuc.New(p.searchers, p.barcodes, p.images, searchuc.Config{
			SourceTimeout: cfg.sourceTimeout,
			Priority:      priority,
		}),
		healthSvc: healthuc.New(nil, p.checkers, 0),
		obs:       obs,
	}
	if len(p.parsers) > 0 {
		c.nutrientsSvc = nutrientsuc.New(p.parsers, cfg.sourceTimeout, nil)
	}
	return c, nil
}

type providers struct {
	searchers []searchuc.Searcher
	barcodes  []searchuc.BarcodeLooker
	images    searchuc.ImageFinder
	parsers   []nutrientsuc.Parser
	checkers  []healthuc.SourceChecker
}

func buildProviders(cfg *clientConfig) providers {
	var p providers

	// Leave the Doer interface nil when no client is set; the providers pick their default.
	var hc upstream.Doer
	if cfg.httpClient != nil {
		hc = cfg.httpClient
	}

	if cfg.nutritionix != nil {
		c := nutritionix.New(&nutritionix.Config{
			AppID:      cfg.nutritionix.appID,
			AppKey:     cfg.nutritionix.appKey,
			BaseURL:    cfg.baseURL(nutritionix.SourceName, "https://trackapi.nutritionix.com"),
			HTTPClient: hc,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.parsers = append(p.parsers, c)
		p.checkers = append(p.checkers, c)
	}
	if cfg.edamam != nil {
		c := edamam.New(&edamam.Config{
			AppID:      cfg.edamam.appID,
			AppKey:     cfg.edamam.appKey,
			BaseURL:    cfg.baseURL(edamam.SourceName, "https://api.edamam.com"),
			HTTPClient: hc,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.checkers = append(p.checkers, c)
	}
	if cfg.offAgent != "" {
		c := openfoodfacts.New(&openfoodfacts.Config{
			BaseURL:    cfg.baseURL(openfoodfacts.SourceName, "https://world.openfoodfacts.org"),
			UserAgent:  cfg.offAgent,
			HTTPClient: hc,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.checkers = append(p.checkers, c)
	}
	if cfg.openaiKey != "" {
		e := openaiEst.NewEstimator(&openaiEst.Config{
			APIKey:  cfg.openaiKey,
			BaseURL: cfg.baseURLs[openaiEst.SourceName],
			Model:   cfg.openaiModel,
		})
		p.parsers = append(p.parsers, e)
		p.checkers = append(p.checkers, e)
	}

	p.images = scrape.New(&scrape.Config{UserAgent: "Mozilla/5.0 (compatible; nutrisearch-sdk/1.0)", HTTPClient: hc})
	return p
}

func (c *clientConfig) baseURL(source, fallback string) string {
	if u := c.baseURLs[source]; u != "" {
		return u
	}
	return fallback
}

// Search queries every search provider and returns one page of deduplicated foods.
// pageSize 0 means 20; it is capped at 100.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (_ Page, err error) {
	start := time.Now()
	var n int
	defer func() { c.obs.observe("search", start, n, err) }()

	req, err := request.New(query, page, pageSize, request.MaxPageSize)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}

	res, err := c.searchSvc.SearchAll(ctx, &req)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	n = len(res.Foods())
	return pageFromResult(&res), nil
}

// Barcode looks a UPC/EAN code up on every barcode-capable provider.
// Unknown codes return ErrNotFound.
func (c *Client) Barcode(ctx context.Context, code string) (_ Page, err error) {
	start := time.Now()
	var n int
	defer func() { c.obs.observe("barcode", start, n, err) }()

	res, err := c.searchSvc.SearchByBarcode(ctx, code)
	if err != nil {
		return Page{}, fmt.Errorf("barcode %s: %w", code, err)
	}
	n = len(res.Foods())
	return pageFromResult(&res), nil
}

// ImageURL scrapes the preview image of a food page.
func (c *Client) ImageURL(ctx context.Context, foodURL string) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("image", start, 0, err) }()

	u, err := c.searchSvc.ImageURL(ctx, foodURL)
	if err != nil {
		return "", fmt.Errorf("image: %w", err)
	}
	return u, nil
}

// Nutrients resolves a free-text food description such as "2 eggs and toast".
// Requires WithNutritionix or WithOpenAI.
func (c *Client) Nutrients(ctx context.Context, query string) (_ Nutrients, err error) {
	start := time.Now()
	defer func() { c.obs.observe("nutrients", start, 0, err) }()

	if c.nutrientsSvc == nil {
		return Nutrients{}, fmt.Errorf("nutrients: %w (use WithNutritionix or WithOpenAI)", ErrNoSources)
	}
	p, err := c.nutrientsSvc.Profile(ctx, query)
	if err != nil {
		return Nutrients{}, fmt.Errorf("nutrients: %w", err)
	}
	return Nutrients(p), nil
}

func pageFromResult(r *result.Result) Page {
	foods := make([]Food, len(r.Foods()))
	for i, f := range r.Foods() {
		foods[i] = Food{
			Name:            f.Name,
			Brand:           deref(f.Brand),
			ServingQuantity: f.ServingQuantity,
			ServingUnit:     f.ServingUnit,
			ImageURL:        deref(f.ImageURL),
			SourceID:        f.SourceID,
			Origin:          Origin(f.Origin),
		}
	}
	return Page{Foods: foods, Page: r.Page(), PageSize: r.PageSize(), HasMore: r.HasMore()}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
