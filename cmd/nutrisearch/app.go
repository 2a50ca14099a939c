package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/config"
	dbRedis "github.com/kailas-cloud/nutrisearch/internal/db/redis"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
	verifyrepo "github.com/kailas-cloud/nutrisearch/internal/repository/verification"
	"github.com/kailas-cloud/nutrisearch/internal/transport/edamam"
	"github.com/kailas-cloud/nutrisearch/internal/transport/mail"
	"github.com/kailas-cloud/nutrisearch/internal/transport/nutritionix"
	openaiEst "github.com/kailas-cloud/nutrisearch/internal/transport/openai"
	"github.com/kailas-cloud/nutrisearch/internal/transport/openfoodfacts"
	"github.com/kailas-cloud/nutrisearch/internal/transport/scrape"
	analyticsuc "github.com/kailas-cloud/nutrisearch/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/nutrisearch/internal/usecase/health"
	nutrientsuc "github.com/kailas-cloud/nutrisearch/internal/usecase/nutrients"
	searchuc "github.com/kailas-cloud/nutrisearch/internal/usecase/search"
	verificationuc "github.com/kailas-cloud/nutrisearch/internal/usecase/verification"
)

// app is the wired object graph.
type app struct {
	search       *searchuc.Service
	nutrients    *nutrientsuc.Service
	analytics    *analyticsuc.Service
	verification *verificationuc.Service
	health       *healthuc.Service
	store        *dbRedis.Store
}

// Close releases the key-value store connection, if any.
func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// providers holds the enabled upstream clients grouped by capability.
type providers struct {
	searchers []searchuc.Searcher
	barcodes  []searchuc.BarcodeLooker
	images    searchuc.ImageFinder
	parsers   []nutrientsuc.Parser
	checkers  []healthuc.SourceChecker
}

// buildProviders creates a client for every configured source. budget meters the
// LLM estimator and is nil when the estimator is disabled.
func buildProviders(cfg config.Config, logger *zap.Logger) (providers, *nutrientsuc.BudgetTracker) {
	var p providers
	var budget *nutrientsuc.BudgetTracker

	src := cfg.Sources
	if src.Nutritionix.Enabled() {
		c := nutritionix.New(&nutritionix.Config{
			AppID:   src.Nutritionix.AppID,
			AppKey:  src.Nutritionix.AppKey,
			BaseURL: src.Nutritionix.BaseURL,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.parsers = append(p.parsers, c)
		p.checkers = append(p.checkers, c)
	}
	if src.Edamam.Enabled() {
		c := edamam.New(&edamam.Config{
			AppID:   src.Edamam.AppID,
			AppKey:  src.Edamam.AppKey,
			BaseURL: src.Edamam.BaseURL,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.checkers = append(p.checkers, c)
	}
	if src.OpenFoodFacts.Enabled {
		c := openfoodfacts.New(&openfoodfacts.Config{
			BaseURL:        src.OpenFoodFacts.BaseURL,
			UserAgent:      src.OpenFoodFacts.UserAgent,
			SearchPageSize: src.OpenFoodFacts.SearchPageSize,
		})
		p.searchers = append(p.searchers, c)
		p.barcodes = append(p.barcodes, c)
		p.checkers = append(p.checkers, c)
	}
	if src.OpenAI.Enabled() {
		budget = nutrientsuc.NewBudgetTracker(openaiEst.SourceName,
			src.OpenAI.Budget.DailyTokenLimit, src.OpenAI.Budget.MonthlyTokenLimit,
			nutrientsuc.BudgetAction(src.OpenAI.Budget.Action), logger)
		e := openaiEst.NewEstimator(&openaiEst.Config{
			APIKey:  src.OpenAI.APIKey,
			BaseURL: src.OpenAI.BaseURL,
			Model:   src.OpenAI.Model,
			Logger:  logger,
			OnUsage: budget.Record,
		})
		p.parsers = append(p.parsers, nutrientsuc.NewBudgetedParser(e, budget, logger))
		p.checkers = append(p.checkers, e)
	}

	p.images = scrape.New(&scrape.Config{
		UserAgent:    src.Scraper.UserAgent,
		MaxBodyBytes: src.Scraper.MaxBodyBytes,
	})
	return p, budget
}

// buildApp is the composition root. withVerification connects the key-value store
// and mailer when verification is enabled in cfg.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withVerification bool) (*app, error) {
	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	p, budget := buildProviders(cfg, logger)

	priority := make([]food.Origin, 0, len(cfg.Search.Priority))
	for _, name := range cfg.Search.Priority {
		priority = append(priority, food.Origin(name))
	}

	a := &app{
		search: searchuc.New(p.searchers, p.barcodes, p.images, searchuc.Config{
			SourceTimeout: cfg.Search.SourceTimeout(),
			Priority:      priority,
			Logger:        logger,
		}),
		analytics: analyticsuc.New(),
	}
	if len(p.parsers) > 0 {
		a.nutrients = nutrientsuc.New(p.parsers, cfg.Search.SourceTimeout(), logger)
	}

	// Pass nil interface (not typed nil pointer) when verification is off.
	var pinger healthuc.DBPinger
	if withVerification && cfg.Verification.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create store: %w", err)
		}
		a.store = store

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			a.Close()
			return nil, fmt.Errorf("store not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

		mailer, err := buildMailer(ctx, cfg.Mail, logger)
		if err != nil {
			a.Close()
			return nil, err
		}

		a.verification = verificationuc.New(
			verifyrepo.New(store, cfg.Verification.KeyPrefix),
			mailer,
			verificationuc.Config{
				TTL:         time.Duration(cfg.Verification.CodeTTLSec) * time.Second,
				MaxAttempts: int64(cfg.Verification.MaxAttempts),
			},
			logger,
		)
		pinger = store

		if budget != nil {
			budget.WithStore(ctx, store, "nutrisearch:")
		}
	}

	a.health = healthuc.New(pinger, p.checkers, healthuc.DefaultCheckTimeout)

	logger.Info("Sources configured",
		zap.Int("searchers", len(p.searchers)),
		zap.Int("barcode_lookers", len(p.barcodes)),
		zap.Int("nutrient_parsers", len(p.parsers)),
		zap.Bool("verification", a.verification != nil),
	)
	return a, nil
}

func buildMailer(ctx context.Context, cfg config.MailConfig, logger *zap.Logger) (verificationuc.Mailer, error) {
	switch cfg.Driver {
	case "ses":
		m, err := mail.NewSESMailerFromEnv(ctx, cfg.Region, cfg.From)
		if err != nil {
			return nil, fmt.Errorf("create ses mailer: %w", err)
		}
		return m, nil
	default:
		return mail.NewLogMailer(logger), nil
	}
}
