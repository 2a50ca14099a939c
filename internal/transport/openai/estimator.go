// Package openai estimates nutrient profiles with an OpenAI-compatible chat model.
// It is the last-resort nutrient parser when no database recognizes a description.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
)

// SourceName labels the estimator in metrics and logs.
const SourceName = "openai"

const systemPrompt = `You estimate nutrition facts for food descriptions.
Reply with a single JSON object and nothing else:
{"recognized": bool, "calories": kcal, "protein": g, "carbs": g, "fat": g, "fiber": g, "sugar": g, "sodium": mg}
Values are totals for the whole description. If the text is not food, set "recognized" to false.`

// Config holds the estimator settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	User    string
	Logger  *zap.Logger
	// OnUsage, if set, receives the total tokens of every completion.
	OnUsage func(tokens int64)
}

// Estimator is a nutrient parser backed by chat completions.
type Estimator struct {
	client  *openai.Client
	model   string
	user    string
	onUsage func(tokens int64)
	logger  *zap.Logger
}

// NewEstimator creates an OpenAI-compatible nutrient estimator.
func NewEstimator(cfg *Config) *Estimator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Estimator{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		user:    cfg.User,
		onUsage: cfg.OnUsage,
		logger:  logger,
	}
}

// Name implements the source contract.
func (e *Estimator) Name() string { return SourceName }

type estimate struct {
	Recognized *bool          `json:"recognized"`
	Calories   upstream.Float `json:"calories"`
	Protein    upstream.Float `json:"protein"`
	Carbs      upstream.Float `json:"carbs"`
	Fat        upstream.Float `json:"fat"`
	Fiber      upstream.Float `json:"fiber"`
	Sugar      upstream.Float `json:"sugar"`
	SodiumMg   upstream.Float `json:"sodium"`
}

// Nutrients asks the model for the nutrient totals of query.
func (e *Estimator) Nutrients(ctx context.Context, query string) (food.NutrientProfile, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: e.user,
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	metrics.SourceRequestDuration.WithLabelValues(SourceName, "nutrients").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(SourceName, "nutrients", upstream.StatusError).Inc()
		return food.NutrientProfile{}, parseAPIError(err)
	}
	e.recordUsage(resp.Usage)

	if len(resp.Choices) == 0 {
		metrics.SourceRequestsTotal.WithLabelValues(SourceName, "nutrients", upstream.StatusError).Inc()
		return food.NutrientProfile{}, domain.WrapSourceError(SourceName, errors.New("empty completion"))
	}

	var est estimate
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &est); err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(SourceName, "nutrients", upstream.StatusError).Inc()
		e.logger.Warn("unparseable nutrient estimate", zap.String("content", content), zap.Error(err))
		return food.NutrientProfile{}, domain.WrapSourceError(SourceName, fmt.Errorf("decode estimate: %w", err))
	}

	if (est.Recognized != nil && !*est.Recognized) || !est.Calories.Valid {
		metrics.SourceRequestsTotal.WithLabelValues(SourceName, "nutrients", upstream.StatusNotFound).Inc()
		return food.NutrientProfile{}, fmt.Errorf("estimator did not recognize food: %w", domain.ErrNotFound)
	}

	metrics.SourceRequestsTotal.WithLabelValues(SourceName, "nutrients", upstream.StatusSuccess).Inc()
	return food.NutrientProfile{
		Calories: nonNegative(est.Calories.Or(0)),
		Protein:  nonNegative(est.Protein.Or(0)),
		Carbs:    nonNegative(est.Carbs.Or(0)),
		Fat:      nonNegative(est.Fat.Or(0)),
		Fiber:    nonNegative(est.Fiber.Or(0)),
		Sugar:    nonNegative(est.Sugar.Or(0)),
		Sodium:   food.MilligramsToGrams(nonNegative(est.SodiumMg.Or(0))),
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Estimator) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Estimator) recordUsage(u openai.Usage) {
	if u.TotalTokens == 0 {
		return
	}
	metrics.EstimatorTokensTotal.WithLabelValues(e.model, "prompt").Add(float64(u.PromptTokens))
	metrics.EstimatorTokensTotal.WithLabelValues(e.model, "completion").Add(float64(u.CompletionTokens))
	metrics.EstimatorTokensTotal.WithLabelValues(e.model, "total").Add(float64(u.TotalTokens))
	if e.onUsage != nil {
		e.onUsage(int64(u.TotalTokens))
	}
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrSourceUnavailable for 502 mapping.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return &domain.SourceError{
			Source:     SourceName,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        fmt.Errorf("chat completion: %s", detail),
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.SourceError{
			Source:     SourceName,
			StatusCode: apiErr.HTTPStatusCode,
			Err:        fmt.Errorf("chat completion: %s", apiErr.Message),
		}
	}

	return domain.WrapSourceError(SourceName, err)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// stripCodeFence unwraps ```json ... ``` blocks some models emit despite JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
