package nutrisearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type credentials struct {
	appID  string
	appKey string
}

type clientConfig struct {
	nutritionix *credentials
	edamam      *credentials
	offAgent    string
	openaiKey   string
	openaiModel string

	baseURLs   map[string]string
	httpClient *http.Client

	sourceTimeout time.Duration
	priority      []Origin

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithNutritionix enables Nutritionix search, barcode lookup and nutrient parsing.
func WithNutritionix(appID, appKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.nutritionix = &credentials{appID: appID, appKey: appKey}
	})
}

// WithEdamam enables Edamam Food Database search and barcode lookup.
func WithEdamam(appID, appKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.edamam = &credentials{appID: appID, appKey: appKey}
	})
}

// WithOpenFoodFacts enables Open Food Facts. userAgent should identify your
// application as the Open Food Facts API terms require.
func WithOpenFoodFacts(userAgent string) Option {
	return optionFunc(func(c *clientConfig) {
		c.offAgent = userAgent
		if c.offAgent == "" {
			c.offAgent = "nutrisearch-sdk/1.0"
		}
	})
}

// WithOpenAI adds an LLM nutrient estimator, tried after Nutritionix.
// An empty model uses gpt-4o-mini.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openaiKey = apiKey
		c.openaiModel = model
	})
}

// WithBaseURL overrides a provider endpoint ("nutritionix", "edamam",
// "openfoodfacts" or "openai"), e.g. for a proxy or a test server.
func WithBaseURL(source, url string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.baseURLs == nil {
			c.baseURLs = make(map[string]string)
		}
		c.baseURLs[source] = url
	})
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithSourceTimeout bounds every provider call. Default: 4s.
func WithSourceTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.sourceTimeout = d
	})
}

// WithPriority sets which origin wins when providers return the same food.
func WithPriority(origins ...Origin) Option {
	return optionFunc(func(c *clientConfig) {
		c.priority = origins
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
