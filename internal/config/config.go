package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the nutrisearch API configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Auth         AuthConfig         `yaml:"auth"`
	CORS         CORSConfig         `yaml:"cors"`
	Logging      LoggingConfig      `yaml:"logging"`
	Search       SearchConfig       `yaml:"search"`
	Sources      SourcesConfig      `yaml:"sources"`
	Database     DatabaseConfig     `yaml:"database"`
	Verification VerificationConfig `yaml:"verification"`
	Mail         MailConfig         `yaml:"mail"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings for the web client.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAgeSec      int      `yaml:"max_age_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds aggregation and pagination settings.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	// SourceTimeoutMs bounds every single upstream call; total latency is bounded by it too.
	SourceTimeoutMs int `yaml:"source_timeout_ms"`
	// Priority is the source order used to break ties during deduplication.
	Priority []string `yaml:"priority"`
}

// SourceTimeout returns the per-source timeout as a duration.
func (s SearchConfig) SourceTimeout() time.Duration {
	return time.Duration(s.SourceTimeoutMs) * time.Millisecond
}

// SourcesConfig holds upstream provider settings.
type SourcesConfig struct {
	Nutritionix   NutritionixConfig   `yaml:"nutritionix"`
	Edamam        EdamamConfig        `yaml:"edamam"`
	OpenFoodFacts OpenFoodFactsConfig `yaml:"openfoodfacts"`
	Scraper       ScraperConfig       `yaml:"scraper"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
}

// NutritionixConfig holds Nutritionix v2 credentials. Disabled when credentials are empty.
type NutritionixConfig struct {
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether credentials are configured.
func (c NutritionixConfig) Enabled() bool { return c.AppID != "" && c.AppKey != "" }

// EdamamConfig holds Edamam Food Database credentials. Disabled when credentials are empty.
type EdamamConfig struct {
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether credentials are configured.
func (c EdamamConfig) Enabled() bool { return c.AppID != "" && c.AppKey != "" }

// OpenFoodFactsConfig holds Open Food Facts settings (no credentials needed).
type OpenFoodFactsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	SearchPageSize int    `yaml:"search_page_size"`
}

// ScraperConfig holds food page image scraping settings.
type ScraperConfig struct {
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// OpenAIConfig holds the OpenAI-compatible nutrient estimator settings. Disabled without api_key.
type OpenAIConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Model   string       `yaml:"model"`
	Budget  BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps estimator token usage. Zero limits are unlimited.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	Action            string `yaml:"action"` // warn|reject
}

// Enabled reports whether the estimator is configured.
func (c OpenAIConfig) Enabled() bool { return c.APIKey != "" }

// DatabaseConfig holds Valkey/Redis connection settings (verification codes only).
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VerificationConfig holds email verification / password reset code settings.
type VerificationConfig struct {
	Enabled     bool   `yaml:"enabled"`
	CodeTTLSec  int    `yaml:"code_ttl_sec"`
	MaxAttempts int    `yaml:"max_attempts"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// MailConfig holds outbound email settings.
type MailConfig struct {
	Driver string `yaml:"driver"` // ses, log (default: log)
	Region string `yaml:"region"`
	From   string `yaml:"from"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references, applying defaults and validating.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 300
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.SourceTimeoutMs <= 0 {
		c.Search.SourceTimeoutMs = 4000
	}
	if len(c.Search.Priority) == 0 {
		c.Search.Priority = []string{"nutritionix_common", "nutritionix_branded", "edamam", "openfoodfacts"}
	}
	if c.Sources.Nutritionix.BaseURL == "" {
		c.Sources.Nutritionix.BaseURL = "https://trackapi.nutritionix.com"
	}
	if c.Sources.Edamam.BaseURL == "" {
		c.Sources.Edamam.BaseURL = "https://api.edamam.com"
	}
	if c.Sources.OpenFoodFacts.BaseURL == "" {
		c.Sources.OpenFoodFacts.BaseURL = "https://world.openfoodfacts.org"
	}
	if c.Sources.OpenFoodFacts.UserAgent == "" {
		c.Sources.OpenFoodFacts.UserAgent = "nutrisearch/1.0"
	}
	if c.Sources.OpenFoodFacts.SearchPageSize <= 0 {
		c.Sources.OpenFoodFacts.SearchPageSize = 24
	}
	if c.Sources.Scraper.UserAgent == "" {
		c.Sources.Scraper.UserAgent = "Mozilla/5.0 (compatible; nutrisearch/1.0)"
	}
	if c.Sources.Scraper.MaxBodyBytes <= 0 {
		c.Sources.Scraper.MaxBodyBytes = 2 << 20
	}
	if c.Sources.OpenAI.Model == "" {
		c.Sources.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Sources.OpenAI.Budget.Action == "" {
		c.Sources.OpenAI.Budget.Action = "warn"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Verification.CodeTTLSec <= 0 {
		c.Verification.CodeTTLSec = 600
	}
	if c.Verification.MaxAttempts <= 0 {
		c.Verification.MaxAttempts = 5
	}
	if c.Verification.KeyPrefix == "" {
		c.Verification.KeyPrefix = "nutrisearch:verify:"
	}
	if c.Mail.Driver == "" {
		c.Mail.Driver = "log"
	}
}

var knownSources = map[string]struct{}{
	"nutritionix_common":  {},
	"nutritionix_branded": {},
	"edamam":              {},
	"openfoodfacts":       {},
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) must not exceed search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	seen := make(map[string]struct{}, len(c.Search.Priority))
	for _, name := range c.Search.Priority {
		if _, ok := knownSources[name]; !ok {
			return fmt.Errorf("search.priority: unknown source %q", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("search.priority: duplicate source %q", name)
		}
		seen[name] = struct{}{}
	}
	if !c.Sources.Nutritionix.Enabled() && !c.Sources.Edamam.Enabled() && !c.Sources.OpenFoodFacts.Enabled {
		return fmt.Errorf("at least one search source must be configured (nutritionix, edamam or openfoodfacts)")
	}
	switch b := c.Sources.OpenAI.Budget; {
	case b.Action != "warn" && b.Action != "reject":
		return fmt.Errorf("sources.openai.budget.action must be \"warn\" or \"reject\", got %q", b.Action)
	case b.DailyTokenLimit < 0 || b.MonthlyTokenLimit < 0:
		return fmt.Errorf("sources.openai.budget limits must not be negative")
	}
	if c.Verification.Enabled && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when verification is enabled")
	}
	switch c.Mail.Driver {
	case "log":
	case "ses":
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required for the ses driver")
		}
	default:
		return fmt.Errorf("mail.driver must be \"ses\" or \"log\", got %q", c.Mail.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
