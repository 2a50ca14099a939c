package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Sources: SourcesConfig{
			OpenFoodFacts: OpenFoodFactsConfig{Enabled: true},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_NoSources(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.OpenFoodFacts.Enabled = false

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when no source is configured")
	}
	if !strings.Contains(err.Error(), "at least one search source") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Priority(t *testing.T) {
	tests := []struct {
		name     string
		priority []string
		wantErr  string
	}{
		{"unknown source", []string{"usda"}, `unknown source "usda"`},
		{"duplicate", []string{"edamam", "edamam"}, `duplicate source "edamam"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Search.Priority = tc.priority
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultPageSize = 200
	cfg.Search.MaxPageSize = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
}

func TestValidate_VerificationRequiresDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Verification.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for verification without database.addrs")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MailDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Driver = "smtp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mail driver")
	}

	cfg.Mail.Driver = "ses"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ses without mail.from")
	}

	cfg.Mail.From = "no-reply@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("ReadTimeoutSec = %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d", cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	}
	if cfg.Search.SourceTimeout() != 4*time.Second {
		t.Errorf("SourceTimeout() = %v", cfg.Search.SourceTimeout())
	}
	if len(cfg.Search.Priority) != 4 || cfg.Search.Priority[0] != "nutritionix_common" {
		t.Errorf("Priority = %v", cfg.Search.Priority)
	}
	if cfg.Sources.Nutritionix.BaseURL != "https://trackapi.nutritionix.com" {
		t.Errorf("Nutritionix.BaseURL = %q", cfg.Sources.Nutritionix.BaseURL)
	}
	if cfg.Verification.CodeTTLSec != 600 || cfg.Verification.MaxAttempts != 5 {
		t.Errorf("verification defaults = %+v", cfg.Verification)
	}
	if cfg.Mail.Driver != "log" {
		t.Errorf("Mail.Driver = %q", cfg.Mail.Driver)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Search: SearchConfig{DefaultPageSize: 5, MaxPageSize: 10, SourceTimeoutMs: 1500},
		Mail:   MailConfig{Driver: "ses"},
	}
	cfg.ApplyDefaults()

	if cfg.Search.DefaultPageSize != 5 || cfg.Search.MaxPageSize != 10 {
		t.Errorf("page sizes overridden: %+v", cfg.Search)
	}
	if cfg.Search.SourceTimeout() != 1500*time.Millisecond {
		t.Errorf("SourceTimeout() = %v", cfg.Search.SourceTimeout())
	}
	if cfg.Mail.Driver != "ses" {
		t.Errorf("Mail.Driver overridden: %q", cfg.Mail.Driver)
	}
}

func TestSourceEnabled(t *testing.T) {
	if (NutritionixConfig{AppID: "id"}).Enabled() {
		t.Error("nutritionix without key should be disabled")
	}
	if !(NutritionixConfig{AppID: "id", AppKey: "key"}).Enabled() {
		t.Error("nutritionix with credentials should be enabled")
	}
	if (EdamamConfig{AppKey: "key"}).Enabled() {
		t.Error("edamam without id should be disabled")
	}
	if (OpenAIConfig{}).Enabled() {
		t.Error("openai without key should be disabled")
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("NS_TEST_PORT", "9090")
	t.Setenv("NS_TEST_NIX_ID", "nix-id")

	data := []byte(`
http:
  port: ${NS_TEST_PORT}
sources:
  nutritionix:
    app_id: ${NS_TEST_NIX_ID}
    app_key: ${NS_TEST_NIX_KEY:-fallback-key}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d", cfg.HTTP.Port)
	}
	if cfg.Sources.Nutritionix.AppID != "nix-id" || cfg.Sources.Nutritionix.AppKey != "fallback-key" {
		t.Errorf("Nutritionix = %+v", cfg.Sources.Nutritionix)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error without sources")
	}
}
