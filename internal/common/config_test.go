package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/constants"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != constants.ProviderOpenAI {
		t.Errorf("got provider %q, want %q", cfg.LLM.Provider, constants.ProviderOpenAI)
	}
	if cfg.Reconcile.Variant != "strict" {
		t.Errorf("got variant %q, want strict", cfg.Reconcile.Variant)
	}
	if cfg.Watch.Workers != 1 {
		t.Errorf("got %d watch workers, want 1", cfg.Watch.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	content := `
llm:
  provider: gemini
  timeout: 20s
reconcile:
  variant: lenient
  currency_label: USD
store:
  driver: sqlite
  dsn: file:matcher.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CURRENCY_LABEL", "EUR")

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LLM.Provider != constants.ProviderGemini {
		t.Errorf("got provider %q, want gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 20*time.Second {
		t.Errorf("got timeout %v, want 20s", cfg.LLM.Timeout)
	}
	if cfg.Reconcile.Variant != "lenient" {
		t.Errorf("got variant %q, want lenient", cfg.Reconcile.Variant)
	}
	if cfg.Reconcile.CurrencyLabel != "EUR" {
		t.Errorf("env should override file: got %q", cfg.Reconcile.CurrencyLabel)
	}
	if cfg.Store.Driver != constants.StoreSQLite || cfg.Store.DSN != "file:matcher.db" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	// untouched values keep their defaults
	if cfg.OCR.DPI != 300 {
		t.Errorf("got DPI %d, want default 300", cfg.OCR.DPI)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Errorf("expected CONFIG_ERROR AppError, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "claude" }, false},
		{"store without dsn", func(c *Config) { c.Store.Driver = constants.StorePostgres }, false},
		{"store with dsn", func(c *Config) {
			c.Store.Driver = constants.StorePostgres
			c.Store.DSN = "postgres://localhost/matcher"
		}, true},
		{"bad variant", func(c *Config) { c.Reconcile.Variant = "fuzzy" }, false},
		{"bad text layer", func(c *Config) { c.OCR.TextLayer = "magic" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateExtractor(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateExtractor(); err == nil {
		t.Error("missing OpenAI key should fail")
	}
	cfg.LLM.APIKey = "sk-test"
	if err := cfg.ValidateExtractor(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.LLM.Provider = constants.ProviderGemini
	if err := cfg.ValidateExtractor(); err == nil {
		t.Error("missing Gemini key should fail")
	}
}
