package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// Config holds all application configuration
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	OCR       OCRConfig       `yaml:"ocr"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Watch     WatchConfig     `yaml:"watch"`
}

// LLMConfig holds structured-extractor configuration
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	TextLayer     string `yaml:"text_layer"`
	Pdftotext     string `yaml:"pdftotext"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
}

// StoreConfig holds comparison-store configuration
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// ReconcileConfig holds reconciliation and report settings
type ReconcileConfig struct {
	Variant       string `yaml:"variant"`
	CurrencyLabel string `yaml:"currency_label"`
}

// WatchConfig holds directory-watch settings
type WatchConfig struct {
	Dir            string        `yaml:"dir"`
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	Debounce       time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    constants.ProviderOpenAI,
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0,
			Timeout:     90 * time.Second,
			GeminiModel: "gemini-1.5-pro-latest",
		},
		OCR: OCRConfig{
			TextLayer:     constants.TextLayerNative,
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			DPI:           300,
		},
		Store: StoreConfig{
			Driver:          constants.StoreNone,
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		Reconcile: ReconcileConfig{
			Variant:       string(entity.VariantStrict),
			CurrencyLabel: "SAR",
		},
		Watch: WatchConfig{
			Workers:        1,
			QueueSize:      64,
			ProcessTimeout: 5 * time.Minute,
			Debounce:       750 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := DefaultConfig()
	applyEnv(cfg)
	return cfg
}

// LoadConfigFile overlays a YAML file on the defaults; environment variables still win.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %s", path), err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config file %s", path), err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = getEnv("OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", cfg.LLM.GeminiAPIKey))
	cfg.LLM.GeminiModel = getEnv("GEMINI_MODEL", cfg.LLM.GeminiModel)

	cfg.OCR.TextLayer = getEnv("OCR_TEXT_LAYER", cfg.OCR.TextLayer)
	cfg.OCR.Pdftotext = getEnv("OCR_PDFTOTEXT", cfg.OCR.Pdftotext)
	cfg.OCR.Pdftoppm = getEnv("OCR_PDFTOPPM", cfg.OCR.Pdftoppm)
	cfg.OCR.Tesseract = getEnv("OCR_TESSERACT", cfg.OCR.Tesseract)
	cfg.OCR.TesseractLang = getEnv("OCR_LANG", cfg.OCR.TesseractLang)
	cfg.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)
	cfg.OCR.DPI = getEnvAsInt("OCR_DPI", cfg.OCR.DPI)
	cfg.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", cfg.OCR.MaxPages)

	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.DSN = getEnv("STORE_DSN", cfg.Store.DSN)
	cfg.Store.MaxConns = getEnvAsInt32("STORE_MAX_CONNS", cfg.Store.MaxConns)
	cfg.Store.MinConns = getEnvAsInt32("STORE_MIN_CONNS", cfg.Store.MinConns)
	cfg.Store.MaxConnLifetime = getEnvAsDuration("STORE_MAX_CONN_LIFETIME", cfg.Store.MaxConnLifetime)
	cfg.Store.MaxConnIdleTime = getEnvAsDuration("STORE_MAX_CONN_IDLE_TIME", cfg.Store.MaxConnIdleTime)
	cfg.Store.DialTimeout = getEnvAsDuration("STORE_DIAL_TIMEOUT", cfg.Store.DialTimeout)

	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)

	cfg.Reconcile.Variant = strings.ToLower(getEnv("RECONCILE_VARIANT", cfg.Reconcile.Variant))
	cfg.Reconcile.CurrencyLabel = getEnv("CURRENCY_LABEL", cfg.Reconcile.CurrencyLabel)

	cfg.Watch.Dir = getEnv("WATCH_DIR", cfg.Watch.Dir)
	cfg.Watch.Workers = getEnvAsInt("WATCH_WORKERS", cfg.Watch.Workers)
	cfg.Watch.QueueSize = getEnvAsInt("WATCH_QUEUE_SIZE", cfg.Watch.QueueSize)
	cfg.Watch.ProcessTimeout = getEnvAsDuration("WATCH_PROCESS_TIMEOUT", cfg.Watch.ProcessTimeout)
	cfg.Watch.Debounce = getEnvAsDuration("WATCH_DEBOUNCE", cfg.Watch.Debounce)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case constants.ProviderOpenAI, constants.ProviderGemini:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	switch c.Store.Driver {
	case constants.StoreNone, "":
	case constants.StoreSQLite, constants.StorePostgres:
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "STORE_DSN is required when STORE_DRIVER is set", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown STORE_DRIVER %q", c.Store.Driver), ErrInvalidInput)
	}
	switch entity.Variant(c.Reconcile.Variant) {
	case entity.VariantStrict, entity.VariantLenient:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("RECONCILE_VARIANT must be strict or lenient, got %q", c.Reconcile.Variant), ErrInvalidInput)
	}
	switch c.OCR.TextLayer {
	case constants.TextLayerNative, constants.TextLayerPdftotext:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR_TEXT_LAYER %q", c.OCR.TextLayer), ErrInvalidInput)
	}
	return nil
}

// ValidateExtractor checks that the configured LLM provider has credentials.
func (c *Config) ValidateExtractor() error {
	switch c.LLM.Provider {
	case constants.ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	}
	return nil
}

// ValidateServer checks the settings only the daemon needs.
func (c *Config) ValidateServer() error {
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
