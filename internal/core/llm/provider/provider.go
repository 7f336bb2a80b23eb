// Package provider picks the structured extractor named in the configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm/gemini"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm/openai"
)

// New returns the configured extractor and a release func that is always safe to call.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.StructuredExtractor, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case constants.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("llm.provider.ready", "provider", cfg.Provider, "model", cfg.GeminiModel)
		return c, func() {
			if err := c.Close(); err != nil {
				logger.Warn("llm.provider.close_failed", "provider", cfg.Provider, "error", err)
			}
		}, nil
	case constants.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, func() {}, fmt.Errorf("%w: OPENAI_API_KEY is required", common.ErrInvalidInput)
		}
		logger.Info("llm.provider.ready", "provider", constants.ProviderOpenAI, "model", cfg.Model)
		return openai.NewClient(openai.ConfigFrom(cfg), logger), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("%w: unknown LLM provider %q", common.ErrInvalidInput, cfg.Provider)
	}
}
