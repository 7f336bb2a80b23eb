// Package gemini implements llm.StructuredExtractor on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

type Config struct {
	APIKey      string
	Model       string // default gemini-1.5-pro-latest
	Temperature float32
	Timeout     time.Duration
}

// ConfigFrom maps the application LLM settings onto a client Config.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.GeminiAPIKey,
		Model:       c.GeminiModel,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}

type Client struct {
	cfg    Config
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro-latest"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", common.ErrInvalidInput)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(llm.SystemPrompt))

	return &Client{cfg: cfg, client: client, model: model, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Extract implements llm.StructuredExtractor.
func (c *Client) Extract(ctx context.Context, req llm.StructuredRequest) (entity.Extraction, []byte, error) {
	start := time.Now()
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	c.logger.Info("llm.extract.start",
		"provider", "gemini",
		"model", c.cfg.Model,
		"invoice_text_len", len(req.InvoiceText),
		"po_text_len", len(req.POText),
	)

	resp, err := c.model.GenerateContent(ctx, genai.Text(llm.BuildUserPrompt(req)))
	if err != nil {
		c.logger.Error("llm.extract.http_error", "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.Extraction{}, nil, fmt.Errorf("gemini: %w", err)
	}

	text, truncated, err := replyText(resp)
	if err != nil {
		return entity.Extraction{}, nil, &common.StructuredExtractionError{Cause: err}
	}
	if truncated {
		c.logger.Warn("llm.extract.truncated", "provider", "gemini", "chars", len(text))
	}

	raw := []byte(text)
	x, cleaned, err := llm.DecodeExtraction(raw, c.logger)
	if err != nil {
		return entity.Extraction{}, raw, err
	}
	c.logger.Info("llm.extract.ok",
		"provider", "gemini",
		"invoice_no", x.InvoiceData.InvoiceNo,
		"po_no", x.POData.PONo,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return x, cleaned, nil
}

// replyText joins the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) (string, bool, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false, errors.New("no candidates in gemini response")
	}
	cand := resp.Candidates[0]
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", false, errors.New("empty gemini response")
	}
	return b.String(), cand.FinishReason == genai.FinishReasonMaxTokens, nil
}
