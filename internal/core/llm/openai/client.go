package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// Extract implements llm.StructuredExtractor using text-only chat/completions.
// Transport failures are returned as they are; anything wrong with the reply
// itself is a *common.StructuredExtractionError.
func (c *Client) Extract(ctx context.Context, req llm.StructuredRequest) (entity.Extraction, []byte, error) {
	start := time.Now()
	c.logger.Info("llm.extract.start",
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"invoice_text_len", len(req.InvoiceText),
		"po_text_len", len(req.POText),
		"invoice_file", req.InvoiceFile,
		"po_file", req.POFile,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Extraction{}, raw, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error", "error", err, "raw_bytes", len(raw))
		return entity.Extraction{}, raw, &common.StructuredExtractionError{Raw: raw, Cause: fmt.Errorf("decode openai response: %w", err)}
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "raw", string(raw))
		return entity.Extraction{}, raw, &common.StructuredExtractionError{Raw: raw, Cause: errors.New("no choices in openai response")}
	}

	content := []byte(cc.Choices[0].Message.Content)
	x, cleaned, err := llm.DecodeExtraction(content, c.logger)
	if err != nil {
		return entity.Extraction{}, content, err
	}

	c.logger.Info("llm.extract.ok",
		"provider", "openai",
		"invoice_no", x.InvoiceData.InvoiceNo,
		"po_no", x.POData.PONo,
		"invoice_items", len(x.InvoiceData.Items),
		"po_items", len(x.POData.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return x, cleaned, nil
}
