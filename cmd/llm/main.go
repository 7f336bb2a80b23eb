package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/extract"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm/provider"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/reconcile"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// runllm compares the same pair several times to check the extractor gives a stable verdict.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		logger.Error("usage: runllm <invoice-file> <po-file> [times]")
		os.Exit(2)
	}
	invoicePath, poPath := os.Args[1], os.Args[2]
	times := 5
	if len(os.Args) >= 4 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.ValidateExtractor(); err != nil {
		logger.Error("extractor not configured", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	structured, release, err := provider.New(ctx, cfg.LLM, logger)
	defer release()
	if err != nil {
		logger.Error("llm provider", "error", err)
		os.Exit(1)
	}
	text := extract.NewOCRAdapter(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
	engine := reconcile.NewEngine(reconcile.WithVariant(entity.ParseVariant(cfg.Reconcile.Variant)))
	processor := core.NewProcessor(logger, text, structured, core.WithEngine(engine))

	verdicts := map[entity.Status]int{}
	base := filepath.Base(invoicePath)
	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(ctx, 2*time.Minute)
		start := time.Now()
		logger.Info("compare.run.start", "iter", i, "invoice", base)

		c, err := processor.Compare(runCtx, invoicePath, poPath)
		cancelRun()

		if err != nil {
			logger.Error("compare.run.error", "iter", i, "err", err)
		} else {
			verdicts[c.Result.Status]++
			logger.Info("compare.run.ok",
				"iter", i,
				"status", c.Result.Status,
				"mismatches", c.Result.Mismatches(),
				"warnings", c.Result.Warnings(),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}

		time.Sleep(750 * time.Millisecond)
	}

	logger.Info("done",
		"invoice", base,
		"times", times,
		"approved", verdicts[entity.StatusApproved],
		"needs_review", verdicts[entity.StatusNeedsReview],
		"stable", len(verdicts) <= 1,
	)
}
