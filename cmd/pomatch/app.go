package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/extract"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm/provider"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/reconcile"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/summary"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/render"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
	"github.com/joseph-ayodele/invoice-matcher/internal/server"
)

// app holds what every sub-command needs. close must be called when done.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	db      *repository.DB
	repo    repository.ComparisonRepository
	proc    *core.Processor
	format  *summary.Formatter
	closers []func()
}

type appOptions struct {
	extraction bool // wire text and structured extractors
	store      bool // open the comparison store if configured
}

func newApp(ctx context.Context, o appOptions) (*app, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if variant != "" {
		cfg.Reconcile.Variant = strings.ToLower(variant)
	}
	if currency != "" {
		cfg.Reconcile.CurrencyLabel = currency
	}
	if noPersist {
		cfg.Store.Driver = constants.StoreNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, format: summary.NewFormatter(cfg.Reconcile.CurrencyLabel)}

	engine := reconcile.NewEngine(
		reconcile.WithVariant(entity.ParseVariant(cfg.Reconcile.Variant)),
		reconcile.WithLogger(logger),
	)
	opts := []core.ProcessorOption{core.WithEngine(engine)}

	if o.store {
		db, repo, err := server.ConnectStore(ctx, cfg.Store, logger)
		if err != nil {
			return nil, err
		}
		a.db, a.repo = db, repo
		a.closers = append(a.closers, func() { db.Close(logger) })
		if repo != nil {
			opts = append(opts, core.WithStore(repo))
		}
	}

	var (
		text       extract.DocumentTextExtractor
		structured llm.StructuredExtractor
	)
	if o.extraction {
		if err := cfg.ValidateExtractor(); err != nil {
			a.close()
			return nil, err
		}
		text = extract.NewOCRAdapter(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
		x, release, err := provider.New(ctx, cfg.LLM, logger)
		a.closers = append(a.closers, release)
		if err != nil {
			a.close()
			return nil, err
		}
		structured = x
	}

	a.proc = core.NewProcessor(logger, text, structured, opts...)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) renderer(w io.Writer) (render.ReportRenderer, error) {
	switch outFormat {
	case "", "text":
		return render.NewTextRenderer(w, a.format), nil
	case "json":
		return render.NewJSONRenderer(w, a.format), nil
	default:
		return nil, fmt.Errorf("%w: unknown --format %q", common.ErrInvalidInput, outFormat)
	}
}

func (a *app) show(w io.Writer, c *entity.Comparison) error {
	r, err := a.renderer(w)
	if err != nil {
		return err
	}
	if outFormat != "json" {
		fmt.Fprintf(w, "Comparison %s\n\n", c.ID)
	}
	return r.Render(c.Invoice, c.PO, c.Result)
}

func (a *app) requireStore() error {
	if a.repo == nil {
		return fmt.Errorf("%w: no comparison store configured (set STORE_DRIVER and STORE_DSN)", common.ErrInvalidInput)
	}
	return nil
}
