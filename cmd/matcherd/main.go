package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/async"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/extract"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm/provider"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/reconcile"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/summary"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/export"
	"github.com/joseph-ayodele/invoice-matcher/internal/ingest"
	"github.com/joseph-ayodele/invoice-matcher/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid server config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repo, err := server.ConnectStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open comparison store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	// Extraction is optional for the daemon: Reconcile works without it.
	text := extract.NewOCRAdapter(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
	structured, release, err := provider.New(ctx, cfg.LLM, logger)
	defer release()
	if err != nil {
		logger.Warn("structured extractor unavailable; Compare is disabled", "error", err)
	}

	engine := reconcile.NewEngine(
		reconcile.WithVariant(entity.ParseVariant(cfg.Reconcile.Variant)),
		reconcile.WithLogger(logger),
	)
	opts := []core.ProcessorOption{core.WithEngine(engine)}
	if repo != nil {
		opts = append(opts, core.WithStore(repo))
	}
	proc := core.NewProcessor(logger, text, structured, opts...)

	format := summary.NewFormatter(cfg.Reconcile.CurrencyLabel)
	var exporter *export.Service
	if repo != nil {
		exporter = export.NewService(repo, format, logger)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		server.UnaryLogging(logger),
		server.UnaryRecovery(logger),
	))
	server.RegisterMatcherServiceServer(grpcServer, server.NewMatcherService(proc, repo, exporter, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// Optional watch folder feeding the same processor.
	var queue *async.ProcessorQueue
	if cfg.Watch.Dir != "" && structured != nil {
		queue = async.NewProcessorQueue(proc, logger,
			async.WithWorkers(cfg.Watch.Workers),
			async.WithQueueSize(cfg.Watch.QueueSize),
			async.WithProcessTimeout(cfg.Watch.ProcessTimeout),
		)
		watcher := ingest.NewService(queue, cfg.Watch.Debounce, logger)
		go func() {
			if err := watcher.Run(ctx, cfg.Watch.Dir); err != nil {
				logger.Error("watch stopped", "dir", cfg.Watch.Dir, "error", err)
			}
		}()
	}

	logger.Info("matcherd listening",
		"addr", cfg.Server.GRPCAddr,
		"variant", proc.Variant(),
		"store", cfg.Store.Driver,
		"watch_dir", cfg.Watch.Dir,
	)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	if queue != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		queue.Shutdown(sctx)
		cancel()
	}
	grpcServer.GracefulStop()
}
