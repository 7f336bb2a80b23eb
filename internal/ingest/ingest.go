package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/async"
)

// Service turns file events into comparison jobs.
type Service struct {
	queue    async.Queue
	pairer   *Pairer
	logger   *slog.Logger
	debounce time.Duration
}

func NewService(queue async.Queue, debounce time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queue: queue, pairer: NewPairer(), logger: logger, debounce: debounce}
}

// Run watches root, including files already present, and enqueues every complete
// pair. It returns when ctx is done or the watcher stops.
func (s *Service) Run(ctx context.Context, root string) error {
	events, errs, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    s.debounce,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, ev); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("ingest.watch.error", "error", err)
		}
	}
}

// Handle applies one event to the pairer and enqueues the pair when it is complete.
func (s *Service) Handle(ctx context.Context, ev Event) error {
	if ev.Removed {
		s.pairer.Forget(ev.Path)
		s.logger.Debug("ingest.file.removed", "path", ev.Path)
		return nil
	}
	pr, complete := s.pairer.Observe(ev.Path)
	if pr.Key == "" {
		s.logger.Debug("ingest.file.ignored", "path", ev.Path)
		return nil
	}
	if !complete {
		s.logger.Info("ingest.pair.waiting", "pair", pr.Key, "path", ev.Path)
		return nil
	}
	return s.queue.Enqueue(ctx, async.Job{
		Key:         pr.Key,
		InvoicePath: pr.InvoicePath,
		POPath:      pr.POPath,
		SubmittedAt: time.Now(),
	})
}
