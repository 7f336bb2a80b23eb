package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/async"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/ingest"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Compare every <name>_invoice / <name>_po pair dropped into a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, appOptions{extraction: true, store: true})
		if err != nil {
			return err
		}
		defer a.close()

		dir := a.cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		// reports from concurrent workers must not interleave
		var mu sync.Mutex
		queue := async.NewProcessorQueue(a.proc, a.logger,
			async.WithWorkers(a.cfg.Watch.Workers),
			async.WithQueueSize(a.cfg.Watch.QueueSize),
			async.WithProcessTimeout(a.cfg.Watch.ProcessTimeout),
			async.WithResultHandler(func(job async.Job, c *entity.Comparison, err error) {
				if err != nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if err := a.show(os.Stdout, c); err != nil {
					a.logger.Error("watch.render.failed", "pair", job.Key, "error", err)
				}
			}),
		)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(sctx)
		}()

		if watchOnce {
			pairs, stats, err := ingest.ScanPairs(dir, true)
			if err != nil {
				return err
			}
			a.logger.Info("watch.scan.done", "dir", dir, "paired", stats.Paired, "unpaired", stats.Unpaired)
			for _, p := range pairs {
				if err := queue.Enqueue(ctx, async.Job{Key: p.Key, InvoicePath: p.InvoicePath, POPath: p.POPath}); err != nil {
					return err
				}
			}
			queue.Shutdown(ctx)
			return nil
		}

		return ingest.NewService(queue, a.cfg.Watch.Debounce, a.logger).Run(ctx, dir)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "compare the pairs already present and exit")
	rootCmd.AddCommand(watchCmd)
}
