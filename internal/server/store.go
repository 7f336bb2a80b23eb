package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
)

// ConnectStore opens the comparison store named by cfg. A nil DB and repository are
// returned when persistence is disabled.
func ConnectStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*repository.DB, repository.ComparisonRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Driver == "" || cfg.Driver == constants.StoreNone {
		logger.Info("store.disabled")
		return nil, nil, nil
	}

	logger.Info("store.connecting", "driver", cfg.Driver)
	db, err := repository.Open(ctx, repository.ConfigFrom(cfg), logger)
	if err != nil {
		logger.Error("store.connect.failed", "driver", cfg.Driver, "error", err)
		return nil, nil, err
	}
	if err := PingStore(ctx, db, logger, cfg.DialTimeout); err != nil {
		db.Close(logger)
		return nil, nil, err
	}
	logger.Info("store.connected", "driver", cfg.Driver)
	return db, repository.NewComparisonRepository(db, logger), nil
}

// PingStore checks the store responds within timeout.
func PingStore(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("store.ping.failed", "error", err)
		return err
	}
	logger.Debug("store.ping.ok")
	return nil
}
