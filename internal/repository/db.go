package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
)

type Config struct {
	Driver          string // constants.StoreSQLite | constants.StorePostgres
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ConfigFrom maps the application store settings onto a repository Config.
func ConfigFrom(c common.StoreConfig) Config {
	return Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		DialTimeout:     c.DialTimeout,
	}
}

// DB is an open comparison store. Postgres connections go through a pgx pool
// wrapped as *sql.DB; SQLite uses the pure-Go driver.
type DB struct {
	SQL    *sql.DB
	Driver string
	pool   *pgxpool.Pool
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS comparisons (
	id             TEXT PRIMARY KEY,
	invoice_file   TEXT NOT NULL DEFAULT '',
	po_file        TEXT NOT NULL DEFAULT '',
	invoice_number TEXT NOT NULL,
	po_number      TEXT NOT NULL,
	status         TEXT NOT NULL,
	variant        TEXT NOT NULL,
	mismatches     INTEGER NOT NULL,
	warnings       INTEGER NOT NULL,
	invoice_json   TEXT NOT NULL,
	po_json        TEXT NOT NULL,
	result_json    TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS comparisons_created_at_idx ON comparisons (created_at);
CREATE INDEX IF NOT EXISTS comparisons_status_idx ON comparisons (status);
`

// Open connects to the configured store and creates the schema if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("repository.open", "driver", cfg.Driver)

	var (
		d   *DB
		err error
	)
	switch cfg.Driver {
	case constants.StorePostgres:
		d, err = openPostgres(ctx, cfg)
	case constants.StoreSQLite:
		d, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported store driver %q", common.ErrInvalidInput, cfg.Driver)
	}
	if err != nil {
		logger.Error("repository.open.failed", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	if err := d.Migrate(ctx); err != nil {
		d.Close(logger)
		return nil, err
	}
	logger.Info("repository.open.ok", "driver", cfg.Driver)
	return d, nil
}

func openPostgres(ctx context.Context, cfg Config) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-matcher"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{SQL: stdlib.OpenDBFromPool(pool), Driver: constants.StorePostgres, pool: pool}, nil
}

func openSQLite(cfg Config) (*DB, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)
	return &DB{SQL: db, Driver: constants.StoreSQLite}, nil
}

// Migrate creates the comparisons table and its indexes.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
		}
	}
	return nil
}

// Close closes the database connections gracefully.
func (d *DB) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := d.SQL.Close(); err != nil {
		logger.Error("repository.close.failed", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("repository.closed", "driver", d.Driver)
}

// HealthCheck pings the store.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return d.SQL.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *DB) rebind(query string) string {
	if d.Driver != constants.StorePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
