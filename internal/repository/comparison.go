package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// created_at is stored as fixed-width UTC text so it sorts the same on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ListFilter narrows ComparisonRepository.List. Zero values mean no filter.
type ListFilter struct {
	Status entity.Status
	Limit  int
}

type ComparisonRepository interface {
	Save(ctx context.Context, c *entity.Comparison) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Comparison, error)
	List(ctx context.Context, f ListFilter) ([]*entity.Comparison, error)
}

type comparisonRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewComparisonRepository(db *DB, logger *slog.Logger) ComparisonRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &comparisonRepository{db: db, logger: logger}
}

func (r *comparisonRepository) Save(ctx context.Context, c *entity.Comparison) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	inv, err := json.Marshal(c.Invoice)
	if err != nil {
		return fmt.Errorf("encode invoice: %w", err)
	}
	po, err := json.Marshal(c.PO)
	if err != nil {
		return fmt.Errorf("encode po: %w", err)
	}
	res, err := json.Marshal(c.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	q := r.db.rebind(`INSERT INTO comparisons
		(id, invoice_file, po_file, invoice_number, po_number, status, variant, mismatches, warnings,
		 invoice_json, po_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.SQL.ExecContext(ctx, q,
		c.ID.String(), c.InvoiceFile, c.POFile,
		c.Result.InvoiceNumber, c.Result.PONumber,
		string(c.Result.Status), string(c.Result.Variant),
		c.Result.Mismatches(), c.Result.Warnings(),
		string(inv), string(po), string(res),
		c.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		r.logger.Error("repository.comparison.save_failed", "id", c.ID, "error", err)
		return fmt.Errorf("%w: save comparison: %v", common.ErrDatabase, err)
	}
	r.logger.Debug("repository.comparison.saved", "id", c.ID, "status", c.Result.Status)
	return nil
}

const selectColumns = `SELECT id, invoice_file, po_file, invoice_json, po_json, result_json, created_at FROM comparisons`

func (r *comparisonRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Comparison, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(selectColumns+` WHERE id = ?`), id.String())
	c, err := scanComparison(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: comparison %s", common.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("repository.comparison.get_failed", "id", id, "error", err)
		return nil, fmt.Errorf("%w: get comparison: %v", common.ErrDatabase, err)
	}
	return c, nil
}

func (r *comparisonRepository) List(ctx context.Context, f ListFilter) ([]*entity.Comparison, error) {
	q := selectColumns
	var args []any
	if f.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		r.logger.Error("repository.comparison.list_failed", "error", err)
		return nil, fmt.Errorf("%w: list comparisons: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Comparison
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan comparison: %v", common.ErrDatabase, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list comparisons: %v", common.ErrDatabase, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComparison(s scanner) (*entity.Comparison, error) {
	var (
		id, created  string
		inv, po, res string
		c            entity.Comparison
	)
	if err := s.Scan(&id, &c.InvoiceFile, &c.POFile, &inv, &po, &res, &created); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if c.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(inv), &c.Invoice); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if err := json.Unmarshal([]byte(po), &c.PO); err != nil {
		return nil, fmt.Errorf("decode po: %w", err)
	}
	if err := json.Unmarshal([]byte(res), &c.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &c, nil
}
