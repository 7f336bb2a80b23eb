package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/export"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Comparer is the part of core.Processor the service uses.
type Comparer interface {
	Compare(ctx context.Context, invoicePath, poPath string) (*entity.Comparison, error)
	ReconcileExtraction(ctx context.Context, x entity.Extraction) *entity.Comparison
}

type MatcherService struct {
	proc   Comparer
	repo   repository.ComparisonRepository
	export *export.Service
	logger *slog.Logger
}

// NewMatcherService wires the service. repo may be nil when no store is configured;
// the lookup methods then fail with FailedPrecondition.
func NewMatcherService(proc Comparer, repo repository.ComparisonRepository, exp *export.Service, logger *slog.Logger) *MatcherService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatcherService{proc: proc, repo: repo, export: exp, logger: logger}
}

func (s *MatcherService) Reconcile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	x, err := extractionFromStruct(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	c := s.proc.ReconcileExtraction(ctx, x)
	s.logger.Info("server.reconcile.ok", "comparison_id", c.ID.String(), "status", c.Result.Status)
	return s.comparisonResponse(c)
}

func (s *MatcherService) Compare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	inv := strings.TrimSpace(stringField(req, "invoice_path"))
	po := strings.TrimSpace(stringField(req, "po_path"))
	if inv == "" || po == "" {
		return nil, common.InvalidArgumentError("invoice_path and po_path are required")
	}
	c, err := s.proc.Compare(ctx, inv, po)
	if err != nil {
		s.logger.Error("server.compare.failed", "invoice", inv, "po", po, "error", err)
		return nil, common.ToStatus(err)
	}
	return s.comparisonResponse(c)
}

func (s *MatcherService) GetComparison(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, common.FailedPreconditionError("no comparison store configured")
	}
	id, err := parseID(req.GetValue())
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return s.comparisonResponse(c)
}

func (s *MatcherService) ListComparisons(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, common.FailedPreconditionError("no comparison store configured")
	}
	f := repository.ListFilter{
		Status: entity.Status(strings.ToUpper(strings.TrimSpace(stringField(req, "status")))),
		Limit:  int(req.GetFields()["limit"].GetNumberValue()),
	}
	if f.Status != "" {
		v := common.NewValidator().Field("status", string(f.Status),
			common.OneOf(string(entity.StatusApproved), string(entity.StatusNeedsReview)))
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, common.ToStatus(err)
		}
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.Error("server.list.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"comparisons": list})
}

func (s *MatcherService) ExportComparison(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s.export == nil || s.repo == nil {
		return nil, common.FailedPreconditionError("no comparison store configured")
	}
	id, err := parseID(req.GetValue())
	if err != nil {
		return nil, err
	}
	b, err := s.export.ExportComparisonXLSX(ctx, id)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "comparison_id", id.String(), "error", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *MatcherService) comparisonResponse(c *entity.Comparison) (*structpb.Struct, error) {
	out, err := toStruct(c)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

func parseID(v string) (uuid.UUID, error) {
	v = strings.TrimSpace(v)
	id, err := uuid.Parse(v)
	if err != nil || v == "" {
		return uuid.Nil, common.InvalidArgumentError("comparison id must be a UUID")
	}
	return id, nil
}
