package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/summary"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/export"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	db, repo, err := ConnectStore(ctx, common.StoreConfig{
		Driver: constants.StoreSQLite,
		DSN:    filepath.Join(t.TempDir(), "server.db"),
	}, logger)
	if err != nil {
		t.Fatalf("ConnectStore: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })

	proc := core.NewProcessor(logger, nil, nil, core.WithStore(repo))
	svc := NewMatcherService(proc, repo, export.NewService(repo, summary.NewFormatter("SAR"), logger), logger)
	return serve(t, svc, logger)
}

func serve(t *testing.T, svc *MatcherService, logger *slog.Logger) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogging(logger), UnaryRecovery(logger)))
	RegisterMatcherServiceServer(gs, svc)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func doc(po string, total float64, qty float64) map[string]any {
	return map[string]any{
		"invoice_no": "INV-7",
		"po_no":      po,
		"vendor":     "Acme Trading",
		"total":      total,
		"items": []any{
			map[string]any{"description": "Culture Steel Pipe", "quantity": qty, "price": 100.0},
		},
	}
}

func TestMatcherService_ReconcileRoundTrip(t *testing.T) {
	conn := startServer(t)
	ctx := context.Background()

	req := mustStruct(t, map[string]any{
		"invoice_data": doc("PO-7", 500, 5),
		"po_data":      doc("PO-7", 500, 5),
	})
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, MethodReconcile, req, out); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	result := out.GetFields()["result"].GetStructValue()
	if got := result.GetFields()["status"].GetStringValue(); got != "APPROVED" {
		t.Fatalf("status = %q", got)
	}
	id := out.GetFields()["id"].GetStringValue()

	got := new(structpb.Struct)
	if err := conn.Invoke(ctx, MethodGetComparison, wrapperspb.String(id), got); err != nil {
		t.Fatalf("GetComparison: %v", err)
	}
	if got.GetFields()["id"].GetStringValue() != id {
		t.Fatalf("GetComparison returned %v", got)
	}

	list := new(structpb.Struct)
	if err := conn.Invoke(ctx, MethodListComparisons, mustStruct(t, map[string]any{"status": "approved"}), list); err != nil {
		t.Fatalf("ListComparisons: %v", err)
	}
	if n := len(list.GetFields()["comparisons"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("listed %d comparisons, want 1", n)
	}

	xlsx := new(wrapperspb.BytesValue)
	if err := conn.Invoke(ctx, MethodExportComparison, wrapperspb.String(id), xlsx); err != nil {
		t.Fatalf("ExportComparison: %v", err)
	}
	if !bytes.HasPrefix(xlsx.GetValue(), []byte("PK")) {
		t.Fatal("export is not a zip container")
	}
}

func TestMatcherService_Errors(t *testing.T) {
	conn := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		in     any
		out    any
		code   codes.Code
	}{
		{"reconcile missing po_data", MethodReconcile, mustStruct(t, map[string]any{"invoice_data": doc("PO-1", 1, 1)}), new(structpb.Struct), codes.InvalidArgument},
		{"get bad id", MethodGetComparison, wrapperspb.String("nope"), new(structpb.Struct), codes.InvalidArgument},
		{"get unknown id", MethodGetComparison, wrapperspb.String(uuid.NewString()), new(structpb.Struct), codes.NotFound},
		{"compare without paths", MethodCompare, mustStruct(t, map[string]any{}), new(structpb.Struct), codes.InvalidArgument},
		{"compare unsupported file", MethodCompare, mustStruct(t, map[string]any{"invoice_path": "a.docx", "po_path": "b.pdf"}), new(structpb.Struct), codes.InvalidArgument},
		{"compare without extractors", MethodCompare, mustStruct(t, map[string]any{"invoice_path": "a.pdf", "po_path": "b.pdf"}), new(structpb.Struct), codes.FailedPrecondition},
		{"list bad status", MethodListComparisons, mustStruct(t, map[string]any{"status": "maybe"}), new(structpb.Struct), codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := conn.Invoke(ctx, tt.method, tt.in, tt.out)
			if status.Code(err) != tt.code {
				t.Fatalf("code = %v (%v), want %v", status.Code(err), err, tt.code)
			}
		})
	}
}

func TestMatcherService_NoStore(t *testing.T) {
	svc := NewMatcherService(core.NewProcessor(nil, nil, nil), nil, nil, nil)
	_, err := svc.GetComparison(context.Background(), wrapperspb.String(uuid.NewString()))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v", status.Code(err))
	}
}

// brokenComparer fails Compare with an unparseable extractor reply and panics on
// ReconcileExtraction.
type brokenComparer struct {
	raw string
}

func (b brokenComparer) Compare(context.Context, string, string) (*entity.Comparison, error) {
	return nil, &common.StructuredExtractionError{Raw: []byte(b.raw), Cause: errors.New("response is not valid JSON")}
}

func (b brokenComparer) ReconcileExtraction(context.Context, entity.Extraction) *entity.Comparison {
	panic("reconcile exploded")
}

func TestMatcherService_CompareReturnsRawResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	raw := "I could not read the table, sorry. RAWMARKER"
	conn := serve(t, NewMatcherService(brokenComparer{raw: raw}, nil, nil, logger), logger)

	req := mustStruct(t, map[string]any{"invoice_path": "inv.pdf", "po_path": "po.pdf"})
	err := conn.Invoke(context.Background(), MethodCompare, req, new(structpb.Struct))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v (%v), want FailedPrecondition", status.Code(err), err)
	}
	got, ok := common.RawResponseFromStatus(err)
	if !ok {
		t.Fatal("expected raw response in status details")
	}
	if string(got) != raw {
		t.Fatalf("raw = %q, want %q", got, raw)
	}
}

func TestMatcherService_PanicBecomesInternal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := serve(t, NewMatcherService(brokenComparer{}, nil, nil, logger), logger)
	ctx := context.Background()

	req := mustStruct(t, map[string]any{
		"invoice_data": doc("PO-7", 500, 5),
		"po_data":      doc("PO-7", 500, 5),
	})
	err := conn.Invoke(ctx, MethodReconcile, req, new(structpb.Struct))
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v (%v), want Internal", status.Code(err), err)
	}

	// the server keeps serving after the panic
	err = conn.Invoke(ctx, MethodCompare, mustStruct(t, map[string]any{}), new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code after panic = %v, want InvalidArgument", status.Code(err))
	}
}
