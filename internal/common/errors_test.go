package common

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestExtractionError_Is(t *testing.T) {
	cause := errors.New("tesseract: exit status 1")
	err := fmt.Errorf("invoice: %w", &ExtractionError{Path: "inv.pdf", Cause: cause})

	if !errors.Is(err, ErrExtraction) {
		t.Error("expected errors.Is(err, ErrExtraction)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay reachable")
	}
	if errors.Is(err, ErrStructuredExtraction) {
		t.Error("extraction error must not match structured extraction")
	}
}

func TestStructuredExtractionError_KeepsRaw(t *testing.T) {
	err := error(&StructuredExtractionError{Raw: []byte("not json"), Cause: errors.New("decode")})

	var se *StructuredExtractionError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to find StructuredExtractionError")
	}
	if string(se.Raw) != "not json" {
		t.Errorf("got raw %q", se.Raw)
	}
	if !errors.Is(err, ErrStructuredExtraction) {
		t.Error("expected errors.Is(err, ErrStructuredExtraction)")
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("get: %w", ErrNotFound), codes.NotFound},
		{fmt.Errorf("req: %w", ErrValidation), codes.InvalidArgument},
		{&ExtractionError{Path: "x.pdf"}, codes.FailedPrecondition},
		{&StructuredExtractionError{Cause: errors.New("bad")}, codes.FailedPrecondition},
		{errors.New("boom"), codes.Internal},
		{NotFoundError("gone"), codes.NotFound},
		{NewAppError("NOT_CONFIGURED", "extraction is not configured", ErrNotConfigured), codes.FailedPrecondition},
	}
	for _, tt := range tests {
		got := status.Code(ToStatus(tt.err))
		if got != tt.want {
			t.Errorf("ToStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if ToStatus(nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestToStatus_CarriesRawResponse(t *testing.T) {
	raw := []byte("Sure! Here is the invoice: {oops")
	err := fmt.Errorf("invoice: %w", &StructuredExtractionError{Raw: raw, Cause: errors.New("response is not valid JSON")})

	st := ToStatus(err)
	if status.Code(st) != codes.FailedPrecondition {
		t.Fatalf("got code %v", status.Code(st))
	}
	got, ok := RawResponseFromStatus(st)
	if !ok {
		t.Fatal("expected raw response in status details")
	}
	if string(got) != string(raw) {
		t.Errorf("got raw %q, want %q", got, raw)
	}

	if _, ok := RawResponseFromStatus(ToStatus(&StructuredExtractionError{Cause: errors.New("bad")})); ok {
		t.Error("empty raw response should not add details")
	}
}
