package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternal             = errors.New("internal error")
	ErrDatabase             = errors.New("database error")
	ErrValidation           = errors.New("validation failed")
	ErrExtraction           = errors.New("text extraction failed")
	ErrStructuredExtraction = errors.New("structured extraction failed")
	ErrNotConfigured        = errors.New("not configured")
)

// ExtractionError reports a source document whose text could not be recovered
// by any strategy.
type ExtractionError struct {
	Path     string
	Warnings []string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract text from %q: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("extract text from %q: no text recovered", e.Path)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// StructuredExtractionError reports extractor output that is not JSON or does not
// match the record schema. Raw keeps the unparsed response for diagnosis.
type StructuredExtractionError struct {
	Raw   []byte
	Cause error
}

func (e *StructuredExtractionError) Error() string {
	return fmt.Sprintf("structured extraction: %v", e.Cause)
}

func (e *StructuredExtractionError) Unwrap() error { return e.Cause }

func (e *StructuredExtractionError) Is(target error) bool {
	return target == ErrStructuredExtraction
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func FailedPreconditionError(message string) error {
	return status.Error(codes.FailedPrecondition, message)
}

// ToStatus maps pipeline errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}
	var se *StructuredExtractionError
	if errors.As(err, &se) {
		st := status.New(codes.FailedPrecondition, err.Error())
		if len(se.Raw) > 0 {
			if withRaw, dErr := st.WithDetails(wrapperspb.Bytes(se.Raw)); dErr == nil {
				st = withRaw
			}
		}
		return st.Err()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrStructuredExtraction), errors.Is(err, ErrNotConfigured):
		return FailedPreconditionError(err.Error())
	default:
		return InternalError(err.Error())
	}
}

// RawResponseFromStatus returns the extractor response carried by a status built
// by ToStatus from a StructuredExtractionError.
func RawResponseFromStatus(err error) ([]byte, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, d := range st.Details() {
		if b, ok := d.(*wrapperspb.BytesValue); ok {
			return b.GetValue(), true
		}
	}
	return nil, false
}
