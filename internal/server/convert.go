package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// toStruct round-trips v through its JSON tags so the wire shape matches the CLI output.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

func extractionFromStruct(s *structpb.Struct) (entity.Extraction, error) {
	var x entity.Extraction
	if s == nil {
		return x, fmt.Errorf("%w: empty request", common.ErrInvalidInput)
	}
	fields := s.GetFields()
	if _, ok := fields["invoice_data"]; !ok {
		return x, fmt.Errorf("%w: invoice_data is required", common.ErrInvalidInput)
	}
	if _, ok := fields["po_data"]; !ok {
		return x, fmt.Errorf("%w: po_data is required", common.ErrInvalidInput)
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return x, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return x, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return x, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}
