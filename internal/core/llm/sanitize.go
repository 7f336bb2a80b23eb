package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

var (
	docSynonyms = map[string]string{
		"invoice":        "invoice_data",
		"purchase_order": "po_data",
		"po":             "po_data",
	}
	fieldSynonyms = map[string]string{
		"total_amount": "total",
		"vendor_name":  "vendor",
		"line_items":   "items",
	}
	itemSynonyms = map[string]string{
		"qty":        "quantity",
		"unit_price": "price",
		"name":       "description",
	}
)

// StripCodeFences removes markdown code fences models like to wrap JSON in.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// SanitizeExtraction repairs the shape slips models commonly make: synonym keys,
// null or missing item lists, non-object items and non-string descriptions.
// It returns the cleaned document and a list of what changed.
func SanitizeExtraction(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changes []string
	rename(m, docSynonyms, "", &changes)

	for _, key := range []string{"invoice_data", "po_data"} {
		d, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		rename(d, fieldSynonyms, key+".", &changes)

		raw, isList := d["items"].([]any)
		if !isList {
			changes = append(changes, key+".items(reset)")
		}
		kept := make([]any, 0, len(raw))
		for i, it := range raw {
			im, ok := it.(map[string]any)
			if !ok {
				changes = append(changes, fmt.Sprintf("%s.items[%d](dropped)", key, i))
				continue
			}
			rename(im, itemSynonyms, fmt.Sprintf("%s.items[%d].", key, i), &changes)
			switch v := im["description"].(type) {
			case string:
			case float64:
				im["description"] = strconv.FormatFloat(v, 'f', -1, 64)
				changes = append(changes, fmt.Sprintf("%s.items[%d].description(number)", key, i))
			default:
				im["description"] = ""
				changes = append(changes, fmt.Sprintf("%s.items[%d].description(empty)", key, i))
			}
			kept = append(kept, im)
		}
		d["items"] = kept
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, changes, nil
}

func rename(m map[string]any, synonyms map[string]string, path string, changes *[]string) {
	for from, to := range synonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		*changes = append(*changes, path+from+"->"+to)
	}
}

// DecodeExtraction turns a model reply into records. The reply is validated
// against the extraction schema; on failure one sanitize pass is attempted before
// giving up. The returned bytes are the JSON actually decoded.
func DecodeExtraction(reply []byte, logger *slog.Logger) (entity.Extraction, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	content := []byte(StripCodeFences(string(reply)))
	if len(content) == 0 || !json.Valid(content) {
		logger.Error("llm.extract.invalid_json", "bytes", len(reply), "raw", rawPreview(reply))
		return entity.Extraction{}, nil, &common.StructuredExtractionError{
			Raw:   reply,
			Cause: errors.New("response is not valid JSON"),
		}
	}

	if err := ValidateExtractionJSON(content); err != nil {
		cleaned, changes, sErr := SanitizeExtraction(content)
		if sErr != nil {
			logger.Error("llm.extract.sanitize_failed", "error", sErr)
			return entity.Extraction{}, nil, &common.StructuredExtractionError{Raw: reply, Cause: fmt.Errorf("%w (sanitize: %v)", err, sErr)}
		}
		if vErr := ValidateExtractionJSON(cleaned); vErr != nil {
			logger.Error("llm.extract.schema_validation_failed", "error", vErr, "content", string(content))
			return entity.Extraction{}, nil, &common.StructuredExtractionError{Raw: reply, Cause: vErr}
		}
		logger.Warn("llm.extract.lenient_sanitize_applied", "changes", changes)
		content = cleaned
	}

	var x entity.Extraction
	if err := json.Unmarshal(content, &x); err != nil {
		logger.Error("llm.extract.unmarshal_failed", "error", err)
		return entity.Extraction{}, nil, &common.StructuredExtractionError{Raw: reply, Cause: fmt.Errorf("unmarshal records: %w", err)}
	}
	return x, content, nil
}

const rawPreviewLimit = 2000

// rawPreview trims an extractor reply for logging.
func rawPreview(reply []byte) string {
	if len(reply) <= rawPreviewLimit {
		return string(reply)
	}
	return string(reply[:rawPreviewLimit]) + "...(truncated)"
}
