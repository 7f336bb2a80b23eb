package llm

// BuildExtractionJSONSchema returns the JSON Schema the model output must satisfy.
// Numbers may arrive as JSON numbers, strings or null; they are parsed later.
func BuildExtractionJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"invoice_data", "po_data"},
		"properties": map[string]any{
			"invoice_data": documentSchema(true),
			"po_data":      documentSchema(false),
		},
	}
}

func documentSchema(invoice bool) map[string]any {
	props := map[string]any{
		"po_no":  identifierProp(),
		"date":   identifierProp(),
		"vendor": identifierProp(),
		"total":  numericProp(),
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"description"},
				"properties": map[string]any{
					"description": map[string]any{"type": "string"},
					"quantity":    numericProp(),
					"price":       numericProp(),
				},
			},
		},
	}
	if invoice {
		props["invoice_no"] = identifierProp()
	}
	return map[string]any{
		"type":       "object",
		"required":   []string{"items"},
		"properties": props,
	}
}

func identifierProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}

func numericProp() map[string]any {
	return map[string]any{"type": []string{"number", "string", "null"}}
}
