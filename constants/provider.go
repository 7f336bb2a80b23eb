package constants

// LLM providers that can act as the structured extractor.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Comparison store drivers. StoreNone disables persistence.
const (
	StoreNone     = "none"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Text-layer strategies for PDFs.
const (
	TextLayerNative    = "native"
	TextLayerPdftotext = "pdftotext"
)

// Section markers prefixed to each document's text in the extraction prompt.
const (
	InvoiceTextMarker = "--- INVOICE TEXT ---"
	POTextMarker      = "--- PO TEXT ---"
)
