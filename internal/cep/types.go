package cep

import "time"

// Source identifies which tier of the resolution pipeline produced a result.
type Source string

const (
	SourceMemoryCache    Source = "local-cache"
	SourcePersistedCache Source = "persisted-cache"
	SourceViaCep         Source = "viacep-api"
	SourceBrasilAPI      Source = "brasilapi-api"
	SourceFallback       Source = "regional-fallback"
)

// Confidence degrades as the source moves from a direct cache hit toward the
// regional fallback table.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Address is the raw payload returned by an upstream provider.
type Address struct {
	Cep          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	IBGE         string `json:"ibge,omitempty"`
}

// SourceAddress pairs a provider payload with the source that produced it.
// Kept on the result whenever sources disagree, so neither value is lost.
type SourceAddress struct {
	Source  Source  `json:"source"`
	Address Address `json:"address"`
}

// Result is the normalized outcome of a postal-code resolution.
type Result struct {
	Cep          string          `json:"cep"`
	Street       string          `json:"logradouro"`
	Neighborhood string          `json:"bairro"`
	City         string          `json:"localidade"`
	State        string          `json:"uf"`
	DeliveryZone string          `json:"zona_entrega,omitempty"`
	IBGE         string          `json:"ibge,omitempty"`
	Source       Source          `json:"source"`
	Confidence   Confidence      `json:"confidence"`
	Discrepancy  bool            `json:"discrepancy,omitempty"`
	Candidates   []SourceAddress `json:"candidates,omitempty"`
}

// SourceStatus reports the outcome of one provider call during diagnostics.
type SourceStatus struct {
	Source   Source        `json:"source"`
	OK       bool          `json:"ok"`
	Address  *Address      `json:"address,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// Diagnostic is the full report produced by RunDiagnostic.
type Diagnostic struct {
	Cep         string         `json:"cep"`
	Statuses    []SourceStatus `json:"statuses"`
	Reconciled  *Result        `json:"reconciled,omitempty"`
	Discrepancy bool           `json:"discrepancy"`
	Suggestions []string       `json:"suggestions,omitempty"`
}
