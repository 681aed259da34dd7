package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

const defaultViaCepBaseURL = "https://viacep.com.br/ws"

// ViaCepClient queries the ViaCEP public API.
type ViaCepClient struct {
	httpClient *http.Client
	baseURL    string
}

// ViaCepOption configures optional client behavior.
type ViaCepOption func(*ViaCepClient)

// WithViaCepHTTPClient overrides the default HTTP client.
func WithViaCepHTTPClient(client *http.Client) ViaCepOption {
	return func(c *ViaCepClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithViaCepBaseURL overrides the configured base URL.
func WithViaCepBaseURL(baseURL string) ViaCepOption {
	return func(c *ViaCepClient) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewViaCepClient builds the ViaCEP client.
func NewViaCepClient(opts ...ViaCepOption) *ViaCepClient {
	client := &ViaCepClient{
		baseURL:    defaultViaCepBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

func (c *ViaCepClient) Source() Source {
	return SourceViaCep
}

// Fetch resolves the code via GET {base}/{cep}/json/. ViaCEP answers 200 with
// {"erro": true} for unknown codes instead of a 404.
func (c *ViaCepClient) Fetch(ctx context.Context, code string) (*Address, error) {
	url := fmt.Sprintf("%s/%s/json/", strings.TrimRight(c.baseURL, "/"), code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build viacep request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, "viacep request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "viacep rejected the code format")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "viacep request failed")
	}

	var apiResp struct {
		Cep        string `json:"cep"`
		Logradouro string `json:"logradouro"`
		Bairro     string `json:"bairro"`
		Localidade string `json:"localidade"`
		UF         string `json:"uf"`
		IBGE       string `json:"ibge"`
		Erro       any    `json:"erro"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode viacep response")
	}

	if viaCepErroSet(apiResp.Erro) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "CEP not found at viacep")
	}
	if apiResp.Localidade == "" || apiResp.UF == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "viacep returned an incomplete address")
	}

	return &Address{
		Cep:          code,
		Street:       apiResp.Logradouro,
		Neighborhood: apiResp.Bairro,
		City:         apiResp.Localidade,
		State:        apiResp.UF,
		IBGE:         apiResp.IBGE,
	}, nil
}

// ViaCEP has shipped "erro" as both a bool and the string "true".
func viaCepErroSet(v any) bool {
	switch e := v.(type) {
	case bool:
		return e
	case string:
		return strings.EqualFold(e, "true")
	default:
		return false
	}
}
