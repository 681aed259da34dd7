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

const defaultBrasilAPIBaseURL = "https://brasilapi.com.br/api/cep/v1"

// BrasilAPIClient queries the BrasilAPI CEP endpoint.
type BrasilAPIClient struct {
	httpClient *http.Client
	baseURL    string
}

// BrasilAPIOption configures optional client behavior.
type BrasilAPIOption func(*BrasilAPIClient)

// WithBrasilAPIHTTPClient overrides the default HTTP client.
func WithBrasilAPIHTTPClient(client *http.Client) BrasilAPIOption {
	return func(c *BrasilAPIClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBrasilAPIBaseURL overrides the configured base URL.
func WithBrasilAPIBaseURL(baseURL string) BrasilAPIOption {
	return func(c *BrasilAPIClient) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewBrasilAPIClient builds the BrasilAPI client.
func NewBrasilAPIClient(opts ...BrasilAPIOption) *BrasilAPIClient {
	client := &BrasilAPIClient{
		baseURL:    defaultBrasilAPIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

func (c *BrasilAPIClient) Source() Source {
	return SourceBrasilAPI
}

// Fetch resolves the code via GET {base}/{cep}. BrasilAPI answers 404 for
// unknown codes.
func (c *BrasilAPIClient) Fetch(ctx context.Context, code string) (*Address, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build brasilapi request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, "brasilapi request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "CEP not found at brasilapi")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "brasilapi request failed")
	}

	var apiResp struct {
		Cep          string `json:"cep"`
		State        string `json:"state"`
		City         string `json:"city"`
		Neighborhood string `json:"neighborhood"`
		Street       string `json:"street"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode brasilapi response")
	}

	if apiResp.City == "" || apiResp.State == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "brasilapi returned an incomplete address")
	}

	return &Address{
		Cep:          code,
		Street:       apiResp.Street,
		Neighborhood: apiResp.Neighborhood,
		City:         apiResp.City,
		State:        apiResp.State,
	}, nil
}
