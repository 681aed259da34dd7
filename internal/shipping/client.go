package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 8192

// RestrictionQuery identifies one vendor/product pair and the destination
// being checked.
type RestrictionQuery struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	Cep       string `json:"cep"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	IBGE      string `json:"ibge,omitempty"`
}

// Verdict is the restriction decision for a single query. Only
// not_delivered blocks checkout; the other types carry informational
// messages.
type Verdict struct {
	Restricted bool                          `json:"restricted"`
	Type       enums.DeliveryRestrictionType `json:"restriction_type,omitempty"`
	Message    string                        `json:"message,omitempty"`
}

// Client calls the external delivery-restriction function.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// ClientOption configures optional client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the restriction-check client from base URL and path.
func NewClient(baseURL, path string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("functions base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		endpoint:   strings.TrimRight(trimmed, "/") + "/" + strings.TrimLeft(path, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CheckRestriction asks whether the vendor delivers the product to the
// destination. A missing function deployment is reported distinctly so
// operators can tell it apart from a transport failure.
func (c *Client) CheckRestriction(ctx context.Context, query RestrictionQuery) (*Verdict, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal restriction query")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build restriction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "restriction check request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "restriction check function is not deployed")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "restriction check failed upstream")
	}

	var verdict Verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&verdict); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode restriction response")
	}
	if verdict.Restricted && verdict.Type != "" && !verdict.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("unknown restriction type %q", verdict.Type))
	}
	return &verdict, nil
}
