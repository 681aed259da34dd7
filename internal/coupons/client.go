package coupons

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 8192

// ValidationRequest is the payload sent to the server-side validation
// function. Items are normalized before this struct is built.
type ValidationRequest struct {
	Code       string          `json:"code"`
	OrderValue int64           `json:"order_value_cents"`
	UserID     string          `json:"user_id"`
	CartItems  []SubmittedItem `json:"cart_items"`
}

// SubmittedItem is one normalized cart row.
type SubmittedItem struct {
	ProductID  string `json:"product_id"`
	Quantity   string `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// ValidationResponse is the server's tagged verdict. The message is owned by
// the server and surfaced verbatim on rejection.
type ValidationResponse struct {
	Valid            bool     `json:"valid"`
	DiscountCents    int64    `json:"discount_amount_cents"`
	Message          string   `json:"message"`
	EligibleProducts []string `json:"eligible_products"`
}

// Client calls the external coupon validation function.
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

// NewClient builds the coupon function client from base URL and path.
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

// Validate submits the coupon for server-side validation. A 404 from the
// function host means the function is not deployed — that produces a
// distinct, actionable error instead of a generic transport failure.
func (c *Client) Validate(ctx context.Context, req ValidationRequest) (*ValidationResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal coupon validation request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build coupon validation request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "coupon validation request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "coupon validation function is not deployed")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "coupon validation failed upstream")
	}

	var verdict ValidationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&verdict); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode coupon validation response")
	}
	return &verdict, nil
}
