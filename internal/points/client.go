package points

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

// AdjustRequest is the payload sent to the points adjustment function. The
// token is minted fresh for every submission and doubles as the dedup key.
type AdjustRequest struct {
	UserID  string `json:"user_id"`
	Points  int64  `json:"points"`
	Reason  string `json:"reason"`
	OrderID string `json:"order_id,omitempty"`
	Token   string `json:"submission_token"`
}

// AdjustResponse is the function's verdict.
type AdjustResponse struct {
	Success       bool   `json:"success"`
	BalancePoints int64  `json:"balance_points"`
	Message       string `json:"message,omitempty"`
}

// Client calls the external points adjustment function.
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

// NewClient builds the points function client from base URL and path.
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

// AdjustPoints submits one adjustment to the external function.
func (c *Client) AdjustPoints(ctx context.Context, req AdjustRequest) (*AdjustResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal points adjustment")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build points adjustment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "points adjustment request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "points adjustment function is not deployed")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "points adjustment failed upstream")
	}

	var verdict AdjustResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&verdict); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode points adjustment response")
	}
	return &verdict, nil
}
