// Package rivian implements the session, telemetry and account ports against
// the vehicle manufacturer's GraphQL gateway.
package rivian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// DefaultBaseURL is the production GraphQL root.
const DefaultBaseURL = "https://rivian.com/api/gql"

const (
	gatewayPath = "/gateway/graphql"
	ordersPath  = "/orders/graphql"
)

const (
	userAgent  = "RivianApp/1304 CFNetwork/1404.0.5 Darwin/22.3.0"
	clientName = "com.rivian.ios.consumer-apollo-ios"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Compile-time interface satisfaction checks.
var (
	_ driven.SessionExchanger = (*Client)(nil)
	_ driven.TelemetrySource  = (*Client)(nil)
	_ driven.AccountClient    = (*Client)(nil)
)

// Client talks to the GraphQL gateway. All methods are safe for sequential
// use; requests are paced by a token-bucket limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	newID      func() string
}

// NewClient creates a Client for the given GraphQL root (DefaultBaseURL in
// production) with a 30-second request timeout and at most 4 requests per second.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
		newID:      uuid.NewString,
	}
}

// NewClientWithHTTPClient creates an unthrottled Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		newID:      uuid.NewString,
	}
}

// graphqlRequest is the JSON body sent to the gateway.
type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// graphqlError is one entry of a GraphQL "errors" array.
type graphqlError struct {
	Message string `json:"message"`
}

// rawResponse is a completed HTTP exchange.
type rawResponse struct {
	StatusCode int
	Body       []byte
}

// post sends one GraphQL operation and returns the raw status and body. Only
// network and encoding failures are returned as errors; status handling is
// left to the caller because login and telemetry classify failures differently.
func (c *Client) post(ctx context.Context, path string, req graphqlRequest, headers http.Header) (*rawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", req.OperationName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", req.OperationName, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", req.OperationName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", req.OperationName, err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("graphql: non-200 response", "operation", req.OperationName, "status", resp.StatusCode)
	}
	slog.Debug("graphql response", "operation", req.OperationName, "status", resp.StatusCode, "body", string(body))

	return &rawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// baseHeaders returns the headers sent with every request.
func baseHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("Apollographql-Client-Name", clientName)
	return h
}

// firstError returns the first GraphQL error message, or "" if there is none.
func firstError(errs []graphqlError) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Message
}
