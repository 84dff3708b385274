package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jamesprial/migas-go/internal/config"
)

const (
	defaultTimeout = 3 * time.Second
	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// Version is reported in the User-Agent header.
var Version = "0.1.0"

// HTTPClient is a concrete implementation of the Transport interface that
// posts GraphQL requests over HTTP using the standard library net/http package.
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient constructs an HTTPClient from cfg. When cfg.Timeout is zero
// or negative, a default timeout of 3 seconds is used.
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := defaultTimeout
	if cfg != nil && cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "migas-go/" + Version,
	}
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query string `json:"query"`
}

// Do posts query to endpoint and returns the status code and decoded body.
//
// Non-2xx responses are not errors: GraphQL servers report request errors
// with a 4xx status and an {"errors": [...]} body, which is returned like
// any other payload. Do returns an error only if:
//   - the request cannot be encoded or created
//   - the request fails before a response arrives
//   - the response body cannot be read
func (c *HTTPClient) Do(ctx context.Context, endpoint, query string) (int, any, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return 0, nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("graphql: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("graphql: read response: %w", err)
	}

	return resp.StatusCode, decodeBody(raw), nil
}

// decodeBody returns raw as a JSON object when it is one and as a string
// otherwise.
func decodeBody(raw []byte) any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return obj
	}
	return string(raw)
}
