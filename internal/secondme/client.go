// Package secondme wraps the external streaming decision endpoint.
package secondme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"heartbeat/internal/httpclient"
	"heartbeat/internal/logging"
)

const actStreamPath = "/api/secondme/act/stream"

const errorBodyLimit = 4 << 10

// ActRequest is the streaming decision request.
type ActRequest struct {
	Message       string `json:"message"`
	ActionControl string `json:"actionControl,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
	SystemPrompt  string `json:"systemPrompt,omitempty"`
}

// APIError is a non-2xx decision-service response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("secondme act error (%d): %s", e.Status, e.Body)
}

// StatusCode implements errors.StatusCoder.
func (e *APIError) StatusCode() int { return e.Status }

// Config configures the decision-service client.
type Config struct {
	BaseURL string
	Logger  *logging.Logger

	// HTTPClient overrides the default transport (tests). Streaming calls
	// rely on context deadlines, not a client-level timeout.
	HTTPClient *http.Client
}

// Client issues streaming decision requests. It carries no timeout of its
// own and never retries; both are tick-level concerns.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a decision-service client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		logger:     logging.OrNop(cfg.Logger).Component("secondme"),
	}
}

// ActStream POSTs a decision request and hands back the unconsumed event
// stream. The caller owns closing the returned body.
func (c *Client) ActStream(ctx context.Context, accessToken string, body ActRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal act request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+actStreamPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("secondme act: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		data, readErr := httpclient.ReadAllWithLimit(resp.Body, errorBodyLimit)
		if readErr != nil {
			data = nil
		}
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	c.logger.Debug("act stream opened", "elapsed_ms", time.Since(started).Milliseconds())
	return resp.Body, nil
}
