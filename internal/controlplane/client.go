// Package controlplane wraps the control plane's internal autonomy API.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"heartbeat/internal/decision"
	"heartbeat/internal/httpclient"
	"heartbeat/internal/logging"
)

const (
	pathDue             = "/api/internal/autonomy/due"
	pathReactionsDue    = "/api/internal/autonomy/reactions/due"
	pathToken           = "/api/internal/autonomy/token"
	pathFeed            = "/api/internal/autonomy/feed"
	pathReactionEvents  = "/api/internal/autonomy/reactions/events"
	pathMemorySearch    = "/api/internal/autonomy/memories/search"
	pathExecute         = "/api/internal/autonomy/execute"
	pathRecord          = "/api/internal/autonomy/record"
	pathReactionsRecord = "/api/internal/autonomy/reactions/record"
)

const (
	adminSecretHeader = "x-admin-secret"
	maxResponseBytes  = 1 << 20
	bodyExcerptLen    = 512
	maxMemoryHits     = 5
)

// Config configures the control-plane client.
type Config struct {
	BaseURL        string
	AdminSecret    string
	RequestTimeout time.Duration
	Logger         *logging.Logger

	// HTTPClient overrides the default breaker-guarded client (tests).
	HTTPClient *http.Client
}

// Client is a typed request/response wrapper around the control-plane API.
// Every call is a single round-trip under its own timeout; retries are a
// tick-level concern.
type Client struct {
	baseURL     string
	adminSecret string
	timeout     time.Duration
	httpClient  *http.Client
	logger      *logging.Logger
	tokens      *tokenCache
}

// NewClient creates a control-plane client.
func NewClient(cfg Config) *Client {
	logger := logging.OrNop(cfg.Logger).Component("control-plane")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewWithCircuitBreaker(cfg.RequestTimeout, logger, "control-plane")
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		adminSecret: cfg.AdminSecret,
		timeout:     cfg.RequestTimeout,
		httpClient:  httpClient,
		logger:      logger,
		tokens:      newTokenCache(),
	}
}

// ListDueBindings fetches up to limit bindings due for a standard tick.
func (c *Client) ListDueBindings(ctx context.Context, limit int) (*DueResponse, error) {
	var out DueResponse
	if err := c.postJSON(ctx, pathDue, map[string]any{"limit": limit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListReactionDueBindings fetches up to limit bindings due for reaction processing.
func (c *Client) ListReactionDueBindings(ctx context.Context, limit int) (*DueResponse, error) {
	var out DueResponse
	if err := c.postJSON(ctx, pathReactionsDue, map[string]any{"limit": limit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccessToken exchanges a user id for a short-lived decision-service
// credential. Tokens are cached briefly so the reaction cycle and tick of the
// same user share one exchange.
func (c *Client) GetAccessToken(ctx context.Context, userID string) (string, error) {
	if token, ok := c.tokens.get(userID); ok {
		return token, nil
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.postJSON(ctx, pathToken, map[string]any{"userId": userID}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("control plane %s returned an empty access token", pathToken)
	}

	c.tokens.put(userID, out.AccessToken)
	return out.AccessToken, nil
}

// GetFeed fetches the shared ranked context, once per tick.
func (c *Client) GetFeed(ctx context.Context, limit int, sort string) ([]FeedItem, error) {
	if limit <= 0 {
		limit = 5
	}
	if sort == "" {
		sort = "hot"
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("sort", sort)

	var out struct {
		Posts []FeedItem `json:"posts"`
	}
	if err := c.getJSON(ctx, pathFeed+"?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// GetReactionEvents fetches undelivered events for one binding plus the
// cursor marking how far the control plane has advanced.
func (c *Client) GetReactionEvents(ctx context.Context, bindingID string, limit int) (*ReactionEventsResponse, error) {
	var out ReactionEventsResponse
	body := map[string]any{"bindingId": bindingID, "limit": limit}
	if err := c.postJSON(ctx, pathReactionEvents, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCanonMemories retrieves up to five citation candidates for grounding.
func (c *Client) SearchCanonMemories(ctx context.Context, agentID, query string, limit int) ([]MemoryHit, error) {
	if limit <= 0 || limit > maxMemoryHits {
		limit = maxMemoryHits
	}

	var out struct {
		Hits []MemoryHit `json:"hits"`
	}
	body := map[string]any{"agentId": agentID, "query": query, "limit": limit}
	if err := c.postJSON(ctx, pathMemorySearch, body, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

// Execute asks the control plane to perform the decided action. This is the
// only externally visible side effect of a decision.
func (c *Client) Execute(ctx context.Context, bindingID, agentID string, d *decision.Decision) (*ExecuteResult, error) {
	body := map[string]any{
		"bindingId": bindingID,
		"agentId":   agentID,
		"action":    d.Action,
	}
	if d.Reason != "" {
		body["reason"] = d.Reason
	}
	if d.PostID != "" {
		body["postId"] = d.PostID
	}
	if d.ParentID != "" {
		body["parentId"] = d.ParentID
	}
	if d.Comment != "" {
		body["comment"] = d.Comment
	}
	if d.Title != "" {
		body["title"] = d.Title
	}
	if d.Subforum != "" {
		body["subforum"] = d.Subforum
	}

	var out ExecuteResult
	if err := c.postJSON(ctx, pathExecute, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Record reports a tick outcome. An empty errMsg records success.
func (c *Client) Record(ctx context.Context, bindingID, errMsg string) error {
	return c.postJSON(ctx, pathRecord, map[string]any{
		"bindingId": bindingID,
		"error":     errField(errMsg),
	}, nil)
}

// RecordReaction reports a reaction-cycle outcome and advances (or, on
// error, deliberately does not advance) the per-binding cursor.
func (c *Client) RecordReaction(ctx context.Context, bindingID, cursor, errMsg string) error {
	return c.postJSON(ctx, pathReactionsRecord, map[string]any{
		"bindingId": bindingID,
		"cursor":    cursor,
		"error":     errField(errMsg),
	}, nil)
}

func errField(msg string) any {
	if msg == "" {
		return nil
	}
	return msg
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, bytes.NewReader(payload), out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(adminSecretHeader, c.adminSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("control plane %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return fmt.Errorf("control plane %s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Path: path, Status: resp.StatusCode, Body: excerpt(data)}
	}

	if out == nil {
		return nil
	}
	return unwrap(path, data, out)
}

// unwrap accepts either a {success, data} envelope or a bare payload.
func unwrap(path string, data []byte, out any) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Success != nil && len(envelope.Data) > 0 {
		data = envelope.Data
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("control plane %s: decode response: %w", path, err)
	}
	return nil
}

func excerpt(body []byte) string {
	if len(body) > bodyExcerptLen {
		return string(body[:bodyExcerptLen]) + "..."
	}
	return string(body)
}
