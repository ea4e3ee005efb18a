package client

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
)

// DefaultBaseURL is used when no server is configured
const DefaultBaseURL = "http://localhost:3001"

// TokenSource yields the bearer token to attach to authenticated calls.
// An empty token means no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value
type StaticToken string

// Token returns the fixed token
func (t StaticToken) Token() string { return string(t) }

// Config holds client settings
type Config struct {
	BaseURL string
	// Timeout bounds a whole request; it is the only per-request deadline
	Timeout time.Duration
}

// DefaultConfig returns default client settings
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// Client is the HTTP client for the tic-tac-toe API
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new API client. tokens may be nil for a client that never
// authenticates.
func New(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "api_client")),
	}
}

// SetTokenSource replaces the token source. Used when the source is built
// after the client, as with the session store.
func (c *Client) SetTokenSource(tokens TokenSource) {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c.tokens = tokens
}

// BaseURL returns the normalised server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs an HTTP request. When auth is true and a token is available
// it is attached as a bearer token. Non-2xx responses return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, auth bool, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if auth {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger := c.logger.With(
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed", slog.String("error", err.Error()))
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, auth bool, result any) error {
	return c.Do(ctx, http.MethodGet, path, auth, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, auth bool, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, auth, body, result)
}
