// Package pdap is the HTTP client for the Police Data Accessibility Project
// data-sources API. Public reads authenticate with the configured API key
// (Basic); user-scoped calls carry the signed-in user's access token (Bearer).
package pdap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Scheme selects the Authorization header attached to a request.
type Scheme int

const (
	// AuthNone sends no Authorization header.
	AuthNone Scheme = iota
	// AuthBasic sends "Basic <api key>".
	AuthBasic
	// AuthBearer sends "Bearer <access token>".
	AuthBearer
	// AuthRefresh sends "Bearer <refresh token>".
	AuthRefresh
)

const maxResponseBytes = 8 << 20

// ErrNoToken is returned when a Bearer call is made without a token.
var ErrNoToken = errors.New("pdap: no user token available")

// TokenSource yields the current user's tokens. Empty strings mean signed out.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
}

// Config configures the API client.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	HTTPClient  *http.Client // optional; overrides Timeout
	TokenSource TokenSource  // optional; required for Bearer calls
}

// Client issues authenticated REST calls against the API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tokens     TokenSource
}

// NewClient creates a new API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tokens:     cfg.TokenSource,
	}
}

// WithTokenSource returns a copy of the client that reads user tokens from ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	scheme Scheme
	body   any
}

// do executes the request and decodes a JSON response into target (may be nil).
func (c *Client) do(ctx context.Context, req request, target any) error {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		jsonBody, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, bodyReader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(httpReq, req.scheme); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.method, req.path)
	}
	slog.DebugContext(ctx, "api request", "method", req.method, "path", req.path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	return decodeResponse(resp, target)
}

func (c *Client) authorize(req *http.Request, scheme Scheme) error {
	switch scheme {
	case AuthBasic:
		req.Header.Set("Authorization", "Basic "+c.apiKey)
	case AuthBearer, AuthRefresh:
		token := ""
		if c.tokens != nil {
			if scheme == AuthBearer {
				token = c.tokens.AccessToken()
			} else {
				token = c.tokens.RefreshToken()
			}
		}
		if token == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// decodeResponse decodes a JSON response into the target struct.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return errors.Wrap(err, "read error response body")
		}
		return newStatusError(resp.StatusCode, body)
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
			return errors.Wrap(err, "discard response body")
		}
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
