// ABOUTME: HTTP client for the Bubble Data and Workflow APIs
// ABOUTME: Handles base URLs, per-endpoint bearer auth, timeouts, and request logging
package bubble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// AuthMode controls whether the bearer token is attached to a call.
type AuthMode string

const (
	// AuthRequired fails the call locally when no valid token exists.
	AuthRequired AuthMode = "required"
	// AuthOptional attaches the token when one is available.
	AuthOptional AuthMode = "optional"
	// AuthNone never attaches the token.
	AuthNone AuthMode = "none"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultPageSize = 100
	// MaxPageSize is the largest page the Data API returns.
	MaxPageSize = 100
)

// Config describes how to reach one Bubble app.
type Config struct {
	// ObjBaseURL is the Data API root, e.g. https://app.example/api/1.1/obj
	ObjBaseURL string
	// WfBaseURL is the Workflow API root, e.g. https://app.example/api/1.1/wf
	WfBaseURL string
	Timeout   time.Duration
	PageSize  int

	// DefaultAuth applies to every endpoint not listed in Auth.
	DefaultAuth AuthMode
	// Auth overrides per endpoint. Keys are "obj/<collection>" or "wf/<workflow>".
	Auth map[string]AuthMode
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		c.PageSize = DefaultPageSize
	}
	if c.DefaultAuth == "" {
		c.DefaultAuth = AuthRequired
	}
	c.ObjBaseURL = strings.TrimRight(c.ObjBaseURL, "/")
	c.WfBaseURL = strings.TrimRight(c.WfBaseURL, "/")
	return c
}

// authFor returns the auth mode for an endpoint key.
func (c Config) authFor(endpoint string) AuthMode {
	if mode, ok := c.Auth[endpoint]; ok && mode != "" {
		return mode
	}
	return c.DefaultAuth
}

// Client talks to one Bubble app. It holds no global state; build one
// per process (or per test) with NewClient.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens oauth2.TokenSource
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a gateway client. tokens may be nil, in which case
// every AuthRequired call fails with ErrNotAuthenticated.
func NewClient(cfg Config, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.ObjBaseURL == "" {
		return nil, fmt.Errorf("bubble: ObjBaseURL is required")
	}
	if cfg.WfBaseURL == "" {
		return nil, fmt.Errorf("bubble: WfBaseURL is required")
	}

	// tokens is consulted on every request so a login or logout in another
	// process takes effect without a restart.
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		tokens: tokens,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Timeout = cfg.Timeout
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// authorize attaches the bearer header according to the endpoint's mode.
// An empty endpoint is never authorized; login uses it.
func (c *Client) authorize(req *http.Request, op, endpoint string) error {
	if endpoint == "" {
		return nil
	}
	mode := c.cfg.authFor(endpoint)
	if mode == AuthNone {
		return nil
	}

	var tok *oauth2.Token
	if c.tokens != nil {
		t, err := c.tokens.Token()
		if err == nil && t.Valid() {
			tok = t
		}
	}

	if tok == nil {
		if mode == AuthRequired {
			return &Error{Op: op, Kind: KindAuth, Message: "Not signed in. Run 'tiddle login' first.", Err: ErrNotAuthenticated}
		}
		return nil
	}
	tok.SetAuthHeader(req)
	return nil
}

// do sends one request and returns the raw body of a 2xx response.
// Non-2xx responses become *Error via statusError, or via mapStatus when given.
func (c *Client) do(ctx context.Context, op, endpoint, method, rawURL string, body any, mapStatus func(int, []byte) *Error) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, validationError(op, fmt.Sprintf("invalid request body: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, validationError(op, fmt.Sprintf("invalid request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := ulid.Make().String()
	req.Header.Set("X-Request-Id", requestID)

	if err := c.authorize(req, op, endpoint); err != nil {
		return nil, err
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Op: op, Kind: KindNetwork, Message: "Request canceled", Err: ctx.Err()}
		}
		c.logger.Warn("bubble request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, networkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(op, err)
	}

	c.logger.Debug("bubble request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", c.now().Sub(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr *Error
		if mapStatus != nil {
			apiErr = mapStatus(resp.StatusCode, data)
		} else {
			apiErr = statusError(op, resp.StatusCode, data)
		}
		c.logger.Warn("bubble request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
			zap.String("request_id", requestID))
		return nil, apiErr
	}
	return data, nil
}

func (c *Client) objURL(collection string, id string, q url.Values) string {
	u := c.cfg.ObjBaseURL + "/" + url.PathEscape(collection)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) wfURL(name string) string {
	return c.cfg.WfBaseURL + "/" + url.PathEscape(name)
}
