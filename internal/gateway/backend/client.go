package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

var (
	// ErrNotConfigured means no backend URL was set. Every call fails.
	ErrNotConfigured = errors.New("backend: base URL not configured")

	// ErrUnavailable wraps transport failures talking to the backend.
	ErrUnavailable = errors.New("backend: unavailable")

	// ErrNoRefreshToken means the inbound request carried no refresh cookie.
	ErrNoRefreshToken = errors.New("backend: no refresh token")

	// ErrRenewalRejected means the backend answered the refresh call with a
	// non-2xx status.
	ErrRenewalRejected = errors.New("backend: refresh rejected")
)

// maxBody caps how much of a backend response is buffered.
const maxBody = 1 << 20

// CookieConfig names the session cookies and how long they live.
type CookieConfig struct {
	Policy        httpx.CookiePolicy
	AccessName    string
	RefreshName   string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.AccessName == "" {
		c.AccessName = "access"
	}
	if c.RefreshName == "" {
		c.RefreshName = "refresh"
	}
	if c.AccessMaxAge <= 0 {
		c.AccessMaxAge = 5 * time.Minute
	}
	if c.RefreshMaxAge <= 0 {
		c.RefreshMaxAge = 24 * time.Hour
	}
	if c.Policy.SameSite == 0 {
		c.Policy.SameSite = http.SameSiteLaxMode
	}
	return c
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Cookies    CookieConfig
	Logger     *slog.Logger
}

// Client forwards gateway calls to the platform backend.
type Client struct {
	baseURL string
	http    *http.Client
	cookies CookieConfig
	logger  *slog.Logger
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    hc,
		cookies: cfg.Cookies.withDefaults(),
		logger:  logger,
	}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// Cookies returns the cookie settings the client issues with.
func (c *Client) Cookies() CookieConfig { return c.cookies }

// Response is a buffered backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Forward sends one call to the backend on behalf of inbound. The inbound
// Cookie header is passed along, and the access cookie is also presented as
// a bearer token since the backend's JWT auth reads the Authorization
// header. payload may be nil, raw JSON bytes, or any value to encode.
func (c *Client) Forward(ctx context.Context, method, path string, inbound *http.Request, payload any) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if inbound != nil {
		if cookie := inbound.Header.Get("Cookie"); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
		if auth := inbound.Header.Get("Authorization"); auth != "" {
			req.Header.Set("Authorization", auth)
		} else if access, ok := httpx.CookieValue(inbound, c.cookies.AccessName); ok {
			req.Header.Set("Authorization", "Bearer "+access)
		}
		if id := inbound.Header.Get(slogx.RequestIDHeader); id != "" {
			req.Header.Set(slogx.RequestIDHeader, id)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	slogx.FromContext(ctx).Debug("backend call",
		"method", method,
		"backend_path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func encodePayload(payload any) (io.Reader, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode backend request: %w", err)
		}
		return bytes.NewReader(raw), nil
	}
}
