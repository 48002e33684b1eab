package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

// Backend routes.
const (
	PathLogin    = "/accounts/auth/login"
	PathRegister = "/accounts/auth/register"
	PathLogout   = "/accounts/auth/logout"
	PathRefresh  = "/accounts/auth/token/refresh"
	PathMe       = "/accounts/auth/me"
)

// ProfilePath is the backend route for creating a role profile. The backend
// spells the role segment capitalized ("/create/Student/profile").
func ProfilePath(role learnsdk.ProfileRole) string {
	s := string(role)
	if s == "" {
		return "/accounts/auth/create//profile"
	}
	return "/accounts/auth/create/" + strings.ToUpper(s[:1]) + s[1:] + "/profile"
}

// Tokens are the credentials the backend returns in response bodies.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ParseTokens finds tokens either in the envelope's data member or at the
// top level of body.
func ParseTokens(body []byte) Tokens {
	var env struct {
		Data json.RawMessage `json:"data"`
		Tokens
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Tokens{}
	}

	t := env.Tokens
	if len(env.Data) > 0 {
		var inner Tokens
		if err := json.Unmarshal(env.Data, &inner); err == nil {
			if inner.Access != "" {
				t.Access = inner.Access
			}
			if inner.Refresh != "" {
				t.Refresh = inner.Refresh
			}
		}
	}
	return t
}

// redactTokens drops access and refresh from body so the browser only ever
// holds them as HttpOnly cookies. Bodies that are not JSON objects are
// returned unchanged.
func redactTokens(body []byte) []byte {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return body
	}

	changed := dropTokenKeys(top)
	if data, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil && dropTokenKeys(inner) {
			raw, err := json.Marshal(inner)
			if err == nil {
				top["data"] = raw
				changed = true
			}
		}
	}
	if !changed {
		return body
	}

	out, err := json.Marshal(top)
	if err != nil {
		return body
	}
	return out
}

func dropTokenKeys(m map[string]json.RawMessage) bool {
	_, a := m["access"]
	_, r := m["refresh"]
	delete(m, "access")
	delete(m, "refresh")
	return a || r
}

// IssueCookies adds HttpOnly session cookies for t to h.
func (c *Client) IssueCookies(h http.Header, t Tokens) {
	if t.Access != "" {
		c.cookies.Policy.AddCookie(h, c.cookies.AccessName, t.Access, c.cookies.AccessMaxAge, true)
	}
	if t.Refresh != "" {
		c.cookies.Policy.AddCookie(h, c.cookies.RefreshName, t.Refresh, c.cookies.RefreshMaxAge, true)
	}
}

// ClearCookies expires both session cookies.
func (c *Client) ClearCookies(w http.ResponseWriter) {
	c.cookies.Policy.ExpireCookie(w, c.cookies.AccessName, true)
	c.cookies.Policy.ExpireCookie(w, c.cookies.RefreshName, true)
}

// ============================================================================
// Session calls
// ============================================================================

// Login forwards credentials. On success the returned tokens become cookies
// on the response header and are removed from the body.
func (c *Client) Login(ctx context.Context, inbound *http.Request, body []byte) (*Response, error) {
	resp, err := c.Forward(ctx, http.MethodPost, PathLogin, inbound, body)
	if err != nil {
		return nil, err
	}
	c.adoptTokens(resp)
	return resp, nil
}

func (c *Client) Register(ctx context.Context, inbound *http.Request, body []byte) (*Response, error) {
	resp, err := c.Forward(ctx, http.MethodPost, PathRegister, inbound, body)
	if err != nil {
		return nil, err
	}
	c.adoptTokens(resp)
	return resp, nil
}

// Refresh exchanges the inbound refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context, inbound *http.Request) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	token, ok := httpx.CookieValue(inbound, c.cookies.RefreshName)
	if !ok {
		return nil, ErrNoRefreshToken
	}

	resp, err := c.Forward(ctx, http.MethodPost, PathRefresh, inbound, map[string]string{"refresh": token})
	if err != nil {
		return nil, err
	}
	c.adoptTokens(resp)
	return resp, nil
}

// Renew runs Refresh for the edge gate and returns only the Set-Cookie lines.
func (c *Client) Renew(ctx context.Context, r *http.Request) (http.Header, error) {
	resp, err := c.Refresh(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRenewalRejected, resp.StatusCode)
	}

	h := http.Header{}
	httpx.RelaySetCookies(h, resp.Header)
	return h, nil
}

// Logout blacklists the refresh token on the backend. Callers clear the
// cookies whatever the outcome.
func (c *Client) Logout(ctx context.Context, inbound *http.Request) (*Response, error) {
	token, _ := httpx.CookieValue(inbound, c.cookies.RefreshName)
	return c.Forward(ctx, http.MethodPost, PathLogout, inbound, map[string]string{"refresh": token})
}

// Me fetches the signed-in user.
func (c *Client) Me(ctx context.Context, inbound *http.Request) (*Response, error) {
	return c.Forward(ctx, http.MethodGet, PathMe, inbound, nil)
}

// CreateProfile submits an onboarding form for role.
func (c *Client) CreateProfile(ctx context.Context, inbound *http.Request, role learnsdk.ProfileRole, body []byte) (*Response, error) {
	return c.Forward(ctx, http.MethodPost, ProfilePath(role), inbound, body)
}

// adoptTokens turns body tokens from a successful response into cookies.
func (c *Client) adoptTokens(resp *Response) {
	if !resp.OK() {
		return
	}
	t := ParseTokens(resp.Body)
	if t.Access == "" && t.Refresh == "" {
		return
	}
	c.IssueCookies(resp.Header, t)
	resp.Body = redactTokens(resp.Body)
}
