package learnsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login posts credentials. On success the gateway sets the session cookies,
// which land in the client's jar.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/login", req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// RegisterResult is what a successful signup returns.
type RegisterResult struct {
	Mobile string `json:"mobile"`
	Role   Role   `json:"role"`
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/register", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResult
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session on the gateway, which clears both cookies.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// Refresh asks the gateway for a new access cookie and reports whether it
// answered 200. It never goes through the coordinator, so a rejected
// renewal cannot trigger another one.
func (c *Client) Refresh(ctx context.Context) bool {
	return c.renew(ctx) == nil
}

func (c *Client) renew(ctx context.Context) error {
	resp, err := c.doDirect(ctx, http.MethodPost, "/api/refresh", nil)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, nil, http.StatusOK); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: HTTP %d", ErrRenewalFailed, apiErr.StatusCode)
		}
		return fmt.Errorf("%w: %w", ErrRenewalFailed, err)
	}
	return nil
}

// Profile fetches the signed-in user's identity.
func (c *Client) Profile(ctx context.Context) (*Identity, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/profile", nil)
	if err != nil {
		return nil, err
	}

	var id Identity
	if err := decodeJSON(resp, &id, http.StatusOK); err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateProfile submits the onboarding form for role. form is one of
// StudentProfile, TeacherProfile or ParentProfile, or any JSON object.
func (c *Client) CreateProfile(ctx context.Context, role ProfileRole, form any) (*ProfileResult, error) {
	if _, ok := ParseProfileRole(string(role)); !ok {
		return nil, &ValidationError{Fields: map[string]string{"role": "role must be student, teacher or parent"}}
	}
	if form == nil {
		form = struct{}{}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/profile/create/"+string(role), form)
	if err != nil {
		return nil, err
	}

	var out ProfileResult
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Do sends an arbitrary call through the coordinator and decodes the
// response into out, which may be nil.
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) error {
	resp, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}
