package learnsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// newRequest builds a request with an optional JSON body. Bodies are
// buffered so the coordinator can replay them.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doRequest sends a request through the refresh coordinator.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	return c.coord.Do(req)
}

// doDirect sends a request straight to the HTTP client, skipping the
// coordinator. Only renewal uses this.
func (c *Client) doDirect(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	return resp, nil
}

// decodeJSON reads a response and decodes it into target. The backend
// envelope is unwrapped when present: target receives its data member.
// A nil target only checks the status.
func decodeJSON(resp *http.Response, target any, expectedStatus ...int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if !statusExpected(resp.StatusCode, expectedStatus) {
		return parseErrorResponse(resp, bodyBytes)
	}
	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err == nil && env.Success != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		bodyBytes = env.Data
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusExpected(code int, expected []int) bool {
	if len(expected) == 0 {
		return code >= 200 && code < 300
	}
	for _, want := range expected {
		if code == want {
			return true
		}
	}
	return false
}
