package learnsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrNetworkFailure means no response was received at all.
	ErrNetworkFailure = errors.New("learnsdk: network failure")

	// ErrAuthorizationExpired is returned when a replayed call is still
	// rejected with 401 after a successful renewal.
	ErrAuthorizationExpired = errors.New("learnsdk: authorization expired")

	// ErrServerError matches every *APIError via errors.Is.
	ErrServerError = errors.New("learnsdk: server error")

	// ErrRenewalTimeout is returned when the renewal call does not settle
	// within the coordinator's timeout.
	ErrRenewalTimeout = errors.New("learnsdk: renewal timed out")

	// ErrRenewalFailed is returned to the initiator and every queued caller
	// when the renewal endpoint answers with anything but success.
	ErrRenewalFailed = errors.New("learnsdk: renewal failed")
)

// ============================================================================
// APIError
// ============================================================================

// APIError is a non-2xx, non-401 response from the gateway.
type APIError struct {
	StatusCode int

	// Code is a short machine readable code, when the body carried one.
	Code string

	// Message is the human readable part of the body.
	Message string

	// Details holds per-field messages from the backend envelope.
	Details map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "learnsdk: HTTP %d", e.StatusCode)
	if e.Code != "" {
		b.WriteString(" ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is lets errors.Is(err, ErrServerError) match any APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrServerError
}

// ============================================================================
// ValidationError
// ============================================================================

// ValidationError is raised client side before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "learnsdk: validation failed: " + strings.Join(parts, "; ")
}

// validation returns nil for an empty field map so callers can write
// `return validation(errs)`.
func validation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns an error response body into an *APIError. It
// understands the backend envelope and the gateway's own error body, and
// falls back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var gw ErrorResponse
	if err := json.Unmarshal(body, &gw); err == nil && gw.Error != "" {
		apiErr.Code = gw.Error
		apiErr.Message = gw.ErrorDescription
		if len(gw.Fields) > 0 {
			apiErr.Details = gw.Fields
		}
		return apiErr
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Success != nil || env.Message != "") {
		apiErr.Message = env.Message
		apiErr.Details = flattenFieldErrors(env.Errors)
		return apiErr
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		apiErr.Message = detail.Detail
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}

// flattenFieldErrors collapses the backend's field error shapes
// ({"mobile": ["taken"]} or {"mobile": "taken"}) into one string per field.
func flattenFieldErrors(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for field, v := range raw {
		switch msg := v.(type) {
		case string:
			out[field] = msg
		case []any:
			parts := make([]string, 0, len(msg))
			for _, m := range msg {
				parts = append(parts, fmt.Sprint(m))
			}
			out[field] = strings.Join(parts, " ")
		default:
			out[field] = fmt.Sprint(msg)
		}
	}
	return out
}
