package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// maxRequestBody caps inbound JSON bodies.
const maxRequestBody = 64 << 10

// relay writes a backend response back to the browser: every Set-Cookie
// header, the status, and the body. A body that isn't JSON is wrapped so
// clients can always decode what they get.
func relay(w http.ResponseWriter, resp *backend.Response) {
	httpx.RelaySetCookies(w.Header(), resp.Header)
	httpx.NoCache(w)

	body := resp.Body
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	} else if !json.Valid(body) {
		httpx.WriteError(w, resp.StatusCode, "backend_error", truncate(string(body), 512))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// writeBackendError maps a failed backend call to a gateway error body.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, backend.ErrNotConfigured):
		log.Error("backend url not configured")
		httpx.WriteError(w, http.StatusServiceUnavailable, "backend_not_configured", "The backend is not configured.")
	case errors.Is(err, backend.ErrNoRefreshToken):
		httpx.WriteError(w, http.StatusUnauthorized, "no_refresh_token", "No refresh token was presented.")
	case errors.Is(err, backend.ErrUnavailable):
		log.Warn("backend unavailable", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, "backend_unavailable", "The backend could not be reached.")
	default:
		log.Error("backend call failed", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, "backend_unavailable", "The backend call failed.")
	}
}

// writeValidation reports a bad form without contacting the backend.
func writeValidation(w http.ResponseWriter, err error) {
	resp := learnsdk.ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: err.Error(),
	}
	var verr *learnsdk.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	httpx.WriteJSON(w, http.StatusBadRequest, resp)
}

// readBody buffers a bounded request body. It writes the error response
// itself and returns false when the body can't be read.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, true
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "Request body too large.")
			return nil, false
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body could not be read.")
		return nil, false
	}
	return raw, true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
