package slogx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "gateway", Env: "test", Format: "json", Output: &buf})

	var seenReqLogger bool
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenReqLogger = slogx.FromContext(r.Context()) != logger
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(slogx.RequestIDHeader, "edge-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, seenReqLogger)
	require.Equal(t, "edge-123", rec.Header().Get(slogx.RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "http_request", entry["msg"])
	require.Equal(t, "edge-123", entry["req_id"])
	require.Equal(t, "/dashboard", entry["path"])
	require.EqualValues(t, http.StatusTeapot, entry["status"])
	require.EqualValues(t, len("short and stout"), entry["bytes"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", slogx.ParseLevel("debug").String())
	require.Equal(t, "WARN", slogx.ParseLevel("Warning").String())
	require.Equal(t, "ERROR", slogx.ParseLevel("error").String())
	require.Equal(t, "INFO", slogx.ParseLevel("bogus").String())
}
