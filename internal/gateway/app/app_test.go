package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = -1

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewWiresRoutes(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(backend.Close)

	cfg := DefaultConfig()
	cfg.BackendURL = backend.URL
	cfg.JWTSecret = "app-test-secret"
	cfg.StaticDir = t.TempDir()
	cfg.LogLevel = "error"

	application, err := New(cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestNewWithoutBackendIsNotReady(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "error"

	application, err := New(cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
