package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BACKEND_URL", "DJANGO_API_URL", "JWT_SECRET", "PROTECTED_PATHS", "LOGIN_PATH",
	"ACCESS_COOKIE_NAME", "REFRESH_COOKIE_NAME", "ACCESS_COOKIE_TTL", "REFRESH_COOKIE_TTL",
	"COOKIE_DOMAIN", "COOKIE_SECURE", "RENEWAL_TIMEOUT", "BACKEND_TIMEOUT", "STATIC_DIR",
	"ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD",
}

// clearEnv blanks every variable LoadConfig reads; empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().ProtectedPaths, cfg.ProtectedPaths)
	require.Equal(t, "/login", cfg.LoginPath)
	require.Equal(t, 10*time.Second, cfg.RenewalTimeout)
	require.Equal(t, 8080, cfg.Port)
	require.False(t, cfg.CookieSecure, "dev defaults to insecure cookies")
	require.Empty(t, cfg.BackendURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DJANGO_API_URL", "http://legacy:8000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PROTECTED_PATHS", " /dashboard , /classes,, ")
	t.Setenv("RENEWAL_TIMEOUT", "3")
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "http://legacy:8000", cfg.BackendURL)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, []string{"/dashboard", "/classes"}, cfg.ProtectedPaths)
	require.Equal(t, 3*time.Second, cfg.RenewalTimeout)
	require.True(t, cfg.CookieSecure, "non-dev defaults to secure cookies")
	require.Equal(t, 9090, cfg.Port)

	t.Setenv("BACKEND_URL", "http://backend:8000")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "http://backend:8000", cfg.BackendURL, "BACKEND_URL wins over the legacy name")
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
backend_url: http://file:8000
protected_paths: [/teach]
renewal_timeout: 2s
env: staging
cookie_secure: false
port: 7070
`)
	t.Setenv("PORT", "7171")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://file:8000", cfg.BackendURL)
	require.Equal(t, []string{"/teach"}, cfg.ProtectedPaths)
	require.Equal(t, 2*time.Second, cfg.RenewalTimeout)
	require.False(t, cfg.CookieSecure, "explicit file setting beats the env default")
	require.Equal(t, 7171, cfg.Port)
	require.Equal(t, "/login", cfg.LoginPath)

	t.Setenv("COOKIE_SECURE", "true")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.CookieSecure)
}

func TestLoadConfigFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "port: [not, a, number]"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.LoginPath = "login"
	cfg.RenewalTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "port")
	require.Contains(t, err.Error(), "login_path")
	require.Contains(t, err.Error(), "renewal_timeout")
}
