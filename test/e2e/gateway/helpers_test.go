package gateway_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/gateway/app"
	"github.com/aussiebroadwan/learnhub/pkg/jwtx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end harness: a fake platform backend, the real gateway wired by
 * app.New, and the SDK talking to the gateway through a cookie jar.
 */

const (
	jwtSecret = "e2e-shared-secret-0123456789"
	mobile    = "09120000000"
	password  = "Secret123!"
	refreshOK = "refresh-token-1"
)

// platform fakes the backend's auth routes. Access tokens are real HS256
// JWTs so the gateway's edge gate verifies them for real.
type platform struct {
	t      *testing.T
	signer *jwtx.HS256Signer

	// loginTTL is the lifetime of access tokens issued at login. Negative
	// values hand out tokens that are already expired.
	loginTTL  atomic.Int64
	refreshes atomic.Int32
	logouts   atomic.Int32
	revoked   atomic.Bool
}

func newPlatform(t *testing.T) (*platform, string) {
	t.Helper()
	signer, err := jwtx.NewSignerHS256(jwtSecret)
	require.NoError(t, err)

	p := &platform{t: t, signer: signer}
	p.loginTTL.Store(int64(time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts/auth/login", p.login)
	mux.HandleFunc("POST /accounts/auth/token/refresh", p.refresh)
	mux.HandleFunc("POST /accounts/auth/logout", p.logout)
	mux.HandleFunc("GET /accounts/auth/me", p.me)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return p, srv.URL
}

func (p *platform) token(ttl time.Duration) string {
	tok, err := p.signer.Sign(jwtx.NewAccessClaims(7, mobile, "Student", ttl, time.Now()))
	require.NoError(p.t, err)
	return tok
}

func (p *platform) login(w http.ResponseWriter, r *http.Request) {
	var form learnsdk.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&form)
	if form.Mobile != mobile || form.Password != password {
		writeBody(w, http.StatusBadRequest, `{"success":false,"message":"login failed","data":null,"errors":{"detail":"invalid credentials"}}`)
		return
	}
	data, _ := json.Marshal(map[string]any{
		"success": true,
		"message": "login successful",
		"data": map[string]string{
			"access":  p.token(time.Duration(p.loginTTL.Load())),
			"refresh": refreshOK,
			"mobile":  mobile,
		},
		"errors": nil,
	})
	writeBody(w, http.StatusOK, string(data))
}

func (p *platform) refresh(w http.ResponseWriter, r *http.Request) {
	p.refreshes.Add(1)
	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Refresh != refreshOK || p.revoked.Load() {
		writeBody(w, http.StatusUnauthorized, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`)
		return
	}
	writeBody(w, http.StatusOK, `{"access":"`+p.token(time.Minute)+`"}`)
}

func (p *platform) logout(w http.ResponseWriter, r *http.Request) {
	p.logouts.Add(1)
	p.revoked.Store(true)
	writeBody(w, http.StatusOK, `{"success":true,"message":"logged out","data":null,"errors":null}`)
}

func (p *platform) me(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := jwtx.NewVerifierHS256(jwtSecret, jwtx.VerifyOptions{}).Verify(token)
	if err != nil {
		writeBody(w, http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`)
		return
	}
	data, _ := json.Marshal(map[string]any{
		"id":       claims.UserID,
		"mobile":   claims.Mobile,
		"username": "sara",
		"role":     claims.Role,
	})
	writeBody(w, http.StatusOK, string(data))
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// setupGateway starts the gateway in front of backendURL and returns its
// base URL.
func setupGateway(t *testing.T, backendURL string) string {
	t.Helper()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "dashboard.html"), []byte("<h1>Dashboard</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(static, "login.html"), []byte("<h1>Login</h1>"), 0o600))

	cfg := app.DefaultConfig()
	cfg.BackendURL = backendURL
	cfg.JWTSecret = jwtSecret
	cfg.StaticDir = static
	cfg.LogLevel = "error"

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

type navigator struct{ calls atomic.Int32 }

func (n *navigator) NavigateToLogin() { n.calls.Add(1) }

func newSDK(t *testing.T, gatewayURL string) (*learnsdk.Client, *navigator) {
	t.Helper()
	nav := &navigator{}
	client, err := learnsdk.NewClient(gatewayURL, learnsdk.WithNavigator(nav))
	require.NoError(t, err)
	return client, nav
}

// getPage fetches a page with the SDK's cookie jar without following
// redirects.
func getPage(t *testing.T, client *learnsdk.Client, url string) *http.Response {
	t.Helper()
	hc := &http.Client{
		Jar: client.HTTPClient.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := hc.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
