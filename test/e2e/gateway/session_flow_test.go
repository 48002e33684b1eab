package gateway_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

// TestSessionLifecycle walks a user through sign in, a silent renewal, a
// protected page and sign out.
func TestSessionLifecycle(t *testing.T) {
	backend, backendURL := newPlatform(t)
	gatewayURL := setupGateway(t, backendURL)
	client, nav := newSDK(t, gatewayURL)
	sessions := learnsdk.NewSessionProvider(client)

	state := sessions.Init(t.Context())
	require.Equal(t, learnsdk.StatusAnonymous, state.Status)
	require.Zero(t, backend.refreshes.Load(), "no refresh cookie means nothing to send upstream")

	// Login hands out an access token that's already expired, so the
	// identity fetch right after has to renew before it can succeed.
	backend.loginTTL.Store(int64(-time.Minute))
	require.NoError(t, sessions.Login(t.Context(), learnsdk.LoginRequest{Mobile: mobile, Password: password}))

	state = sessions.State()
	require.True(t, state.Authenticated())
	require.Equal(t, mobile, state.Identity.Mobile)
	require.Equal(t, learnsdk.RoleStudent, state.Identity.Role)
	require.True(t, sessions.HasRole(learnsdk.RoleStudent))
	require.Equal(t, int32(1), backend.refreshes.Load())

	resp := getPage(t, client, gatewayURL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	navBefore := nav.calls.Load()
	require.NoError(t, sessions.Logout(t.Context()))
	require.False(t, sessions.Authenticated())
	require.Equal(t, int32(1), backend.logouts.Load())
	require.Equal(t, navBefore+1, nav.calls.Load())

	resp = getPage(t, client, gatewayURL+"/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginWithBadCredentials(t *testing.T) {
	_, backendURL := newPlatform(t)
	client, _ := newSDK(t, setupGateway(t, backendURL))
	sessions := learnsdk.NewSessionProvider(client)

	err := sessions.Login(t.Context(), learnsdk.LoginRequest{Mobile: mobile, Password: "wrong"})
	require.Error(t, err)

	var apiErr *learnsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, learnsdk.StatusAnonymous, sessions.State().Status)
}

// TestEdgeRenewsExpiredAccessCookie loads a protected page with a stale
// access cookie: the gate renews upstream once and admits.
func TestEdgeRenewsExpiredAccessCookie(t *testing.T) {
	backend, backendURL := newPlatform(t)
	gatewayURL := setupGateway(t, backendURL)
	client, _ := newSDK(t, gatewayURL)

	backend.loginTTL.Store(int64(-time.Minute))
	require.NoError(t, client.Login(t.Context(), learnsdk.LoginRequest{Mobile: mobile, Password: password}))

	resp := getPage(t, client, gatewayURL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), backend.refreshes.Load())
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	// The renewed cookie is in the jar now, so the next load needs nothing.
	resp = getPage(t, client, gatewayURL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), backend.refreshes.Load())
}

func TestRevokedRefreshSignsOut(t *testing.T) {
	backend, backendURL := newPlatform(t)
	client, nav := newSDK(t, setupGateway(t, backendURL))
	sessions := learnsdk.NewSessionProvider(client)

	require.NoError(t, sessions.Login(t.Context(), learnsdk.LoginRequest{Mobile: mobile, Password: password}))
	require.True(t, sessions.Authenticated())

	// Next token is dead on arrival and the refresh token is revoked.
	backend.revoked.Store(true)
	backend.loginTTL.Store(int64(-time.Minute))
	require.NoError(t, client.Login(t.Context(), learnsdk.LoginRequest{Mobile: mobile, Password: password}))

	_, err := sessions.FetchIdentity(t.Context())
	require.ErrorIs(t, err, learnsdk.ErrRenewalFailed)
	require.False(t, sessions.Authenticated())
	require.GreaterOrEqual(t, nav.calls.Load(), int32(1))
}

func TestHealthThroughSDK(t *testing.T) {
	_, backendURL := newPlatform(t)
	client, _ := newSDK(t, setupGateway(t, backendURL))

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Backend)
}
