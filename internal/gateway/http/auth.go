package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// AuthHandler proxies the credential routes.
type AuthHandler struct {
	Backend *backend.Client
}

// HandleLogin forwards {mobile, password}. Tokens in a successful answer
// come back to the browser as HttpOnly cookies.
//
//	@Summary		Sign in
//	@Description	Forwards credentials to the backend. On success the access and refresh tokens are set as HttpOnly cookies and removed from the body.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		learnsdk.LoginRequest	true	"mobile and password"
//	@Success		200		{object}	map[string]any			"backend envelope"
//	@Failure		400		{object}	map[string]any			"backend envelope with errors"
//	@Failure		413		{object}	httpx.ErrorResponse		"body too large"
//	@Failure		429		{object}	httpx.ErrorResponse		"rate limited by IP and mobile"
//	@Failure		502		{object}	httpx.ErrorResponse		"backend unavailable"
//	@Router			/api/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	resp, err := h.Backend.Login(r.Context(), r, body)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	relay(w, resp)
}

// HandleRegister checks the signup form before forwarding it. The inbound
// body is forwarded as is, so fields the gateway doesn't know survive.
//
//	@Summary		Sign up
//	@Description	Validates the form (role 0..6, matching passwords) and forwards it to the backend.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		learnsdk.RegisterRequest	true	"signup form"
//	@Success		201		{object}	map[string]any				"backend envelope"
//	@Failure		400		{object}	learnsdk.ErrorResponse		"invalid form, backend not contacted"
//	@Failure		502		{object}	httpx.ErrorResponse			"backend unavailable"
//	@Router			/api/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var form learnsdk.RegisterRequest
	if err := json.Unmarshal(body, &form); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON signup form.")
		return
	}
	if err := form.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	resp, err := h.Backend.Register(r.Context(), r, body)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	relay(w, resp)
}

// HandleLogout blacklists the refresh token and expires both session
// cookies whatever the backend says.
//
//	@Summary		Sign out
//	@Description	Forwards the refresh token to the backend and always expires the access and refresh cookies.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	map[string]any		"backend envelope"
//	@Failure		502	{object}	httpx.ErrorResponse	"backend unavailable, cookies still cleared"
//	@Router			/api/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Backend.ClearCookies(w)

	resp, err := h.Backend.Logout(r.Context(), r)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	if !resp.OK() {
		slogx.FromContext(r.Context()).Info("backend logout rejected", "status", resp.StatusCode)
	}
	relay(w, resp)
}

// HandleRefresh godoc
//
//	@Summary		Renew the access cookie
//	@Description	Exchanges the refresh cookie for a new access cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	map[string]any		"new access cookie set"
//	@Failure		401	{object}	httpx.ErrorResponse	"no refresh cookie, or refresh rejected"
//	@Failure		502	{object}	httpx.ErrorResponse	"backend unavailable"
//	@Router			/api/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Backend.Refresh(r.Context(), r)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	relay(w, resp)
}
