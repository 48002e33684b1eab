package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

type ProfileHandler struct {
	Backend *backend.Client
}

// HandleGet returns the signed-in user.
//
//	@Summary		Current user
//	@Description	Returns the identity of the signed-in user. /api/me is an alias.
//	@Tags			Profile
//	@Produce		json
//	@Success		200	{object}	learnsdk.Identity	"identity"
//	@Failure		401	{object}	map[string]any		"access cookie missing or expired"
//	@Failure		502	{object}	httpx.ErrorResponse	"backend unavailable"
//	@Router			/api/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Backend.Me(r.Context(), r)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	relay(w, resp)
}

// HandleCreate submits an onboarding form. Only student, teacher and parent
// are accepted, anything else is refused before it reaches the backend.
//
//	@Summary		Create role profile
//	@Description	Submits the onboarding form for a student, teacher or parent.
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Param			role	path		string					true	"student, teacher or parent"
//	@Success		201		{object}	learnsdk.ProfileResult	"profile created"
//	@Failure		400		{object}	httpx.ErrorResponse		"invalid role"
//	@Failure		502		{object}	httpx.ErrorResponse		"backend unavailable"
//	@Router			/api/profile/create/{role} [post].
func (h *ProfileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	role, ok := learnsdk.ParseProfileRole(r.PathValue("role"))
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_role", "Invalid role")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	resp, err := h.Backend.CreateProfile(r.Context(), r, role, body)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	relay(w, resp)
}
