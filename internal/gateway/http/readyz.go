package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Reports 503 until both the backend URL and the token secret are configured.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	learnsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	learnsdk.HealthResponse	"backend url or secret missing"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	be *backend.Client,
	secretConfigured bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &learnsdk.HealthChecks{
			Backend:  "ok",
			Verifier: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if be == nil || !be.Configured() {
			checks.Backend = "error: backend url not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !secretConfigured {
			checks.Verifier = "error: jwt secret not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := learnsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
