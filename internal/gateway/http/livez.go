package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
)

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always answers 200 while the process is up.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	learnsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := learnsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
