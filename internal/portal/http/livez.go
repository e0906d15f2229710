package http

import (
	"net/http"
	"time"

	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
)

// LivezHandler always returns 200 while the process is running.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, portalsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
