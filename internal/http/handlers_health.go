package httpx

import (
	"net/http"

	"github.com/srijeethT/cytomind/internal/service"
)

// HealthHandlers exposes liveness and readiness endpoints.
type HealthHandlers struct {
	Analysis *service.AnalysisService
}

// Liveness reports that the process is up. It checks nothing downstream.
func (h *HealthHandlers) Liveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthResponse is the readiness body including inference backend state.
type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	NumClasses  int    `json:"num_classes"`
	Device      string `json:"device,omitempty"`
}

// Readiness reports whether the inference backend is reachable and loaded.
// An unreachable model yields 503 with model_loaded=false rather than an
// error body, so load balancers can poll it directly.
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	health, err := h.Analysis.ModelHealth(r.Context())
	if err != nil || !health.Available {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:      "degraded",
			ModelLoaded: false,
		})
		return
	}
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		ModelLoaded: health.Available,
		NumClasses:  health.NumClasses,
		Device:      health.Device,
	})
}
