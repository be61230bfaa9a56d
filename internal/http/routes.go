package httpx

import (
	"log/slog"
	"net/http"

	"github.com/srijeethT/cytomind/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Analysis       *service.AnalysisService
	Reports        *service.ReportService
	MaxUploadBytes int64
	Logger         *slog.Logger // Logger for handler errors (optional)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	analysisHandlers := &AnalysisHandlers{
		Svc:            services.Analysis,
		MaxUploadBytes: services.MaxUploadBytes,
		Logger:         services.Logger,
	}
	reportHandlers := &ReportHandlers{Svc: services.Reports}
	healthHandlers := &HealthHandlers{Analysis: services.Analysis}

	registerAnalysisRoutes(mux, analysisHandlers)
	registerReportRoutes(mux, reportHandlers)
	mux.HandleFunc("GET /healthz", healthHandlers.Liveness)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Liveness)
	mux.HandleFunc("GET /health", healthHandlers.Readiness)

	return mux
}

func registerAnalysisRoutes(mux *http.ServeMux, h *AnalysisHandlers) {
	mux.HandleFunc("POST /api/analyze", h.Analyze)
	mux.HandleFunc("GET /api/jobs/{id}/status", h.GetStatus)
	mux.HandleFunc("POST /api/predict", h.Predict)
}

func registerReportRoutes(mux *http.ServeMux, h *ReportHandlers) {
	mux.HandleFunc("GET /api/reports/{id}", h.GetByJobID)
	mux.HandleFunc("GET /api/reports/{id}/pdf", h.GetDocument)
}
