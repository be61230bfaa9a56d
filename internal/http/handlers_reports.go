package httpx

import (
	"net/http"
	"strconv"

	"github.com/srijeethT/cytomind/internal/service"
)

// ReportHandlers exposes persisted reports and their rendered documents.
type ReportHandlers struct {
	Svc *service.ReportService
}

// GetByJobID returns the report record for a completed job.
func (h *ReportHandlers) GetByJobID(w http.ResponseWriter, r *http.Request) {
	report, err := h.Svc.GetByJobID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// GetDocument streams the rendered PDF for a completed job.
func (h *ReportHandlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	doc, err := h.Svc.GetDocument(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.Header().Set("Content-Disposition", `inline; filename="`+jobID+`_report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
