package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/srijeethT/cytomind/internal/service"
)

// AnalysisHandlers exposes job submission, status polling, and single-image
// prediction.
type AnalysisHandlers struct {
	Svc            *service.AnalysisService
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// submitResponse is the 202 body returned on submission.
type submitResponse struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	TotalImages int    `json:"totalImages"`
	Message     string `json:"message"`
}

// Analyze accepts a multipart batch submission and enqueues an analysis job.
// The response is 202: classification happens in the background and is
// observed via the status endpoint.
func (h *AnalysisHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	jobID := strings.TrimSpace(r.FormValue("jobId"))
	if jobID == "" {
		jobID = uuid.NewString()
	}

	age := 0
	if raw := strings.TrimSpace(r.FormValue("patientAge")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "validation",
				Err:     errors.New("patientAge must be a non-negative integer"),
			})
			return
		}
		age = parsed
	}

	var labID *string
	if raw := strings.TrimSpace(r.FormValue("labId")); raw != "" {
		labID = &raw
	}

	params := service.SubmitParams{
		JobID:       jobID,
		PatientID:   r.FormValue("patientId"),
		PatientName: r.FormValue("patientName"),
		PatientAge:  age,
		LabID:       labID,
	}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
			return
		}
		defer f.Close()
		params.Files = append(params.Files, service.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	job, err := h.Svc.Submit(r.Context(), params)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, submitResponse{
		JobID:       job.JobID,
		Status:      string(job.Status),
		TotalImages: len(params.Files),
		Message:     "analysis started",
	})
}

// GetStatus returns a job's status, progress, and terminal outcome.
func (h *AnalysisHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Svc.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Predict classifies a single uploaded image synchronously without creating
// a job.
func (h *AnalysisHandlers) Predict(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
		return
	}
	defer f.Close()

	item, err := h.Svc.PredictOne(r.Context(), service.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}
