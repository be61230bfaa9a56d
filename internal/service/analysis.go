// Package service implements the application services wiring the domain logic
// to repositories and adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/analysis"
	"github.com/srijeethT/cytomind/internal/domain/classify"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

// AnalysisServiceOptions groups dependencies for AnalysisService.
type AnalysisServiceOptions struct {
	Jobs       core.JobRepository     // Required
	Classifier core.Classifier        // Required
	Predictor  *classify.Predictor    // Required
	Notifier   analysis.Notifier      // Required
	UploadDir  string                 // Required: where submitted images are persisted
	Patients   core.PatientRepository // Optional: backfills demographics for known patients
	Logger     *slog.Logger           // Optional
}

// AnalysisService handles job submission, status polling, and single-image
// prediction. Submission is fast: it validates, persists the images, and
// enqueues; classification happens in the background runner.
type AnalysisService struct {
	jobs       core.JobRepository
	classifier core.Classifier
	predictor  *classify.Predictor
	notifier   analysis.Notifier
	patients   core.PatientRepository
	uploadDir  string
	logger     *slog.Logger
}

// NewAnalysisService creates a new AnalysisService instance.
func NewAnalysisService(opts AnalysisServiceOptions) (*AnalysisService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job repository is required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if opts.Predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if opts.UploadDir == "" {
		return nil, errors.New("upload directory is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalysisService{
		jobs:       opts.Jobs,
		classifier: opts.Classifier,
		predictor:  opts.Predictor,
		notifier:   opts.Notifier,
		patients:   opts.Patients,
		uploadDir:  opts.UploadDir,
		logger:     logger,
	}, nil
}

// MustNewAnalysisService creates a new AnalysisService or panics.
func MustNewAnalysisService(opts AnalysisServiceOptions) *AnalysisService {
	svc, err := NewAnalysisService(opts)
	if err != nil {
		panic(err)
	}
	return svc
}

// UploadFile is one submitted image stream.
type UploadFile struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// SubmitParams carries a batch submission.
type SubmitParams struct {
	JobID       string
	PatientID   string
	PatientName string
	PatientAge  int
	LabID       *string
	Files       []UploadFile
}

// Submit validates the submission, persists the images under the upload
// directory, creates the job at PENDING, and wakes the runner. A duplicate
// job id surfaces as a Conflict error.
func (s *AnalysisService) Submit(ctx context.Context, params SubmitParams) (*model.Job, error) {
	req := &model.SubmitJobRequest{
		JobID:       strings.TrimSpace(params.JobID),
		PatientID:   strings.TrimSpace(params.PatientID),
		PatientName: params.PatientName,
		PatientAge:  params.PatientAge,
		LabID:       params.LabID,
	}
	for _, f := range params.Files {
		req.Images = append(req.Images, model.ImageUpload{
			Filename:    f.Filename,
			ContentType: f.ContentType,
		})
	}

	// Validate everything, the job id charset included, before anything
	// touches the filesystem: the id names the upload files.
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	s.backfillPatient(ctx, req)

	for i, f := range params.Files {
		path, err := s.saveUpload(f, fmt.Sprintf("%s_%d%s", req.JobID, i, imageExt(f)))
		if err != nil {
			s.removeFiles(req.Images[:i])
			return nil, err
		}
		req.Images[i].Path = path
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		s.removeFiles(req.Images)
		return nil, err
	}

	s.notifier.Notify()
	s.logger.InfoContext(ctx, "job submitted",
		"job_id", job.JobID, "patient_id", job.PatientID, "images", len(req.Images))
	return job, nil
}

// GetStatus returns the polling view of a job: status and progress while
// running, the full analysis on completion, the failure message on failure.
func (s *AnalysisService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.ValidationField("jobId", "job id is required")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &model.JobStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		Progress:  job.Progress,
		PatientID: job.PatientID,
	}
	if job.Status.Terminal() {
		reportDate := job.UpdatedAt
		resp.ReportDate = &reportDate
	}
	if job.Outcome != nil {
		resp.Report = job.Outcome.Analysis
		if job.Outcome.Error != nil {
			resp.Message = job.Outcome.Error.Message
		}
	}
	return resp, nil
}

// PredictOne classifies a single image synchronously without creating a job.
// The image is staged in a temp file for the duration of the call.
func (s *AnalysisService) PredictOne(ctx context.Context, file UploadFile) (*model.PerItemResult, error) {
	if !model.AllowedImageTypes[strings.ToLower(file.ContentType)] {
		return nil, apperrors.ValidationField("file",
			fmt.Sprintf("unsupported image type %s", file.ContentType))
	}

	path, err := s.saveUpload(file, fmt.Sprintf("temp_%s%s", uuid.NewString(), imageExt(file)))
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	probs, err := s.classifier.Classify(ctx, path)
	if err != nil {
		return nil, err
	}
	item, err := s.predictor.PredictOne(probs, classify.ItemInput{ImageFilename: file.Filename})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "derive prediction")
	}
	return &item, nil
}

// ModelHealth reports the inference backend's readiness.
func (s *AnalysisService) ModelHealth(ctx context.Context) (core.ModelHealth, error) {
	return s.classifier.Health(ctx)
}

func (s *AnalysisService) saveUpload(file UploadFile, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "create upload directory")
	}
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInternal, "create upload file %s", name)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file.Reader); err != nil {
		os.Remove(path)
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInternal, "write upload file %s", name)
	}
	return path, nil
}

// backfillPatient fills missing demographics from the patient registry when
// the submitted id matches a known patient. Unknown patients are accepted as
// submitted; the registry is advisory.
func (s *AnalysisService) backfillPatient(ctx context.Context, req *model.SubmitJobRequest) {
	if s.patients == nil || req.PatientID == "" {
		return
	}
	if req.PatientName != "" && req.PatientAge > 0 {
		return
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.WarnContext(ctx, "patient lookup", "patient_id", req.PatientID, "error", err)
		}
		return
	}
	if req.PatientName == "" {
		req.PatientName = patient.Name
	}
	if req.PatientAge <= 0 {
		req.PatientAge = patient.Age
	}
}

func (s *AnalysisService) removeFiles(images []model.ImageUpload) {
	for _, img := range images {
		if err := os.Remove(img.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove upload file", "path", img.Path, "error", err)
		}
	}
}

// imageExt picks a file extension from the upload, preferring the original
// filename and falling back to the content type.
func imageExt(file UploadFile) string {
	if ext := filepath.Ext(file.Filename); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, err := mime.ExtensionsByType(strings.ToLower(file.ContentType)); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
