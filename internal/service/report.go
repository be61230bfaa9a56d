package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

const defaultDocumentTTL = 24 * time.Hour

// ReportServiceOptions groups dependencies for ReportService.
type ReportServiceOptions struct {
	Reports     core.ReportRepository // Required
	Renderer    core.Renderer         // Required
	Cache       core.CacheRepository  // Optional: document cache
	ReportsDir  string                // Required: where rendered documents are persisted
	DocumentTTL time.Duration         // Optional: cache TTL (default 24h)
	Logger      *slog.Logger          // Optional
}

// ReportService synthesizes and serves analysis reports. Synthesis is
// all-or-nothing: render, store, and persist must all succeed, otherwise the
// error propagates and the job fails rather than completing with a silently
// incomplete report.
type ReportService struct {
	reports     core.ReportRepository
	renderer    core.Renderer
	cache       core.CacheRepository
	reportsDir  string
	documentTTL time.Duration
	logger      *slog.Logger
}

// NewReportService creates a new ReportService instance.
func NewReportService(opts ReportServiceOptions) (*ReportService, error) {
	if opts.Reports == nil {
		return nil, errors.New("report repository is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.ReportsDir == "" {
		return nil, errors.New("reports directory is required")
	}

	ttl := opts.DocumentTTL
	if ttl <= 0 {
		ttl = defaultDocumentTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportService{
		reports:     opts.Reports,
		renderer:    opts.Renderer,
		cache:       opts.Cache,
		reportsDir:  opts.ReportsDir,
		documentTTL: ttl,
		logger:      logger,
	}, nil
}

// MustNewReportService creates a new ReportService or panics.
func MustNewReportService(opts ReportServiceOptions) *ReportService {
	svc, err := NewReportService(opts)
	if err != nil {
		panic(err)
	}
	return svc
}

// Synthesize freezes the completed analysis into a report, renders its
// document, and persists both. Any failure (render, document storage, row
// insert) propagates so the caller can fail the job.
func (s *ReportService) Synthesize(ctx context.Context, job *model.Job, result *model.AnalysisResult) (*model.Report, error) {
	if job == nil || result == nil {
		return nil, errors.New("job and analysis result are required")
	}

	report := &model.Report{
		JobID:             job.JobID,
		PatientID:         job.PatientID,
		LabID:             job.LabID,
		Aggregate:         result.Aggregate,
		IndividualResults: result.IndividualResults,
		CreatedAt:         time.Now().UTC(),
	}

	doc, err := s.renderer.Render(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := s.storeDocument(ctx, job.JobID, doc); err != nil {
		return nil, apperrors.Render("store report document", err)
	}
	report.PDFPath = "/api/reports/" + job.JobID + "/pdf"

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "report synthesized",
		"job_id", job.JobID, "classification", report.Aggregate.Classification)
	return report, nil
}

// GetByJobID returns the persisted report for a job.
func (s *ReportService) GetByJobID(ctx context.Context, jobID string) (*model.Report, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.ValidationField("jobId", "job id is required")
	}
	return s.reports.GetByJobID(ctx, jobID)
}

// GetDocument returns the rendered document bytes for a job, from cache when
// possible, falling back to the persisted file.
func (s *ReportService) GetDocument(ctx context.Context, jobID string) ([]byte, error) {
	// The id names a file under the reports directory, so the charset check
	// doubles as the path-traversal guard.
	if !model.ValidJobID(jobID) {
		return nil, apperrors.ValidationField("jobId", "invalid job id")
	}

	if s.cache != nil {
		if doc, err := s.cache.Get(ctx, jobID); err == nil {
			return doc, nil
		} else if !apperrors.IsNotFound(err) {
			s.logger.WarnContext(ctx, "document cache read", "job_id", jobID, "error", err)
		}
	}

	doc, err := os.ReadFile(s.documentPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFoundf("report document for job %s not found", jobID)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read report document")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, jobID, doc, s.documentTTL); err != nil {
			s.logger.WarnContext(ctx, "document cache refill", "job_id", jobID, "error", err)
		}
	}
	return doc, nil
}

func (s *ReportService) storeDocument(ctx context.Context, jobID string, doc []byte) error {
	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.documentPath(jobID), doc, 0o644); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, jobID, doc, s.documentTTL); err != nil {
			s.logger.WarnContext(ctx, "document cache write", "job_id", jobID, "error", err)
		}
	}
	return nil
}

func (s *ReportService) documentPath(jobID string) string {
	return filepath.Join(s.reportsDir, jobID+"_report.pdf")
}
