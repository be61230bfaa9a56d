// Package model defines the core data types and structures used throughout the
// cytomind analysis system.
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// JobStatus represents the current status of an analysis job.
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "PENDING"
	// JobStatusProcessing indicates a job is currently being processed.
	JobStatusProcessing JobStatus = "PROCESSING"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "FAILED"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true if the status is a terminal state. No transition
// leaves a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// jobIDPattern restricts job ids to a filesystem-safe alphabet. Ids name
// files under the upload and report directories, so path separators and dot
// sequences must never get through.
var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidJobID reports whether id is non-empty and contains only letters,
// digits, hyphens, and underscores.
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}

// AllowedImageTypes is the content-type whitelist enforced at submission.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/tiff": true,
}

// Job represents an analysis job tracked from submission to a terminal outcome.
//
// The job id is assigned by the submitter, not generated server-side, so a
// client can resubmit idempotently after a transport failure. Progress is
// monotonically non-decreasing while processing; Outcome is populated only on
// COMPLETED or FAILED.
type Job struct {
	JobID       string      `json:"jobId"            db:"job_id"`
	Status      JobStatus   `json:"status"           db:"status"`
	Progress    int         `json:"progress"         db:"progress"`
	PatientID   string      `json:"patientId"        db:"patient_id"`
	PatientName string      `json:"patientName"      db:"patient_name"`
	PatientAge  int         `json:"patientAge"       db:"patient_age"`
	LabID       *string     `json:"labId,omitempty"  db:"lab_id"`
	ImagePaths  []string    `json:"imagePaths"       db:"image_paths"`
	Outcome     *JobOutcome `json:"outcome,omitempty" db:"outcome"`
	CreatedAt   time.Time   `json:"createdAt"        db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt"        db:"updated_at"`
}

// JobOutcome is the tagged result payload attached at finalization.
// Exactly one of Analysis or Error is set.
type JobOutcome struct {
	Analysis *AnalysisResult `json:"analysis,omitempty"`
	Error    *JobError       `json:"error,omitempty"`
}

// JobError captures a background failure verbatim for operator diagnosis.
type JobError struct {
	Message string `json:"message"`
}

// AnalysisResult is the batch-level verdict embedded into a completed job.
type AnalysisResult struct {
	Aggregate          AggregateResult `json:"aggregate"`
	TotalCellsAnalyzed int             `json:"totalCellsAnalyzed"`
	IndividualResults  []PerItemResult `json:"individualResults"`
}

// ImageUpload describes one submitted image after it has been persisted.
type ImageUpload struct {
	Filename    string
	ContentType string
	Path        string
}

// SubmitJobRequest represents a validated submission for batch analysis.
type SubmitJobRequest struct {
	JobID       string
	PatientID   string
	PatientName string
	PatientAge  int
	LabID       *string
	Images      []ImageUpload
}

// Validate validates the SubmitJobRequest fields, including the image
// content-type whitelist.
func (r *SubmitJobRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("job id is required")
	}
	if !ValidJobID(r.JobID) {
		return errors.New("job id may only contain letters, digits, hyphens, and underscores")
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient id is required")
	}
	if len(r.Images) == 0 {
		return errors.New("at least one image is required")
	}
	for _, img := range r.Images {
		if !AllowedImageTypes[strings.ToLower(img.ContentType)] {
			return errors.New("unsupported image type " + img.ContentType + " for " + img.Filename)
		}
	}
	return nil
}

// JobStatusResponse is the polling view of a job. PatientID is always present;
// ReportDate is set only once the job reaches a terminal state.
type JobStatusResponse struct {
	JobID      string          `json:"jobId"`
	Status     JobStatus       `json:"status"`
	Progress   int             `json:"progress"`
	PatientID  string          `json:"patientId,omitempty"`
	Report     *AnalysisResult `json:"report,omitempty"`
	ReportDate *time.Time      `json:"reportDate,omitempty"`
	Message    string          `json:"message,omitempty"`
}
