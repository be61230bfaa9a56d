package core

import (
	"context"
	"time"

	"github.com/srijeethT/cytomind/internal/domain/model"
)

// This file contains the port definitions between the service layer and its
// collaborators (data layer, inference backend, document renderer). Service
// implementations depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for job data operations. The analysis
// pipeline is the sole writer of job state; polling reads must observe whole
// status+progress+outcome snapshots.
type JobRepository interface {
	Create(ctx context.Context, req *model.SubmitJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, jobID string) (*model.Job, error)

	// ReserveNext atomically claims the oldest pending job and marks it
	// PROCESSING. Returns nil when no pending job exists.
	ReserveNext(ctx context.Context) (*model.Job, error)

	// UpdateProgress writes a progress checkpoint. Progress is monotonic: a
	// write below the stored value keeps the stored value. Terminal jobs are
	// never updated.
	UpdateProgress(ctx context.Context, jobID string, progress int) error

	// Finalize sets a terminal status and attaches the outcome payload.
	// Finalizing an already-terminal job fails with a Conflict error; a
	// worker finalizes a job exactly once.
	Finalize(ctx context.Context, params FinalizeParams) error
}

// FinalizeParams groups parameters for JobRepository.Finalize.
type FinalizeParams struct {
	JobID    string
	Status   model.JobStatus
	Progress int
	Outcome  *model.JobOutcome
}

// ReportRepository defines the interface for persisted report records.
// Reports are written once at job completion and never mutated.
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByJobID(ctx context.Context, jobID string) (*model.Report, error)
}

// PatientRepository defines read-only access to patient records.
type PatientRepository interface {
	GetByID(ctx context.Context, patientID string) (*model.Patient, error)
}

// CacheRepository defines the interface for byte-value caching with TTLs,
// used for rendered report documents.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// ModelHealth describes the inference backend's readiness.
type ModelHealth struct {
	Available  bool   `json:"model_loaded"`
	NumClasses int    `json:"num_classes"`
	Device     string `json:"device"`
}

// Classifier is the inference adapter contract. Classify returns the model's
// probability vector over the configured class table for one image; failures
// (unreachable backend, corrupt image) are Inference errors, distinguishable
// from valid low-confidence vectors.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (model.ClassProbabilities, error)
	Health(ctx context.Context) (ModelHealth, error)
}

// Renderer is the document renderer contract: a frozen report snapshot in,
// document bytes out.
type Renderer interface {
	Render(ctx context.Context, report *model.Report) ([]byte, error)
}
