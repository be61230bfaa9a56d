// Package data implements the Postgres and Redis repositories behind the core ports.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

// JobRepo provides database operations for analysis job management.
type JobRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection.
func NewJobRepo(db *sql.DB, logger *slog.Logger) *JobRepo {
	return &JobRepo{DB: db, logger: logger}
}

const jobColumns = `
  job_id,
  status,
  progress,
  patient_id,
  patient_name,
  patient_age,
  lab_id,
  image_paths,
  outcome,
  created_at,
  updated_at
`

// Create inserts a new job at PENDING with progress 0. A duplicate job id
// (submitter-assigned) maps to a Conflict error via the primary key.
func (r *JobRepo) Create(ctx context.Context, req *model.SubmitJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("submit job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	paths := make([]string, len(req.Images))
	for i, img := range req.Images {
		paths[i] = img.Path
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("marshal image paths: %w", err)
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (job_id, status, progress, patient_id, patient_name, patient_age, lab_id, image_paths)
		VALUES ($1, 'PENDING', 0, $2, $3, $4, $5, $6)
		RETURNING `+jobColumns,
		req.JobID, req.PatientID, req.PatientName, req.PatientAge, req.LabID, pathsJSON)

	job, scanErr := scanJob(row)
	if scanErr != nil {
		return nil, apperrors.MapDBError(scanErr)
	}
	return job, nil
}

// GetByID returns a job by its id.
func (r *JobRepo) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE job_id = $1`, jobID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("job %s not found", jobID)
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// SQL used by ReserveNext to atomically claim the oldest pending job.
const reserveNextSQL = `
  WITH cte AS (
    SELECT job_id FROM jobs
    WHERE status = 'PENDING'
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET status = 'PROCESSING', updated_at = now()
  FROM cte
  WHERE j.job_id = cte.job_id
  RETURNING ` + jobColumns

// ReserveNext claims the next pending job and marks it PROCESSING.
// Returns nil when no pending jobs exist.
func (r *JobRepo) ReserveNext(ctx context.Context) (*model.Job, error) {
	job, err := scanJob(r.DB.QueryRowContext(ctx, reserveNextSQL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// UpdateProgress writes a progress checkpoint for a non-terminal job. The
// GREATEST guard enforces monotonicity at the database: a late write carrying
// a lower value can never move progress backwards.
func (r *JobRepo) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET progress = GREATEST(progress, $2), updated_at = now()
		WHERE job_id = $1 AND status IN ('PENDING', 'PROCESSING')`,
		jobID, progress)
	if err != nil {
		return apperrors.MapDBError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyMissedUpdate(ctx, jobID)
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "job progress updated", "job_id", jobID, "progress", progress)
	}
	return nil
}

// Finalize transitions a job to a terminal status with its outcome payload in
// a single atomic write, so pollers never observe a terminal status without
// its result. Already-terminal jobs are rejected.
func (r *JobRepo) Finalize(ctx context.Context, params core.FinalizeParams) error {
	if !params.Status.Terminal() {
		return apperrors.Validationf("finalize requires a terminal status, got %s", params.Status)
	}

	outcomeJSON, err := json.Marshal(params.Outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, progress = GREATEST(progress, $3), outcome = $4, updated_at = now()
		WHERE job_id = $1 AND status IN ('PENDING', 'PROCESSING')`,
		params.JobID, params.Status, params.Progress, outcomeJSON)
	if err != nil {
		return apperrors.MapDBError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if missErr := r.classifyMissedUpdate(ctx, params.JobID); missErr != nil {
			return missErr
		}
		return apperrors.Conflictf("job %s already finalized", params.JobID)
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "job finalized", "job_id", params.JobID, "status", params.Status)
	}
	return nil
}

// classifyMissedUpdate distinguishes an unknown job from a terminal one when
// a guarded update matched no rows.
func (r *JobRepo) classifyMissedUpdate(ctx context.Context, jobID string) error {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return apperrors.Conflictf("job %s already finalized", jobID)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job         model.Job
		pathsJSON   []byte
		outcomeJSON []byte
	)
	err := row.Scan(
		&job.JobID,
		&job.Status,
		&job.Progress,
		&job.PatientID,
		&job.PatientName,
		&job.PatientAge,
		&job.LabID,
		&pathsJSON,
		&outcomeJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(pathsJSON) > 0 {
		if err := json.Unmarshal(pathsJSON, &job.ImagePaths); err != nil {
			return nil, fmt.Errorf("unmarshal image paths: %w", err)
		}
	}
	if len(outcomeJSON) > 0 {
		job.Outcome = &model.JobOutcome{}
		if err := json.Unmarshal(outcomeJSON, job.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
	}
	return &job, nil
}

var _ core.JobRepository = (*JobRepo)(nil)
