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

// ReportRepo provides database operations for persisted analysis reports.
// Reports are written once at job completion and never mutated.
type ReportRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewReportRepo creates a new ReportRepo instance.
func NewReportRepo(db *sql.DB, logger *slog.Logger) *ReportRepo {
	return &ReportRepo{DB: db, logger: logger}
}

// Create inserts the report record. The aggregate verdict is flattened into
// queryable columns; the distribution and per-item detail live in JSONB.
func (r *ReportRepo) Create(ctx context.Context, report *model.Report) error {
	if report == nil {
		return errors.New("report is required")
	}

	distJSON, err := json.Marshal(report.Aggregate.CellDistribution)
	if err != nil {
		return fmt.Errorf("marshal cell distribution: %w", err)
	}
	topJSON, err := json.Marshal(report.Aggregate.TopPredictions)
	if err != nil {
		return fmt.Errorf("marshal top predictions: %w", err)
	}
	itemsJSON, err := json.Marshal(report.IndividualResults)
	if err != nil {
		return fmt.Errorf("marshal individual results: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO reports (
			job_id, patient_id, lab_id,
			classification, primary_class, primary_class_full_name, malignancy_pct,
			malignant_cell_count, total_cells, confidence,
			cell_distribution, top_predictions, individual_results,
			pdf_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		report.JobID, report.PatientID, report.LabID,
		report.Aggregate.Classification, report.Aggregate.PrimaryClass, report.Aggregate.PrimaryDisplayName, report.Aggregate.MalignancyPercent,
		report.Aggregate.MalignantCellCount, report.Aggregate.TotalCells, report.Aggregate.Confidence,
		distJSON, topJSON, itemsJSON,
		report.PDFPath)
	if err != nil {
		return apperrors.MapDBError(err)
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "report stored", "job_id", report.JobID)
	}
	return nil
}

// GetByJobID returns the persisted report for a completed job.
func (r *ReportRepo) GetByJobID(ctx context.Context, jobID string) (*model.Report, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT
			job_id, patient_id, lab_id,
			classification, primary_class, primary_class_full_name, malignancy_pct,
			malignant_cell_count, total_cells, confidence,
			cell_distribution, top_predictions, individual_results,
			pdf_path, created_at
		FROM reports WHERE job_id = $1`, jobID)

	var (
		report    model.Report
		distJSON  []byte
		topJSON   []byte
		itemsJSON []byte
	)
	err := row.Scan(
		&report.JobID, &report.PatientID, &report.LabID,
		&report.Aggregate.Classification, &report.Aggregate.PrimaryClass, &report.Aggregate.PrimaryDisplayName, &report.Aggregate.MalignancyPercent,
		&report.Aggregate.MalignantCellCount, &report.Aggregate.TotalCells, &report.Aggregate.Confidence,
		&distJSON, &topJSON, &itemsJSON,
		&report.PDFPath, &report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("report for job %s not found", jobID)
		}
		return nil, apperrors.MapDBError(err)
	}

	if err := json.Unmarshal(distJSON, &report.Aggregate.CellDistribution); err != nil {
		return nil, fmt.Errorf("unmarshal cell distribution: %w", err)
	}
	if err := json.Unmarshal(topJSON, &report.Aggregate.TopPredictions); err != nil {
		return nil, fmt.Errorf("unmarshal top predictions: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &report.IndividualResults); err != nil {
		return nil, fmt.Errorf("unmarshal individual results: %w", err)
	}
	return &report, nil
}

var _ core.ReportRepository = (*ReportRepo)(nil)
