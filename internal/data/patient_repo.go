package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

// PatientRepo provides read access to patient records. Patient rows are owned
// by the lab information system; this service only reads them.
type PatientRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewPatientRepo creates a new PatientRepo instance.
func NewPatientRepo(db *sql.DB, logger *slog.Logger) *PatientRepo {
	return &PatientRepo{DB: db, logger: logger}
}

// GetByID returns a patient by its external id.
func (r *PatientRepo) GetByID(ctx context.Context, patientID string) (*model.Patient, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT patient_id, name, age, created_at
		FROM patients WHERE patient_id = $1`, patientID)

	var p model.Patient
	if err := row.Scan(&p.PatientID, &p.Name, &p.Age, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("patient %s not found", patientID)
		}
		return nil, apperrors.MapDBError(err)
	}
	return &p, nil
}

var _ core.PatientRepository = (*PatientRepo)(nil)
