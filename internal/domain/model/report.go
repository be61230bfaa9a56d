package model

import "time"

// Tier is the batch-level clinical classification.
type Tier string

const (
	// TierBenign indicates malignancy percentage below the suspicious threshold.
	TierBenign Tier = "BENIGN"
	// TierSuspicious indicates malignancy percentage at or above the suspicious
	// threshold but below the malignant threshold.
	TierSuspicious Tier = "SUSPICIOUS"
	// TierMalignant indicates malignancy percentage at or above the malignant threshold.
	TierMalignant Tier = "MALIGNANT"
)

// CellDistributionEntry is one class bucket of the aggregate distribution,
// ordered descending by count (first-seen order on ties).
type CellDistributionEntry struct {
	Class       string  `json:"class"`
	DisplayName string  `json:"fullName"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// TopPrediction is a distribution entry reshaped for report display.
type TopPrediction struct {
	Class       string  `json:"class"`
	DisplayName string  `json:"fullName"`
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

// AggregateResult is the deterministic batch verdict derived from an ordered
// sequence of per-item results. Constructed once per job, never mutated.
type AggregateResult struct {
	Classification     Tier                    `json:"classification"`
	PrimaryClass       string                  `json:"primaryClass"`
	PrimaryDisplayName string                  `json:"primaryClassFullName"`
	MalignancyPercent  float64                 `json:"malignancyPercentage"`
	MalignantCellCount int                     `json:"malignantCellCount"`
	TotalCells         int                     `json:"totalCells"`
	Confidence         float64                 `json:"confidence"`
	CellDistribution   []CellDistributionEntry `json:"cellDistribution"`
	TopPredictions     []TopPrediction         `json:"topPredictions"`
}

// Report is the persisted, immutable record combining the aggregate verdict,
// patient metadata, per-item detail, and the rendered document location.
type Report struct {
	JobID             string          `json:"jobId"            db:"job_id"`
	PatientID         string          `json:"patientId"        db:"patient_id"`
	LabID             *string         `json:"labId,omitempty"  db:"lab_id"`
	Aggregate         AggregateResult `json:"aggregate"`
	IndividualResults []PerItemResult `json:"individualResults" db:"individual_results"`
	PDFPath           string          `json:"pdfUrl"           db:"pdf_path"`
	CreatedAt         time.Time       `json:"createdAt"        db:"created_at"`
}
