package model

import "time"

// Patient is an external entity referenced by reports. This service reads
// patient records for report demographics and never manages their lifecycle.
type Patient struct {
	PatientID string    `json:"patientId" db:"patient_id"`
	Name      string    `json:"name"      db:"name"`
	Age       int       `json:"age"       db:"age"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
