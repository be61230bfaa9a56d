// Package testutil provides testing utilities and helpers for the analysis system.
package testutil

import (
	"time"

	"github.com/srijeethT/cytomind/internal/domain/model"
)

// DefaultClasses is the full ordered class table used across tests.
var DefaultClasses = []string{
	"ABE", "ART", "BAS", "BLA", "EBO", "EOS", "FGC", "HAC", "KSC", "LYI", "LYT",
	"MMZ", "MON", "MYB", "NGB", "NGS", "NIF", "OTH", "PEB", "PLM", "PMO",
}

// ItemMalignantClasses is the per-item malignant set used across tests.
var ItemMalignantClasses = []string{"BLA", "MYB", "PLM", "PMO", "ABE", "FGC", "HAC", "LYI"}

// BatchMalignantClasses is the aggregate-level malignant set used across tests.
var BatchMalignantClasses = []string{"BLA", "MYB", "PMO", "FGC", "ABE", "EBO", "PLM"}

// UniformVector builds a probability vector spreading the remainder evenly
// after assigning the given probabilities (in percent) to specific classes.
func UniformVector(classes []string, assigned map[string]float64) model.ClassProbabilities {
	total := 0.0
	for _, p := range assigned {
		total += p
	}
	rest := len(classes) - len(assigned)
	var fill float64
	if rest > 0 {
		fill = (100 - total) / float64(rest)
	}

	vec := make(model.ClassProbabilities, 0, len(classes))
	for _, c := range classes {
		p, ok := assigned[c]
		if !ok {
			p = fill
		}
		vec = append(vec, model.ClassProbability{Class: c, Probability: p})
	}
	return vec
}

// JobBuilder provides a fluent interface for building Job objects for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults.
func NewJob() *JobBuilder {
	now := time.Now().UTC()
	return &JobBuilder{
		job: &model.Job{
			JobID:       "job-1",
			Status:      model.JobStatusPending,
			Progress:    0,
			PatientID:   "patient-1",
			PatientName: "Test Patient",
			PatientAge:  42,
			ImagePaths:  []string{"uploads/job-1_0.jpg"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.JobID = id
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithProgress sets the job progress.
func (b *JobBuilder) WithProgress(progress int) *JobBuilder {
	b.job.Progress = progress
	return b
}

// WithImagePaths sets the submitted image paths.
func (b *JobBuilder) WithImagePaths(paths ...string) *JobBuilder {
	b.job.ImagePaths = paths
	return b
}

// WithOutcome sets the terminal outcome.
func (b *JobBuilder) WithOutcome(outcome *model.JobOutcome) *JobBuilder {
	b.job.Outcome = outcome
	return b
}

// WithLabID sets the lab id.
func (b *JobBuilder) WithLabID(labID string) *JobBuilder {
	b.job.LabID = &labID
	return b
}

// Build returns the constructed job.
func (b *JobBuilder) Build() *model.Job {
	j := *b.job
	return &j
}

// ItemResultBuilder provides a fluent interface for building PerItemResult
// objects for testing.
type ItemResultBuilder struct {
	item model.PerItemResult
}

// NewItemResult creates a new ItemResultBuilder with sensible defaults.
func NewItemResult() *ItemResultBuilder {
	return &ItemResultBuilder{
		item: model.PerItemResult{
			ImageIndex:         0,
			ImageFilename:      "cell_0.jpg",
			PrimaryClass:       "NGS",
			PrimaryDisplayName: "Segmented Neutrophil",
			Confidence:         90,
			MalignancyScore:    1,
		},
	}
}

// WithIndex sets the image index and filename.
func (b *ItemResultBuilder) WithIndex(idx int) *ItemResultBuilder {
	b.item.ImageIndex = idx
	return b
}

// WithPrimary sets the primary class.
func (b *ItemResultBuilder) WithPrimary(class string) *ItemResultBuilder {
	b.item.PrimaryClass = class
	b.item.PrimaryDisplayName = class
	return b
}

// WithConfidence sets the primary confidence.
func (b *ItemResultBuilder) WithConfidence(confidence float64) *ItemResultBuilder {
	b.item.Confidence = confidence
	return b
}

// WithMalignancy sets the malignancy score and flag.
func (b *ItemResultBuilder) WithMalignancy(score float64, malignant bool) *ItemResultBuilder {
	b.item.MalignancyScore = score
	b.item.Malignant = malignant
	return b
}

// WithError marks the item as failed.
func (b *ItemResultBuilder) WithError(message string) *ItemResultBuilder {
	b.item.Error = message
	return b
}

// Build returns the constructed item result.
func (b *ItemResultBuilder) Build() model.PerItemResult {
	return b.item
}
