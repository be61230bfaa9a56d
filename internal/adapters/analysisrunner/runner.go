// Package analysisrunner drives submitted jobs through classification,
// aggregation, and report synthesis in the background.
package analysisrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/analysis"
	"github.com/srijeethT/cytomind/internal/domain/classify"
	"github.com/srijeethT/cytomind/internal/domain/model"
)

// Progress checkpoints reported while a job moves through the pipeline.
// Classification of the image batch spans the 10-70 band, advancing linearly
// per image.
const (
	progressStarted      = 5
	progressClassifyLo   = 10
	progressClassifySpan = 60
	progressAggregated   = 75
	progressRendered     = 85
	progressPersisted    = 95
	progressDone         = 100
)

const defaultPollInterval = 2 * time.Second

// ReportSynthesizer persists the completed analysis as a report document.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, job *model.Job, result *model.AnalysisResult) (*model.Report, error)
}

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Jobs         core.JobRepository   // Required
	Classifier   core.Classifier      // Required
	Predictor    *classify.Predictor  // Required
	Aggregator   *classify.Aggregator // Required
	Reports      ReportSynthesizer    // Required
	Notifier     analysis.Notifier    // Required: wakes workers on submission
	Logger       *slog.Logger         // Optional
	Concurrency  int                  // Optional: worker count (default 1)
	PollInterval time.Duration        // Optional: reserve retry interval (default 2s)
}

// Runner owns a pool of workers that each repeatedly reserve the oldest
// pending job and drive it to a terminal state. A job is processed by exactly
// one worker; reservation is atomic at the database.
type Runner struct {
	jobs         core.JobRepository
	classifier   core.Classifier
	predictor    *classify.Predictor
	aggregator   *classify.Aggregator
	reports      ReportSynthesizer
	notifier     analysis.Notifier
	logger       *slog.Logger
	concurrency  int
	pollInterval time.Duration
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job repository is required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if opts.Predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if opts.Aggregator == nil {
		return nil, errors.New("aggregator is required")
	}
	if opts.Reports == nil {
		return nil, errors.New("report synthesizer is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("notifier is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Runner{
		jobs:         opts.Jobs,
		classifier:   opts.Classifier,
		predictor:    opts.Predictor,
		aggregator:   opts.Aggregator,
		reports:      opts.Reports,
		notifier:     opts.Notifier,
		logger:       logger,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}, nil
}

// Start runs the worker pool until ctx is canceled. It blocks; callers run it
// in a goroutine or an errgroup.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		worker := i
		g.Go(func() error {
			return r.workerLoop(ctx, worker)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// workerLoop reserves and processes jobs until ctx is canceled. It wakes on
// submission notifications and falls back to the poll interval so jobs left
// pending by a crashed instance are still picked up.
func (r *Runner) workerLoop(ctx context.Context, worker int) error {
	unsub, wake := r.notifier.Subscribe()
	defer unsub()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		for {
			job, err := r.jobs.ReserveNext(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.ErrorContext(ctx, "reserve next job", "worker", worker, "error", err)
				break
			}
			if job == nil {
				break
			}
			r.processJob(ctx, job)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case <-ticker.C:
		}
	}
}

// processJob drives one reserved job to a terminal state. A panic anywhere in
// the pipeline fails the job instead of killing the worker.
func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	logger := r.logger.With("job_id", job.JobID)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "analysis panicked", "panic", rec)
			r.fail(ctx, job.JobID, fmt.Sprintf("analysis panicked: %v", rec))
		}
	}()

	logger.InfoContext(ctx, "analysis started", "images", len(job.ImagePaths))
	r.progress(ctx, job.JobID, progressStarted)

	items := r.classifyAll(ctx, job)
	aggregate, err := r.aggregator.Aggregate(items)
	if err != nil {
		// Every image failed; the per-item errors carry the detail.
		r.fail(ctx, job.JobID, "all images failed classification")
		return
	}
	r.progress(ctx, job.JobID, progressAggregated)

	usable := 0
	for i := range items {
		if !items[i].Failed() {
			usable++
		}
	}
	result := &model.AnalysisResult{
		Aggregate:          aggregate,
		TotalCellsAnalyzed: usable,
		IndividualResults:  items,
	}

	// Render and storage failures fail the job: a completed job always has a
	// retrievable report. The message is preserved verbatim for diagnosis.
	if _, err := r.reports.Synthesize(ctx, job, result); err != nil {
		logger.ErrorContext(ctx, "report synthesis failed", "error", err)
		r.fail(ctx, job.JobID, err.Error())
		return
	}
	r.progress(ctx, job.JobID, progressRendered)
	r.progress(ctx, job.JobID, progressPersisted)

	finalizeErr := r.jobs.Finalize(ctx, core.FinalizeParams{
		JobID:    job.JobID,
		Status:   model.JobStatusCompleted,
		Progress: progressDone,
		Outcome:  &model.JobOutcome{Analysis: result},
	})
	if finalizeErr != nil {
		logger.ErrorContext(ctx, "finalize job", "error", finalizeErr)
		return
	}

	logger.InfoContext(ctx, "analysis completed",
		"classification", aggregate.Classification,
		"cells", usable,
		"duration", time.Since(start))
}

// classifyAll scores every image in submission order. A failing image yields
// an error slot at its index; remaining images still run.
func (r *Runner) classifyAll(ctx context.Context, job *model.Job) []model.PerItemResult {
	n := len(job.ImagePaths)
	items := make([]model.PerItemResult, 0, n)
	for idx, path := range job.ImagePaths {
		filename := filepath.Base(path)
		input := classify.ItemInput{ImageIndex: idx, ImageFilename: filename}

		item, err := r.classifyOne(ctx, path, input)
		if err != nil {
			r.logger.WarnContext(ctx, "image classification failed",
				"job_id", job.JobID, "image", filename, "error", err)
			item = model.PerItemResult{
				ImageIndex:    idx,
				ImageFilename: filename,
				Error:         err.Error(),
			}
		}
		items = append(items, item)

		if n > 0 {
			r.progress(ctx, job.JobID, progressClassifyLo+(idx+1)*progressClassifySpan/n)
		}
	}
	return items
}

func (r *Runner) classifyOne(ctx context.Context, path string, input classify.ItemInput) (model.PerItemResult, error) {
	probs, err := r.classifier.Classify(ctx, path)
	if err != nil {
		return model.PerItemResult{}, err
	}
	return r.predictor.PredictOne(probs, input)
}

// progress records a checkpoint. Progress writes are advisory; a failure is
// logged and the pipeline keeps going.
func (r *Runner) progress(ctx context.Context, jobID string, value int) {
	if err := r.jobs.UpdateProgress(ctx, jobID, value); err != nil {
		r.logger.WarnContext(ctx, "update progress", "job_id", jobID, "progress", value, "error", err)
	}
}

// fail finalizes a job as FAILED with the given message.
func (r *Runner) fail(ctx context.Context, jobID, message string) {
	err := r.jobs.Finalize(ctx, core.FinalizeParams{
		JobID:    jobID,
		Status:   model.JobStatusFailed,
		Progress: progressDone,
		Outcome:  &model.JobOutcome{Error: &model.JobError{Message: message}},
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "finalize failed job", "job_id", jobID, "error", err)
	}
}
