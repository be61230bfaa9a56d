package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
	"github.com/srijeethT/cytomind/internal/mocks"
	"github.com/srijeethT/cytomind/internal/testutil"
)

type reportFixture struct {
	svc        *ReportService
	reports    *mocks.MockReportRepository
	renderer   *mocks.MockRenderer
	cache      *mocks.MockCacheRepository
	reportsDir string
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportRepository(ctrl)
	renderer := mocks.NewMockRenderer(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	reportsDir := t.TempDir()

	svc := MustNewReportService(ReportServiceOptions{
		Reports:     reports,
		Renderer:    renderer,
		Cache:       cache,
		ReportsDir:  reportsDir,
		DocumentTTL: time.Hour,
	})
	return &reportFixture{svc: svc, reports: reports, renderer: renderer, cache: cache, reportsDir: reportsDir}
}

func completedAnalysis() *model.AnalysisResult {
	return &model.AnalysisResult{
		Aggregate: model.AggregateResult{
			Classification:    model.TierBenign,
			PrimaryClass:      "NGS",
			MalignancyPercent: 1.2,
			TotalCells:        3,
		},
		TotalCellsAnalyzed: 3,
		IndividualResults: []model.PerItemResult{
			testutil.NewItemResult().Build(),
		},
	}
}

func TestNewReportService(t *testing.T) {
	t.Run("missing renderer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := NewReportService(ReportServiceOptions{
			Reports:    mocks.NewMockReportRepository(ctrl),
			ReportsDir: t.TempDir(),
		})
		assert.Error(t, err)
	})
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()
	doc := []byte("%PDF-1.4 test")

	t.Run("renders, stores, and persists", func(t *testing.T) {
		f := newReportFixture(t)
		job := testutil.NewJob().WithID("job-1").Build()

		f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(doc, nil)
		f.cache.EXPECT().Set(gomock.Any(), "job-1", doc, time.Hour).Return(nil)

		var stored *model.Report
		f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r *model.Report) error {
				stored = r
				return nil
			})

		report, err := f.svc.Synthesize(ctx, job, completedAnalysis())
		require.NoError(t, err)
		assert.Equal(t, "/api/reports/job-1/pdf", report.PDFPath)
		assert.Equal(t, job.PatientID, report.PatientID)
		require.NotNil(t, stored)
		assert.Equal(t, report, stored)

		onDisk, readErr := os.ReadFile(filepath.Join(f.reportsDir, "job-1_report.pdf"))
		require.NoError(t, readErr)
		assert.Equal(t, doc, onDisk)
	})

	t.Run("render failure propagates and persists nothing", func(t *testing.T) {
		f := newReportFixture(t)
		job := testutil.NewJob().WithID("job-2").Build()

		f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Render("renderer unreachable", nil))

		_, err := f.svc.Synthesize(ctx, job, completedAnalysis())
		require.Error(t, err)
		assert.True(t, apperrors.IsRender(err))
	})

	t.Run("row persistence failure is an error", func(t *testing.T) {
		f := newReportFixture(t)
		job := testutil.NewJob().WithID("job-3").Build()

		f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(doc, nil)
		f.cache.EXPECT().Set(gomock.Any(), "job-3", doc, time.Hour).Return(nil)
		f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := f.svc.Synthesize(ctx, job, completedAnalysis())
		assert.Error(t, err)
	})

	t.Run("nil inputs rejected", func(t *testing.T) {
		f := newReportFixture(t)
		_, err := f.svc.Synthesize(ctx, nil, nil)
		assert.Error(t, err)
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()
	doc := []byte("%PDF-1.4 cached")

	t.Run("cache hit skips disk", func(t *testing.T) {
		f := newReportFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), "job-1").Return(doc, nil)

		got, err := f.svc.GetDocument(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("cache miss falls back to disk and refills", func(t *testing.T) {
		f := newReportFixture(t)
		path := filepath.Join(f.reportsDir, "job-2_report.pdf")
		require.NoError(t, os.WriteFile(path, doc, 0o644))

		f.cache.EXPECT().Get(gomock.Any(), "job-2").
			Return(nil, apperrors.NotFoundf("cache key %s not found", "job-2"))
		f.cache.EXPECT().Set(gomock.Any(), "job-2", doc, time.Hour).Return(nil)

		got, err := f.svc.GetDocument(ctx, "job-2")
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("missing everywhere is not found", func(t *testing.T) {
		f := newReportFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), "job-3").
			Return(nil, apperrors.NotFoundf("cache key %s not found", "job-3"))

		_, err := f.svc.GetDocument(ctx, "job-3")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("blank id rejected", func(t *testing.T) {
		f := newReportFixture(t)
		_, err := f.svc.GetDocument(ctx, "")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("id escaping the reports directory rejected", func(t *testing.T) {
		f := newReportFixture(t)
		outside := filepath.Join(filepath.Dir(f.reportsDir), "secret_report.pdf")
		require.NoError(t, os.WriteFile(outside, doc, 0o644))

		_, err := f.svc.GetDocument(ctx, "../secret")
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestGetByJobID(t *testing.T) {
	f := newReportFixture(t)
	want := &model.Report{JobID: "job-1"}
	f.reports.EXPECT().GetByJobID(gomock.Any(), "job-1").Return(want, nil)

	got, err := f.svc.GetByJobID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
