package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/analysis"
	"github.com/srijeethT/cytomind/internal/domain/classify"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
	"github.com/srijeethT/cytomind/internal/mocks"
	"github.com/srijeethT/cytomind/internal/service"
	"github.com/srijeethT/cytomind/internal/testutil"
)

type routerFixture struct {
	handler    http.Handler
	jobs       *mocks.MockJobRepository
	reports    *mocks.MockReportRepository
	classifier *mocks.MockClassifier
	renderer   *mocks.MockRenderer
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	reports := mocks.NewMockReportRepository(ctrl)
	classifier := mocks.NewMockClassifier(ctrl)
	renderer := mocks.NewMockRenderer(ctrl)

	table, err := classify.NewClassTable(testutil.DefaultClasses, nil)
	require.NoError(t, err)
	predictor, err := classify.NewPredictor(classify.PredictorOptions{
		Table:            table,
		MalignantClasses: testutil.ItemMalignantClasses,
	})
	require.NoError(t, err)

	analysisSvc := service.MustNewAnalysisService(service.AnalysisServiceOptions{
		Jobs:       jobs,
		Classifier: classifier,
		Predictor:  predictor,
		Notifier:   analysis.NewNotifier(),
		UploadDir:  t.TempDir(),
	})
	reportSvc := service.MustNewReportService(service.ReportServiceOptions{
		Reports:     reports,
		Renderer:    renderer,
		ReportsDir:  t.TempDir(),
		DocumentTTL: time.Hour,
	})

	handler := NewRouter(RouterServices{
		Analysis:       analysisSvc,
		Reports:        reportSvc,
		MaxUploadBytes: 10 << 20,
	})
	return &routerFixture{
		handler:    handler,
		jobs:       jobs,
		reports:    reports,
		classifier: classifier,
		renderer:   renderer,
	}
}

// multipartBody builds a multipart form with the given text fields and one
// image part per filename under the given field name.
func multipartBody(t *testing.T, fields map[string]string, fileField string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range filenames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, name))
		header.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		f := newRouterFixture(t)
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *model.SubmitJobRequest) (*model.Job, error) {
				return testutil.NewJob().WithID(req.JobID).Build(), nil
			})

		body, contentType := multipartBody(t, map[string]string{
			"jobId":       "job-1",
			"patientId":   "patient-1",
			"patientName": "Test Patient",
			"patientAge":  "42",
		}, "files", "a.jpg", "b.jpg")

		req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp["jobId"])
		assert.Equal(t, float64(2), resp["totalImages"])
		assert.Equal(t, "analysis started", resp["message"])
	})

	t.Run("generates a job id when omitted", func(t *testing.T) {
		f := newRouterFixture(t)
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *model.SubmitJobRequest) (*model.Job, error) {
				assert.NotEmpty(t, req.JobID)
				return testutil.NewJob().WithID(req.JobID).Build(), nil
			})

		body, contentType := multipartBody(t, map[string]string{
			"patientId":   "patient-1",
			"patientName": "Test Patient",
			"patientAge":  "42",
		}, "files", "a.jpg")

		req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("rejects malformed patientAge", func(t *testing.T) {
		f := newRouterFixture(t)

		body, contentType := multipartBody(t, map[string]string{
			"patientId":  "patient-1",
			"patientAge": "forty-two",
		}, "files", "a.jpg")

		req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects submission without images", func(t *testing.T) {
		f := newRouterFixture(t)

		body, contentType := multipartBody(t, map[string]string{
			"patientId":   "patient-1",
			"patientName": "Test Patient",
			"patientAge":  "42",
		}, "files")

		req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation", resp["error"])
	})

	t.Run("duplicate job id conflicts", func(t *testing.T) {
		f := newRouterFixture(t)
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Conflictf("job %s already exists", "job-1"))

		body, contentType := multipartBody(t, map[string]string{
			"jobId":       "job-1",
			"patientId":   "patient-1",
			"patientName": "Test Patient",
			"patientAge":  "42",
		}, "files", "a.jpg")

		req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("running job", func(t *testing.T) {
		f := newRouterFixture(t)
		job := testutil.NewJob().WithID("job-1").WithStatus(model.JobStatusProcessing).WithProgress(40).Build()
		f.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(job, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1/status", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp["jobId"])
		assert.Equal(t, "PROCESSING", resp["status"])
		assert.Equal(t, float64(40), resp["progress"])
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newRouterFixture(t)
		f.jobs.EXPECT().GetByID(gomock.Any(), "nope").
			Return(nil, apperrors.NotFoundf("job %s not found", "nope"))

		req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope/status", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPredictEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	vec := testutil.UniformVector(testutil.DefaultClasses, map[string]float64{"BLA": 40})
	f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(vec, nil)

	body, contentType := multipartBody(t, nil, "file", "cell.jpg")
	req := httptest.NewRequest(http.MethodPost, "/api/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var item model.PerItemResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "BLA", item.PrimaryClass)
	assert.True(t, item.Malignant)
}

func TestReportEndpoints(t *testing.T) {
	t.Run("report record", func(t *testing.T) {
		f := newRouterFixture(t)
		report := &model.Report{JobID: "job-1", PatientID: "patient-1"}
		f.reports.EXPECT().GetByJobID(gomock.Any(), "job-1").Return(report, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/reports/job-1", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp["jobId"])
	})

	t.Run("missing report", func(t *testing.T) {
		f := newRouterFixture(t)
		f.reports.EXPECT().GetByJobID(gomock.Any(), "nope").
			Return(nil, apperrors.NotFoundf("report for job %s not found", "nope"))

		req := httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newRouterFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/api/reports/job-9/pdf", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		f := newRouterFixture(t)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("readiness healthy", func(t *testing.T) {
		f := newRouterFixture(t)
		f.classifier.EXPECT().Health(gomock.Any()).
			Return(core.ModelHealth{Available: true, NumClasses: 21, Device: "cuda"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp healthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.ModelLoaded)
		assert.Equal(t, 21, resp.NumClasses)
	})

	t.Run("readiness degraded", func(t *testing.T) {
		f := newRouterFixture(t)
		f.classifier.EXPECT().Health(gomock.Any()).
			Return(core.ModelHealth{}, apperrors.Inference("model server unreachable", nil))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
