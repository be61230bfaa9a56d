package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func sampleReport() *model.Report {
	return &model.Report{
		JobID:     "job-1",
		PatientID: "patient-1",
		Aggregate: model.AggregateResult{
			Classification: model.TierBenign,
			PrimaryClass:   "NGS",
			TotalCells:     3,
		},
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	doc := []byte("%PDF-1.4 rendered")

	t.Run("posts the report and returns document bytes", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/render", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/pdf", r.Header.Get("Accept"))

			var got map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "job-1", got["jobId"])

			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(doc)
		})

		got, err := client.Render(ctx, sampleReport())
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("nil report rejected", func(t *testing.T) {
		client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
			t.Error("server should not be reached")
		})

		_, err := client.Render(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("error status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "template missing", http.StatusInternalServerError)
		})

		_, err := client.Render(ctx, sampleReport())
		require.Error(t, err)
		assert.True(t, apperrors.IsRender(err))
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("empty document rejected", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		_, err := client.Render(ctx, sampleReport())
		require.Error(t, err)
		assert.True(t, apperrors.IsRender(err))
	})

	t.Run("unreachable renderer", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		client, err := NewClient(ClientOptions{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.Render(ctx, sampleReport())
		assert.True(t, apperrors.IsRender(err))
	})
}
