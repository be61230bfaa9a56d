package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijeethT/cytomind/internal/core"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
	"github.com/srijeethT/cytomind/internal/testutil"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cell.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		BaseURL: srv.URL,
		Classes: testutil.DefaultClasses,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		_, err := NewClient(ClientOptions{Classes: testutil.DefaultClasses})
		assert.Error(t, err)
	})

	t.Run("missing classes", func(t *testing.T) {
		_, err := NewClient(ClientOptions{BaseURL: "http://model:8500"})
		assert.Error(t, err)
	})
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes positional probabilities", func(t *testing.T) {
		probs := make([]float64, len(testutil.DefaultClasses))
		probs[0] = 90 // ABE is first in table order
		probs[1] = 10

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/predict", r.URL.Path)

			f, fh, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "cell.jpg", fh.Filename)
			body, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, "fake image bytes", string(body))

			json.NewEncoder(w).Encode(map[string]any{"probabilities": probs})
		})

		got, err := client.Classify(ctx, writeTestImage(t))
		require.NoError(t, err)
		require.Len(t, got, len(testutil.DefaultClasses))
		assert.Equal(t, "ABE", got[0].Class)
		assert.Equal(t, 90.0, got[0].Probability)
		assert.Equal(t, 10.0, got[1].Probability)
	})

	t.Run("missing image file", func(t *testing.T) {
		client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
			t.Error("server should not be reached")
		})

		_, err := client.Classify(ctx, filepath.Join(t.TempDir(), "gone.jpg"))
		assert.True(t, apperrors.IsInference(err))
	})

	t.Run("backend error status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		})

		_, err := client.Classify(ctx, writeTestImage(t))
		require.Error(t, err)
		assert.True(t, apperrors.IsInference(err))
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("vector length mismatch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"probabilities": []float64{1, 2, 3}})
		})

		_, err := client.Classify(ctx, writeTestImage(t))
		require.Error(t, err)
		assert.True(t, apperrors.IsInference(err))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		client, err := NewClient(ClientOptions{BaseURL: srv.URL, Classes: testutil.DefaultClasses})
		require.NoError(t, err)

		_, err = client.Classify(ctx, writeTestImage(t))
		assert.True(t, apperrors.IsInference(err))
	})
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy backend", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/health", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"model_loaded": true,
				"num_classes":  21,
				"device":       "cuda",
			})
		})

		health, err := client.Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.ModelHealth{Available: true, NumClasses: 21, Device: "cuda"}, health)
	})

	t.Run("unhealthy status code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.Health(ctx)
		assert.True(t, apperrors.IsInference(err))
	})
}
