// Package inference adapts a remote model server to the core Classifier port.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

const (
	predictPath = "/v1/predict"
	healthPath  = "/v1/health"
)

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL string        // Required: model server base URL
	Classes []string      // Required: class order of the returned probability vector
	Timeout time.Duration // Optional: per-request timeout (default 30s)
	HTTP    *http.Client  // Optional: override the underlying HTTP client
	Logger  *slog.Logger  // Optional
}

// Client posts images to the model server and decodes probability vectors.
// All backend failures surface as Inference errors, keeping "the model could
// not score this image" distinguishable from a valid low-confidence vector.
type Client struct {
	baseURL string
	classes []string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs an inference client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("model server base URL is required")
	}
	if len(opts.Classes) == 0 {
		return nil, errors.New("class order is required")
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: opts.BaseURL,
		classes: opts.Classes,
		http:    httpClient,
		logger:  opts.Logger,
	}, nil
}

// predictResponse is the model server's scoring payload. Probabilities are
// positional over the class order agreed at deployment, in percent.
type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// Classify scores one image and returns its probability vector in class table
// order.
func (c *Client) Classify(ctx context.Context, imagePath string) (model.ClassProbabilities, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, apperrors.Inference(fmt.Sprintf("open image %s", filepath.Base(imagePath)), err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(imagePath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, pr)
	if err != nil {
		return nil, apperrors.Inference("build predict request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Inference("model server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.Inference(
			fmt.Sprintf("model server returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.Inference("decode predict response", err)
	}
	if len(decoded.Probabilities) != len(c.classes) {
		return nil, apperrors.Inference(
			fmt.Sprintf("probability vector has %d entries, expected %d",
				len(decoded.Probabilities), len(c.classes)), nil)
	}

	probs := make(model.ClassProbabilities, len(c.classes))
	for i, class := range c.classes {
		probs[i] = model.ClassProbability{Class: class, Probability: decoded.Probabilities[i]}
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "image classified", "image", filepath.Base(imagePath))
	}
	return probs, nil
}

// Health reports the model server's readiness.
func (c *Client) Health(ctx context.Context) (core.ModelHealth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return core.ModelHealth{}, apperrors.Inference("build health request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.ModelHealth{}, apperrors.Inference("model server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.ModelHealth{}, apperrors.Inference(
			fmt.Sprintf("model server health returned %d", resp.StatusCode), nil)
	}

	var health core.ModelHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return core.ModelHealth{}, apperrors.Inference("decode health response", err)
	}
	return health, nil
}

var _ core.Classifier = (*Client)(nil)
