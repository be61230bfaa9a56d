// Package renderer adapts a remote document renderer to the core Renderer port.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/srijeethT/cytomind/internal/core"
	"github.com/srijeethT/cytomind/internal/domain/model"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

const renderPath = "/v1/render"

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL string        // Required: renderer base URL
	Timeout time.Duration // Optional: per-request timeout (default 60s)
	HTTP    *http.Client  // Optional
	Logger  *slog.Logger  // Optional
}

// Client posts a frozen report snapshot to the renderer and returns the
// produced document bytes. Rendering failures are Render errors and never
// affect the already-finalized analysis outcome.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a renderer client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("renderer base URL is required")
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: opts.BaseURL, http: httpClient, logger: opts.Logger}, nil
}

// Render produces the PDF document for a report.
func (c *Client) Render(ctx context.Context, report *model.Report) ([]byte, error) {
	if report == nil {
		return nil, errors.New("report is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, apperrors.Render("marshal report", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+renderPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Render("build render request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Render("renderer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.Render(
			fmt.Sprintf("renderer returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Render("read rendered document", err)
	}
	if len(doc) == 0 {
		return nil, apperrors.Render("renderer returned empty document", nil)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "report rendered", "job_id", report.JobID, "bytes", len(doc))
	}
	return doc, nil
}

var _ core.Renderer = (*Client)(nil)
