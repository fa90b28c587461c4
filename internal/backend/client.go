// Package backend is the HTTP client for a remote processing service.
// The agent renders locally by default; when a backend URL is
// configured the source file and cut description are shipped there
// instead and the finished short is streamed back.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shortsplice/splice-agent/internal/export"
	"github.com/shortsplice/splice-agent/internal/session"
)

// RequestError is a non-2xx response from the processing endpoint.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("process request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx)
// are considered permanent.
func (e *RequestError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// Client posts cut descriptions to the processing backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		logger: logger,
	}
}

// ProcessVideo uploads the source file with the payload's segments,
// titles and audio config as multipart form fields, and writes the
// rendered video the backend returns to outPath.
func (c *Client) ProcessVideo(ctx context.Context, videoPath string, p *export.RenderPayload, outPath string) error {
	src, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(form, src, filepath.Base(videoPath), p))
	}()

	url := c.baseURL + "/process-video"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Splice-Request-Id", session.NewID())

	c.logger.Info("posting cut to processing backend",
		"url", url,
		"file_id", p.FileID,
		"segment_count", len(p.Segments),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("stream rendered video: %w", err)
	}

	c.logger.Info("processing backend returned render", "output", outPath, "bytes", n)
	return nil
}

func writeForm(form *multipart.Writer, src io.Reader, filename string, p *export.RenderPayload) error {
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}

	fields := map[string]any{
		"segments": p.Segments,
		"titles":   p.Titles,
		"audio":    p.Audio,
	}
	for name, v := range fields {
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err := form.WriteField(name, string(encoded)); err != nil {
			return err
		}
	}

	return form.Close()
}
