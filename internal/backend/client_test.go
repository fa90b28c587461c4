package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shortsplice/splice-agent/internal/export"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayload() *export.RenderPayload {
	return &export.RenderPayload{
		FileID: "f1",
		Segments: []export.SegmentPayload{
			{ID: "s1", Start: 5, End: 10, CropOffset: 0.25, Speed: 1},
		},
		Audio: []export.AudioPayload{{ID: "original", Volume: 1}},
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClient_ProcessVideo(t *testing.T) {
	rendered := []byte("rendered short bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process-video" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-Splice-Request-Id") == "" {
			t.Error("missing request id header")
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "src.mp4" {
			t.Errorf("filename = %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != "fake video bytes" {
			t.Errorf("file body = %q", body)
		}

		var segments []export.SegmentPayload
		if err := json.Unmarshal([]byte(r.FormValue("segments")), &segments); err != nil {
			t.Fatalf("segments field: %v", err)
		}
		if len(segments) != 1 || segments[0].CropOffset != 0.25 {
			t.Errorf("segments = %+v", segments)
		}
		if r.FormValue("audio") == "" {
			t.Error("missing audio field")
		}

		w.Write(rendered)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, discard())
	outPath := filepath.Join(t.TempDir(), "out.mp4")

	if err := c.ProcessVideo(context.Background(), writeSource(t), testPayload(), outPath); err != nil {
		t.Fatalf("ProcessVideo() error = %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(rendered) {
		t.Errorf("output = %q, want the rendered bytes", got)
	}
}

func TestClient_ProcessVideo_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Error(w, "encoder crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, discard())
	err := c.ProcessVideo(context.Background(), writeSource(t), testPayload(), filepath.Join(t.TempDir(), "out.mp4"))

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if !reqErr.IsRetryable() {
		t.Error("5xx must be retryable")
	}
}

func TestClient_ProcessVideo_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Error(w, "no segments", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, discard())
	err := c.ProcessVideo(context.Background(), writeSource(t), testPayload(), filepath.Join(t.TempDir(), "out.mp4"))

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.IsRetryable() {
		t.Error("4xx must be permanent")
	}
}

func TestClient_ProcessVideo_MissingSource(t *testing.T) {
	c := NewClient("http://localhost:1", discard())
	err := c.ProcessVideo(context.Background(), "/does/not/exist.mp4", testPayload(), "out.mp4")
	if err == nil {
		t.Error("missing source must fail before any request")
	}
}
