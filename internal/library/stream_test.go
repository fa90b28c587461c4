package library

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    *ByteRange
		wantErr error
	}{
		{"no header", "", 100, nil, nil},
		{"full range", "bytes=0-99", 100, &ByteRange{0, 99}, nil},
		{"partial", "bytes=10-19", 100, &ByteRange{10, 19}, nil},
		{"open ended", "bytes=50-", 100, &ByteRange{50, 99}, nil},
		{"suffix", "bytes=-10", 100, &ByteRange{90, 99}, nil},
		{"suffix larger than file", "bytes=-500", 100, &ByteRange{0, 99}, nil},
		{"end clamped", "bytes=10-5000", 100, &ByteRange{10, 99}, nil},
		{"multi range uses first", "bytes=0-9,20-29", 100, &ByteRange{0, 9}, nil},
		{"missing prefix", "0-9", 100, nil, ErrInvalidRange},
		{"garbage", "bytes=abc-def", 100, nil, ErrInvalidRange},
		{"no dash", "bytes=42", 100, nil, ErrInvalidRange},
		{"inverted", "bytes=20-10", 100, nil, ErrUnsatisfiable},
		{"start past end of file", "bytes=100-", 100, nil, ErrUnsatisfiable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRange(tc.header, tc.size)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("range = %+v, want nil", got)
				}
				return
			}
			if got == nil || *got != *tc.want {
				t.Errorf("range = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func streamFixture(t *testing.T) (*Streamer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789abcdefghij"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewStreamer(slog.New(slog.NewTextHandler(io.Discard, nil))), path
}

func TestStreamer_FullFile(t *testing.T) {
	s, path := streamFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)

	if err := s.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges")
	}
	if got := rec.Body.String(); got != "0123456789abcdefghij" {
		t.Errorf("body = %q", got)
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestStreamer_PartialContent(t *testing.T) {
	s, path := streamFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=5-9")

	if err := s.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "56789" {
		t.Errorf("body = %q, want 56789", got)
	}
	if cr := rec.Header().Get("Content-Range"); cr != "bytes 5-9/20" {
		t.Errorf("Content-Range = %q", cr)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "5" {
		t.Errorf("Content-Length = %q", cl)
	}
}

func TestStreamer_Unsatisfiable(t *testing.T) {
	s, path := streamFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=500-")

	if err := s.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d, want 416", rec.Code)
	}
	if cr := rec.Header().Get("Content-Range"); cr != "bytes */20" {
		t.Errorf("Content-Range = %q", cr)
	}
}

func TestStreamer_MalformedRangeFallsBackToFullBody(t *testing.T) {
	s, path := streamFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "frames=1-2")

	if err := s.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.Len() != 20 {
		t.Errorf("status = %d body = %d bytes, want full 200", rec.Code, rec.Body.Len())
	}
}

func TestStreamer_MissingFile(t *testing.T) {
	s, _ := streamFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)

	if err := s.ServeFile(rec, req, "/no/such/file.mp4"); err != nil {
		t.Fatalf("missing file must answer 404, not error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
