package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// 8 KB tail of stderr kept for diagnostics.
const maxStderrBytes = 8 * 1024

// FFmpeg is the execution contract for media probing and rendering.
type FFmpeg interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	Render(ctx context.Context, args []string) error
}

// ProbeResult is the source metadata the editor and renderer need.
type ProbeResult struct {
	Duration  float64
	Width     int
	Height    int
	Codec     string
	FrameRate float64
	HasAudio  bool
}

// ExecFFmpeg runs the real ffmpeg and ffprobe binaries.
type ExecFFmpeg struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewExecFFmpeg resolves the configured binary paths, falling back to
// PATH lookup when they are empty.
func NewExecFFmpeg(ffmpegPath, ffprobePath string, logger *slog.Logger) (*ExecFFmpeg, error) {
	ffmpeg, err := resolveBinary(ffmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(ffprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	logger.Info("ffmpeg resolved", "ffmpeg", ffmpeg, "ffprobe", ffprobe)
	return &ExecFFmpeg{ffmpeg: ffmpeg, ffprobe: ffprobe, logger: logger}, nil
}

func resolveBinary(preferred, fallback string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured binary %q not found", preferred)
	}
	p, err := exec.LookPath(fallback)
	if err != nil {
		return "", fmt.Errorf("no %s binary found on PATH", fallback)
	}
	return p, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe reads container and stream metadata via ffprobe.
func (f *ExecFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	result.Duration, _ = strconv.ParseFloat(parsed.Format.Duration, 64)
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if result.Width == 0 {
				result.Width = s.Width
				result.Height = s.Height
				result.Codec = s.CodecName
				result.FrameRate = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			result.HasAudio = true
		}
	}
	return result, nil
}

// parseFrameRate decodes ffprobe's rational frame rate ("30000/1001").
func parseFrameRate(r string) float64 {
	num, den, found := strings.Cut(r, "/")
	if !found {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// Render executes one ffmpeg invocation, keeping a bounded stderr tail
// for the error message.
func (f *ExecFFmpeg) Render(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &tailWriter{buf: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	f.logger.Info("executing ffmpeg", "arg_count", len(args))

	if err := cmd.Run(); err != nil {
		tail := stderrBuf.String()
		f.logger.Warn("ffmpeg failed", "error", err, "stderr_tail", truncate(tail, 512))
		return fmt.Errorf("ffmpeg: %w: %s", err, truncate(tail, 512))
	}
	return nil
}

// StubFFmpeg satisfies the contract without touching any binary, for
// headless development and tests.
type StubFFmpeg struct {
	logger *slog.Logger
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{logger: logger}
}

func (f *StubFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	f.logger.Info("ffmpeg stub: probe requested", "path", path)
	return &ProbeResult{Duration: 60, Width: 1920, Height: 1080, FrameRate: 30, HasAudio: true}, nil
}

func (f *StubFFmpeg) Render(ctx context.Context, args []string) error {
	f.logger.Info("ffmpeg stub: render requested", "arg_count", len(args))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// tailWriter keeps only the last limit bytes written.
type tailWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		b := w.buf.Bytes()
		tail := make([]byte, w.limit)
		copy(tail, b[len(b)-w.limit:])
		w.buf.Reset()
		w.buf.Write(tail)
	}
	return n, nil
}
