package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shortsplice/splice-agent/internal/export"
)

type fakeFFmpeg struct {
	mu        sync.Mutex
	probe     ProbeResult
	probeErr  error
	renderErr error
	rendered  [][]string
	block     chan struct{}
}

func (f *fakeFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	p := f.probe
	return &p, nil
}

func (f *fakeFFmpeg) Render(ctx context.Context, args []string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.rendered = append(f.rendered, args)
	f.mu.Unlock()
	return f.renderErr
}

func (f *fakeFFmpeg) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rendered)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func payload() *export.RenderPayload {
	return &export.RenderPayload{
		FileID:   "f1",
		Segments: []export.SegmentPayload{{ID: "s1", Start: 0, End: 5, CropOffset: 0.5, Speed: 1}},
	}
}

func waitState(t *testing.T, job *Job, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job.Status().State == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("job never reached %q, stuck at %q", want, job.Status().State)
}

func TestRenderer_Start(t *testing.T) {
	ff := &fakeFFmpeg{probe: ProbeResult{HasAudio: true}}
	r, err := NewRenderer(ff, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}

	job, err := r.Start(context.Background(), payload(), "sess-1", "/videos/in.mp4")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitState(t, job, StateDone)

	st := job.Status()
	if !strings.HasSuffix(st.OutputPath, ".mp4") {
		t.Errorf("output path = %q", st.OutputPath)
	}
	if ff.renderCount() != 1 {
		t.Errorf("render invocations = %d, want 1", ff.renderCount())
	}

	got, err := r.Job(job.ID)
	if err != nil || got.ID != job.ID {
		t.Errorf("Job(%q) = %v, %v", job.ID, got, err)
	}
}

func TestRenderer_Failure(t *testing.T) {
	ff := &fakeFFmpeg{renderErr: errors.New("encoder exploded")}
	r, err := NewRenderer(ff, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}

	job, err := r.Start(context.Background(), payload(), "sess-1", "in.mp4")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitState(t, job, StateFailed)

	if st := job.Status(); !strings.Contains(st.Error, "encoder exploded") {
		t.Errorf("error = %q", st.Error)
	}
}

func TestRenderer_ProbeErrorIsSynchronous(t *testing.T) {
	ff := &fakeFFmpeg{probeErr: errors.New("no such file")}
	r, err := NewRenderer(ff, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Start(context.Background(), payload(), "sess-1", "in.mp4"); err == nil {
		t.Error("unreadable source must fail Start, not the background job")
	}
}

func TestRenderer_EmptyPayloadIsSynchronous(t *testing.T) {
	r, err := NewRenderer(&fakeFFmpeg{}, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Start(context.Background(), &export.RenderPayload{}, "sess-1", "in.mp4")
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("error = %v, want ErrNoSegments", err)
	}
}

func TestRenderer_OneJobPerSession(t *testing.T) {
	ff := &fakeFFmpeg{block: make(chan struct{})}
	r, err := NewRenderer(ff, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}

	job, err := r.Start(context.Background(), payload(), "sess-1", "in.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if r.Running() != 1 {
		t.Errorf("Running() = %d, want 1", r.Running())
	}

	if _, err := r.Start(context.Background(), payload(), "sess-1", "in.mp4"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("second render error = %v, want ErrSessionBusy", err)
	}

	// A different session renders concurrently.
	other, err := r.Start(context.Background(), payload(), "sess-2", "in.mp4")
	if err != nil {
		t.Fatalf("other session blocked: %v", err)
	}

	close(ff.block)
	waitState(t, job, StateDone)
	waitState(t, other, StateDone)
	if r.Running() != 0 {
		t.Errorf("Running() = %d after completion", r.Running())
	}
}

type fakeRemote struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRemote) ProcessVideo(ctx context.Context, videoPath string, p *export.RenderPayload, outPath string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.err
}

func TestRenderer_RemoteBackend(t *testing.T) {
	ff := &fakeFFmpeg{probe: ProbeResult{HasAudio: true}}
	r, err := NewRenderer(ff, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}
	remote := &fakeRemote{}
	r.UseRemote(remote)

	job, err := r.Start(context.Background(), payload(), "sess-1", "in.mp4")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitState(t, job, StateDone)

	if remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1", remote.calls)
	}
	if ff.renderCount() != 0 {
		t.Error("remote mode must not invoke local ffmpeg")
	}
}

func TestNewRenderer_RejectsTraversalDir(t *testing.T) {
	dir := t.TempDir() + "/jobs/../escape"
	if _, err := NewRenderer(&fakeFFmpeg{}, dir, 0, discard()); err == nil {
		t.Error("a traversing output dir must be rejected")
	}
}

func TestRenderer_UnknownJob(t *testing.T) {
	r, err := NewRenderer(&fakeFFmpeg{}, t.TempDir(), 0, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Job("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("error = %v, want ErrJobNotFound", err)
	}
}
