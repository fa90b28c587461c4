package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shortsplice/splice-agent/internal/export"
	"github.com/shortsplice/splice-agent/internal/session"
)

// Job states.
const (
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

var (
	ErrJobNotFound = errors.New("render job not found")
	ErrSessionBusy = errors.New("a render is already running for this session")
)

// Status is a point-in-time snapshot of one render job.
type Status struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	State      string    `json:"state"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Job is one asynchronous render.
type Job struct {
	ID         string
	SessionID  string
	OutputPath string

	mu         sync.Mutex
	state      string
	err        string
	startedAt  time.Time
	finishedAt time.Time
}

// Status returns a snapshot of the job.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Status{
		ID:         j.ID,
		SessionID:  j.SessionID,
		State:      j.state,
		OutputPath: j.OutputPath,
		Error:      j.err,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = time.Now()
	if err != nil {
		j.state = StateFailed
		j.err = err.Error()
	} else {
		j.state = StateDone
	}
}

// RemoteProcessor hands the whole render off to a backend service
// instead of running ffmpeg locally.
type RemoteProcessor interface {
	ProcessVideo(ctx context.Context, videoPath string, payload *export.RenderPayload, outPath string) error
}

// Renderer runs renders asynchronously, one at a time per session, and
// tracks their jobs for status reporting. Renders execute through the
// local ffmpeg binary, or through a remote processor when one is set.
type Renderer struct {
	ff      FFmpeg
	remote  RemoteProcessor
	outDir  string
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRenderer creates a renderer writing into outDir. timeout bounds a
// single ffmpeg invocation; zero means no bound.
func NewRenderer(ff FFmpeg, outDir string, timeout time.Duration, logger *slog.Logger) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create render dir: %w", err)
	}
	if err := export.ValidateOutputDir(outDir); err != nil {
		return nil, fmt.Errorf("render dir rejected: %w", err)
	}
	return &Renderer{
		ff:      ff,
		outDir:  outDir,
		timeout: timeout,
		logger:  logger,
		jobs:    make(map[string]*Job),
	}, nil
}

// UseRemote switches the renderer to a remote backend. Probing still
// happens locally so the filter graph can be validated before the
// upload starts.
func (r *Renderer) UseRemote(rp RemoteProcessor) {
	r.remote = rp
}

// Start probes the source, builds the filter graph for the payload and
// launches the render in the background. The returned job is
// immediately queryable.
func (r *Renderer) Start(ctx context.Context, p *export.RenderPayload, sessionID, inputPath string) (*Job, error) {
	r.mu.Lock()
	for _, j := range r.jobs {
		if j.SessionID == sessionID && j.Status().State == StateRunning {
			r.mu.Unlock()
			return nil, ErrSessionBusy
		}
	}
	r.mu.Unlock()

	probe, err := r.ff.Probe(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("probe source: %w", err)
	}

	graph, err := BuildFilterGraph(p, GraphOptions{HasAudio: probe.HasAudio})
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        session.NewID(),
		SessionID: sessionID,
		state:     StateRunning,
		startedAt: time.Now(),
	}
	job.OutputPath = filepath.Join(r.outDir, fmt.Sprintf("short_%s.mp4", job.ID[:8]))

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	args := RenderArgs(inputPath, job.OutputPath, graph)
	log := r.logger.With("job_id", job.ID, "session_id", sessionID)
	log.Info("render started", "segments", len(p.Segments), "has_audio", probe.HasAudio, "remote", r.remote != nil)

	go func() {
		runCtx := context.Background()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, r.timeout)
			defer cancel()
		}

		var err error
		if r.remote != nil {
			err = r.remote.ProcessVideo(runCtx, inputPath, p, job.OutputPath)
		} else {
			err = r.ff.Render(runCtx, args)
		}
		job.finish(err)
		if err != nil {
			log.Warn("render failed", "error", err)
			return
		}
		log.Info("render finished", "output", job.OutputPath)
	}()

	return job, nil
}

// Job looks up a render job by ID.
func (r *Renderer) Job(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Running counts jobs still in flight.
func (r *Renderer) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status().State == StateRunning {
			n++
		}
	}
	return n
}
