// Package logger provides the per-run log directory, the run context threaded
// through every stage, and crash logging.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/afero"
)

const (
	// LogFileName is the plain-text log written inside each run directory.
	LogFileName = "log.txt"

	// TimestampLayout names run directories. Colons are avoided for portability.
	TimestampLayout = "2006-01-02_15-04-05"
)

// RunContext is the explicit run-scoped state passed into every stage.
type RunContext struct {
	ID    string
	Tasks types.TaskSet
	Log   *slog.Logger
	Fs    afero.Fs
	Dir   string
	// RNG is the single seeded randomness source threaded through training.
	RNG   *rand.Rand
	Seed  int64
	// Crash, when set, records the active stage for crash logs.
	Crash *CrashReporter

	closer io.Closer
}

// Options configures NewRunContext.
type Options struct {
	ID      string
	Tasks   types.TaskSet
	Seed    int64
	Dir     string
	Console io.Writer
	Verbose bool
	Crash   *CrashReporter
}

// NewRunContext creates the run directory, truncates any previous log file in
// it and returns a context whose logger writes to both the console and the file.
func NewRunContext(fs afero.Fs, opts Options) (*RunContext, error) {
	if err := fs.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := fs.OpenFile(filepath.Join(opts.Dir, LogFileName), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(console, f), &slog.HandlerOptions{Level: level})

	if opts.Crash != nil {
		opts.Crash.SetRunDir(opts.Dir)
	}

	return &RunContext{
		ID:     opts.ID,
		Tasks:  opts.Tasks,
		Log:    slog.New(handler).With("run", opts.ID),
		Fs:     fs,
		Dir:    opts.Dir,
		RNG:    NewRNG(opts.Seed),
		Seed:   opts.Seed,
		Crash:  opts.Crash,
		closer: f,
	}, nil
}

// NewRNG returns the deterministic generator for a seed.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Stage records the stage the run is in for crash reports.
func (rc *RunContext) Stage(stage string) {
	if rc.Crash != nil {
		rc.Crash.SetStage(stage)
	}
}

// Close flushes and closes the run's log file.
func (rc *RunContext) Close() error {
	if rc == nil || rc.closer == nil {
		return nil
	}
	return rc.closer.Close()
}

// RunDir returns log/[suffix/]dataset/fuser/timestamp under base.
func RunDir(base, suffix, dataset, fuser string, now time.Time) string {
	parts := []string{base}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	parts = append(parts, dataset, fuser, now.Format(TimestampLayout))
	return filepath.Join(parts...)
}

// WriteFile writes content to name inside the run directory.
func (rc *RunContext) WriteFile(name string, content []byte) error {
	path := filepath.Join(rc.Dir, name)
	if err := afero.WriteFile(rc.Fs, path, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteGraphs renders each task's structure as <title>_<task>.dot in the run directory.
func (rc *RunContext) WriteGraphs(title string, structures graph.PerTask) error {
	for _, task := range rc.Tasks {
		s, ok := structures[task]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s_%s.dot", title, task)
		if err := rc.WriteFile(name, []byte(s.DOT(title, rc.Tasks...))); err != nil {
			return err
		}
	}
	return nil
}

// Discard returns a RunContext that logs nowhere and writes to an in-memory fs.
// Intended for tests and library callers that do not want a run directory.
func Discard(tasks types.TaskSet, seed int64) *RunContext {
	return &RunContext{
		ID:    "run-discard",
		Tasks: tasks,
		Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Fs:    afero.NewMemMapFs(),
		Dir:   "/run",
		RNG:   NewRNG(seed),
		Seed:  seed,
	}
}
