package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	// CrashLogDir is the directory for crash logs relative to the log base.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs kept across runs.
	MaxCrashLogs = 10
)

// CrashReporter stores context for crash logging.
type CrashReporter struct {
	mu       sync.RWMutex
	fs       afero.Fs
	stderr   io.Writer
	exit     func(int)
	version  string
	command  string
	runID    string
	stage    string
	runDir   string
	basePath string
}

// NewCrashReporter creates a reporter writing crash logs through fs.
func NewCrashReporter(fs afero.Fs, version, command string) *CrashReporter {
	return &CrashReporter{
		fs:      fs,
		stderr:  os.Stderr,
		exit:    os.Exit,
		version: version,
		command: command,
	}
}

// SetBasePath sets the log base crash logs are written under. Crash logs of
// every run share one directory so rotation applies across runs.
func (c *CrashReporter) SetBasePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePath = path
}

// SetRunID records the active run id.
func (c *CrashReporter) SetRunID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID = id
}

// SetRunDir records the directory of the active run.
func (c *CrashReporter) SetRunDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runDir = dir
}

// SetStage records the stage being executed.
func (c *CrashReporter) SetStage(stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = truncateForLog(strings.TrimSpace(stage), 500)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog represents a crash log entry.
type CrashLog struct {
	Timestamp  time.Time
	Version    string
	Command    string
	RunID      string
	RunDir     string
	Stage      string
	PanicValue string
	StackTrace string
	GoVersion  string
	OS         string
	Arch       string
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer reporter.HandlePanic()
func (c *CrashReporter) HandlePanic() {
	if r := recover(); r != nil {
		c.report(r)
	}
}

func (c *CrashReporter) report(panicValue any) {
	log := c.createCrashLog(panicValue)
	path, err := c.writeCrashLog(log)
	if err != nil {
		fmt.Fprintf(c.stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(c.stderr, "[CRASH] Panic: %v\n%s\n", panicValue, log.StackTrace)
	} else {
		fmt.Fprintf(c.stderr, "\ncausalfuse crashed during %q; crash log saved to:\n  %s\n", log.Stage, path)
	}
	c.exit(1)
}

// createCrashLog creates a CrashLog from a panic value.
func (c *CrashReporter) createCrashLog(panicValue any) CrashLog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    c.version,
		Command:    c.command,
		RunID:      c.runID,
		RunDir:     c.runDir,
		Stage:      c.stage,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog writes a crash log to disk and returns its path.
func (c *CrashReporter) writeCrashLog(log CrashLog) (string, error) {
	dir := c.crashLogDir()

	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	if err := c.cleanOldCrashLogs(dir); err != nil {
		// Non-fatal, continue with writing
		fmt.Fprintf(c.stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash_%s.log", log.Timestamp.Format("20060102_150405")))
	if err := afero.WriteFile(c.fs, path, []byte(formatCrashLog(log)), 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	return path, nil
}

func (c *CrashReporter) crashLogDir() string {
	c.mu.RLock()
	basePath := c.basePath
	c.mu.RUnlock()

	if basePath == "" {
		basePath = "log"
	}
	return filepath.Join(basePath, CrashLogDir)
}

// formatCrashLog formats a CrashLog as human-readable text.
func formatCrashLog(log CrashLog) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("CAUSALFUSE CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString(fmt.Sprintf("Timestamp: %s\n", log.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Version:   %s\n", log.Version))
	sb.WriteString(fmt.Sprintf("Command:   %s\n", log.Command))
	sb.WriteString(fmt.Sprintf("Run:       %s\n", log.RunID))
	sb.WriteString(fmt.Sprintf("Run dir:   %s\n", log.RunDir))
	sb.WriteString(fmt.Sprintf("Stage:     %s\n", log.Stage))
	sb.WriteString(fmt.Sprintf("Go:        %s\n", log.GoVersion))
	sb.WriteString(fmt.Sprintf("OS/Arch:   %s/%s\n", log.OS, log.Arch))

	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
	sb.WriteString("PANIC VALUE\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(log.PanicValue + "\n")

	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
	sb.WriteString("STACK TRACE\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(log.StackTrace)

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	return sb.String()
}

// cleanOldCrashLogs removes old crash logs, keeping only MaxCrashLogs most recent.
func (c *CrashReporter) cleanOldCrashLogs(dir string) error {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var crashLogs []os.FileInfo
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			crashLogs = append(crashLogs, e)
		}
	}
	if len(crashLogs) < MaxCrashLogs {
		return nil
	}

	// afero.ReadDir sorts by name, which embeds the timestamp: oldest first.
	toRemove := len(crashLogs) - MaxCrashLogs + 1
	for i := range toRemove {
		path := filepath.Join(dir, crashLogs[i].Name())
		if err := c.fs.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", crashLogs[i].Name(), err)
		}
	}
	return nil
}
