// Package bridge invokes external estimator and fusion workers as
// subprocesses speaking a one-shot JSON protocol over stdin/stdout.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/josephgoksu/causalfuse/internal/utils"
)

// DefaultTimeout bounds a single worker call when none is configured.
const DefaultTimeout = 30 * time.Minute

// Runner invokes a worker command as a subprocess.
type Runner struct {
	// Command is the worker argv, e.g. ["python", "-m", "comnivore.worker"].
	Command []string

	// WorkDir is the working directory for the worker.
	WorkDir string

	// Timeout is the per-call timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// Env contains additional environment variables, appended to os.Environ().
	Env []string
}

// Result holds the raw output of one worker invocation.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
	Duration time.Duration
	Command  string
}

// NewRunner creates a Runner for the given worker command.
func NewRunner(command []string) *Runner {
	return &Runner{
		Command: command,
		Timeout: DefaultTimeout,
	}
}

// WithTimeout sets the per-call timeout.
func (r *Runner) WithTimeout(timeout time.Duration) *Runner {
	r.Timeout = timeout
	return r
}

// WithEnv adds environment variables for worker execution.
func (r *Runner) WithEnv(env ...string) *Runner {
	r.Env = append(r.Env, env...)
	return r
}

// Execute runs the worker once, feeding stdin and capturing both output streams.
func (r *Runner) Execute(ctx context.Context, stdin []byte) (Result, error) {
	if len(r.Command) == 0 {
		return Result{}, errors.New("worker command is empty")
	}
	start := time.Now()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = r.WorkDir
	cmd.WaitDelay = time.Second
	cmd.Env = os.Environ()
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Env, r.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = bytes.NewReader(stdin)

	cmdStr := strings.Join(r.Command, " ")
	err := cmd.Run()

	result := Result{
		Stdout:   stdoutBuf.Bytes(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
		Command:  cmdStr,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("worker timed out after %v: %s", timeout, cmdStr)
		}
		if ctx.Err() != nil {
			return result, fmt.Errorf("worker cancelled: %w", ctx.Err())
		}
		return result, fmt.Errorf("worker failed (exit %d): %w%s", result.ExitCode, err, stderrSuffix(result.Stderr))
	}
	return result, nil
}

// Call sends {"op": op, "payload": payload} to the worker and decodes the
// "result" field of its response into out.
func (r *Runner) Call(ctx context.Context, op string, payload, out any) error {
	body, err := json.Marshal(request{Op: op, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	res, err := r.Execute(ctx, body)
	if err != nil {
		return err
	}

	resp, err := utils.DecodeLastJSON[response](res.Stdout)
	if err != nil {
		return fmt.Errorf("decode %s response: %w%s", op, err, stderrSuffix(res.Stderr))
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "worker reported failure without a message"
		}
		return fmt.Errorf("%s: %s", op, utils.Truncate(msg, maxErrorLen))
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("%s: empty result", op)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	return nil
}

type request struct {
	Op      string `json:"op"`
	Payload any    `json:"payload"`
}

type response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

const (
	maxErrorLen  = 500
	maxStderrLen = 2000
)

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	return "\nstderr: " + utils.TruncateTail(stderr, maxStderrLen)
}
