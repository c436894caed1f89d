// pattern: Imperative Shell

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"gitsubstatus/internal/logging"
)

// Config describes a child process to run.
type Config struct {
	Name   string
	Binary string
	Args   []string
	Dir    string   // Working directory; empty means the current one
	Env    []string // Extra KEY=VALUE pairs appended to the inherited environment
	Stdout io.Writer
	Stderr io.Writer
}

// Runner starts child processes with an explicit working directory so the
// caller's own working directory is never changed.
type Runner struct {
	logger *logging.ScopedLogger
}

// NewRunner creates a new Runner.
func NewRunner(logger *logging.ScopedLogger) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{logger: logger}
}

// Output runs the command to completion and returns its stdout. When the
// command fails, whatever it wrote before failing is returned with the error.
func (r *Runner) Output(ctx context.Context, cfg Config) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, cfg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("starting process", "process", cfg.Name, "binary", cfg.Binary, "args", fmt.Sprintf("%v", cfg.Args), "dir", cfg.Dir)

	err := cmd.Run()
	if err != nil {
		r.logExit(cfg, err, stderr.String())
		return stdout.Bytes(), fmt.Errorf("%s %s: %w", cfg.Binary, strings.Join(cfg.Args, " "), err)
	}

	r.logger.Debug("process exited cleanly", "process", cfg.Name)
	return stdout.Bytes(), nil
}

// Handle is a running process whose stdin is fed by the caller.
type Handle struct {
	cfg    Config
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *logging.ScopedLogger
}

// Start launches the command with a pipe attached to its stdin. The caller
// writes to Stdin, closes it, then calls Wait.
func (r *Runner) Start(ctx context.Context, cfg Config) (*Handle, error) {
	cmd := r.command(ctx, cfg)
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe for %s: %w", cfg.Name, err)
	}

	r.logger.Debug("starting process", "process", cfg.Name, "binary", cfg.Binary, "args", fmt.Sprintf("%v", cfg.Args))

	if err := cmd.Start(); err != nil {
		r.logger.Error("failed to start process", "error", err, "process", cfg.Name)
		return nil, fmt.Errorf("start %s: %w", cfg.Name, err)
	}

	return &Handle{cfg: cfg, cmd: cmd, stdin: stdin, logger: r.logger}, nil
}

// Stdin returns the write end of the child's stdin.
func (h *Handle) Stdin() io.WriteCloser {
	return h.stdin
}

// Wait closes stdin if still open, waits for exit and returns the exit code.
// A non-zero exit is reported through the code, not the error.
func (h *Handle) Wait() (int, error) {
	_ = h.stdin.Close()
	err := h.cmd.Wait()
	if err == nil {
		h.logger.Debug("process exited cleanly", "process", h.cfg.Name)
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		h.logger.Debug("process exited", "process", h.cfg.Name, "exit_code", code)
		return code, nil
	}
	return -1, err
}

func (r *Runner) command(ctx context.Context, cfg Config) *exec.Cmd {
	cmd := exec.CommandContext(ctx, cfg.Binary, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), cfg.Env...)
	}
	return cmd
}

func (r *Runner) logExit(cfg Config, err error, stderr string) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger.Debug("process exited", "process", cfg.Name, "exit_code", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr))
		return
	}
	r.logger.Debug("failed to run process", "process", cfg.Name, "error", err)
}
