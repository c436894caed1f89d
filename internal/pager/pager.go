// pattern: Imperative Shell

package pager

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"gitsubstatus/internal/logging"
	"gitsubstatus/internal/process"
)

// Pager shows lines through an external paging program, or writes them
// straight to Stdout when no program is configured.
type Pager struct {
	Binary string // Resolved pager path; empty writes directly
	Args   []string
	Stdout io.Writer
	Stderr io.Writer

	runner *process.Runner
	logger *logging.ScopedLogger
}

// New creates a pager writing to stdout; the pager's own diagnostics go to stderr.
func New(binary string, args []string, stdout, stderr io.Writer, runner *process.Runner, logger *logging.ScopedLogger) *Pager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Pager{
		Binary: binary,
		Args:   args,
		Stdout: stdout,
		Stderr: stderr,
		runner: runner,
		logger: logger,
	}
}

// Show displays lines, each followed by a newline.
//
// Once the pager is running it owns the terminal: an interrupt is handled by
// the pager itself, so the child is started without ctx's cancellation and a
// pager that quits early or exits non-zero is not an error.
func (p *Pager) Show(ctx context.Context, lines []string) error {
	if p.Binary == "" {
		return writeLines(p.Stdout, lines)
	}

	h, err := p.runner.Start(context.WithoutCancel(ctx), process.Config{
		Name:   "pager",
		Binary: p.Binary,
		Args:   p.Args,
		Stdout: p.Stdout,
		Stderr: p.Stderr,
	})
	if err != nil {
		p.logger.Warn("pager unavailable, writing directly", "pager", p.Binary, "error", err)
		return writeLines(p.Stdout, lines)
	}

	if err := writeLines(h.Stdin(), lines); err != nil {
		// The user quit before reading everything.
		p.logger.Debug("pager closed its input early", "error", err)
	}

	code, err := h.Wait()
	if err != nil {
		return fmt.Errorf("wait for pager: %w", err)
	}
	if code != 0 {
		p.logger.Debug("pager exited", "exit_code", code)
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
