// pattern: Imperative Shell

package status

import (
	"context"
	"os"
	"path/filepath"

	"gitsubstatus/internal/logging"
	"gitsubstatus/internal/process"
)

// Probe reports the status of the repository in dir.
type Probe interface {
	Probe(ctx context.Context, dir string) Status
}

// IsRepository reports whether dir contains the repository marker. Worktrees
// and submodules use a .git file rather than a directory; both count.
func IsRepository(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, Marker))
	return err == nil
}

// GitProbe runs `git status` in the target directory and parses its output.
type GitProbe struct {
	Binary string
	runner *process.Runner
	logger *logging.ScopedLogger
}

// NewGitProbe creates a probe backed by the git command line.
func NewGitProbe(runner *process.Runner, logger *logging.ScopedLogger) *GitProbe {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &GitProbe{
		Binary: "git",
		runner: runner,
		logger: logger,
	}
}

// Probe never fails: when git cannot be run, whatever output it produced is
// parsed, which degrades the branch to NoBranch.
func (p *GitProbe) Probe(ctx context.Context, dir string) Status {
	out, err := p.runner.Output(ctx, process.Config{
		Name:   "git-status",
		Binary: p.Binary,
		Args:   []string{"status"},
		Dir:    dir,
		Env:    []string{"LC_ALL=C"},
	})
	if err != nil {
		p.logger.Debug("git status failed", "dir", dir, "error", err)
	}

	st := Parse(string(out))
	p.logger.Debug("probed repository", "dir", dir, "branch", st.Branch, "has_changes", st.HasChanges)
	return st
}
