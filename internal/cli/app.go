// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gitsubstatus/internal/discovery"
	"gitsubstatus/internal/format"
	"gitsubstatus/internal/logging"
)

// Mode selects which directories are listed.
type Mode int

const (
	ListRepos  Mode = iota // repositories only (default)
	ListAll                // repositories and plain directories
	ListOthers             // plain directories only
)

// ModeFromFlags maps the --list-all and --list-others flags to a Mode.
func ModeFromFlags(all, others bool) (Mode, error) {
	switch {
	case all && others:
		return 0, errors.New("--list-all and --list-others are mutually exclusive")
	case all:
		return ListAll, nil
	case others:
		return ListOthers, nil
	default:
		return ListRepos, nil
	}
}

// Includes reports whether rec is listed in this mode.
func (m Mode) Includes(rec discovery.DirectoryRecord) bool {
	switch m {
	case ListAll:
		return true
	case ListOthers:
		return !rec.IsRepository
	default:
		return rec.IsRepository
	}
}

func (m Mode) emptyNotice() string {
	switch m {
	case ListOthers:
		return "All of the subdirectories have git repositories."
	case ListAll:
		return "No subdirectories found."
	default:
		return "None of the subdirectories have git repositories."
	}
}

// Options holds the per-invocation scan settings.
type Options struct {
	Dir     string
	Mode    Mode
	Reverse bool
}

// Scanner produces the sorted records for a root directory.
type Scanner interface {
	Scan(ctx context.Context, root string, reverse bool) ([]discovery.DirectoryRecord, error)
}

// Display shows the finished listing.
type Display interface {
	Show(ctx context.Context, lines []string) error
}

// App wires the scanner, formatter and display together.
type App struct {
	scanner   Scanner
	formatter format.Formatter
	display   Display
	logger    *logging.ScopedLogger
}

// NewApp creates the orchestrator.
func NewApp(scanner Scanner, formatter format.Formatter, display Display, logger *logging.ScopedLogger) *App {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &App{
		scanner:   scanner,
		formatter: formatter,
		display:   display,
		logger:    logger,
	}
}

// Run scans opts.Dir and displays one line per listed directory.
// Scan failures are reported as warnings; only cancellation and display
// errors are returned.
func (a *App) Run(ctx context.Context, opts Options) error {
	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		root = opts.Dir
	}

	records, err := a.scanner.Scan(ctx, root, opts.Reverse)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("could not scan directory", "dir", root, "error", err)
		records = nil
	}

	lines := []string{format.Header(root)}
	for _, rec := range records {
		if opts.Mode.Includes(rec) {
			lines = append(lines, a.formatter.Line(rec))
		}
	}

	if len(lines) == 1 {
		a.logger.Warn(opts.Mode.emptyNotice())
	}
	a.logger.Debug("listing ready", "dir", root, "scanned", len(records), "listed", len(lines)-1)

	return a.display.Show(ctx, lines)
}

// PrintHelp prints the top-level help text. Flag defaults follow it.
func PrintHelp(w io.Writer, name, version string) {
	fmt.Fprintf(w, "%s %s\n\n", name, version)
	fmt.Fprintf(w, "Usage: %s [options]\n\n", name)
	fmt.Fprintf(w, "Show the git status of every repository directly below a directory.\n\n")
	fmt.Fprintf(w, "Options:\n")
}

// VersionString is printed by --version.
func VersionString(name, version string) string {
	return fmt.Sprintf("%s %s", name, version)
}
