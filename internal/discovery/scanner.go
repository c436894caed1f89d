// pattern: Imperative Shell

package discovery

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"gitsubstatus/internal/logging"
	"gitsubstatus/internal/status"
)

// Scanner discovers the directories under a root and probes each repository.
type Scanner struct {
	probe  status.Probe
	jobs   int
	logger *logging.ScopedLogger
}

// NewScanner creates a new directory scanner. jobs bounds how many probes run
// at once; values below 1 mean one at a time.
func NewScanner(probe status.Probe, jobs int, logger *logging.ScopedLogger) *Scanner {
	if jobs < 1 {
		jobs = 1
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{probe: probe, jobs: jobs, logger: logger}
}

// Scan describes root's direct child directories, sorted by case-insensitive
// name (descending when reverse is set). When root is itself a repository,
// the result is that single repository.
//
// An unreadable root returns an empty result along with the error; a failure
// on one child never aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string, reverse bool) ([]DirectoryRecord, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	if status.IsRepository(absRoot) {
		s.logger.Debug("root is a repository", "root", absRoot)
		return []DirectoryRecord{s.describe(ctx, absRoot)}, nil
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", absRoot, err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(absRoot, entry.Name())
		if !isDir(entry, path) {
			continue
		}
		paths = append(paths, path)
	}

	records := make([]DirectoryRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = s.describe(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortRecords(records, reverse)
	s.logger.Debug("scan complete", "root", absRoot, "directories", len(records))
	return records, nil
}

func (s *Scanner) describe(ctx context.Context, path string) DirectoryRecord {
	rec := DirectoryRecord{
		Name: filepath.Base(path),
		Path: path,
	}
	if !status.IsRepository(path) {
		return rec
	}
	st := s.probe.Probe(ctx, path)
	rec.IsRepository = true
	rec.Status = &st
	return rec
}

// isDir follows symlinks so linked checkouts are listed like real directories.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SortRecords orders records by case-insensitive name, raw name as tie-break.
func SortRecords(records []DirectoryRecord, reverse bool) {
	slices.SortStableFunc(records, func(a, b DirectoryRecord) int {
		c := cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.Name, b.Name),
		)
		if reverse {
			return -c
		}
		return c
	})
}
