// pattern: Imperative Shell

package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"

	"gitsubstatus/internal/logging"
)

// prefixSize is how much of the remote resource is read to find its version.
const prefixSize = 4096

// fallbackMode is used when the existing permission bits cannot be copied.
const fallbackMode os.FileMode = 0o755

// ErrNoVersionInfo is returned when the remote resource declares no version.
var ErrNoVersionInfo = errors.New("no version info found in remote resource")

var versionPattern = regexp.MustCompile(`(?:__version__|\bversion)\s*[:=]\s*["']([^"'\s]+)["']`)

// Result describes what an update run did.
type Result int

const (
	ResultUpdated    Result = iota // executable replaced
	ResultUpToDate                 // remote version equals the local one
	ResultNewerLocal               // local version is ahead of the remote one
)

// Updater replaces the running executable with a newer remote build.
type Updater struct {
	URL            string // Build to download
	VersionURL     string // Resource carrying the version marker; defaults to URL
	CurrentVersion string
	Executable     string       // Path of the file to replace
	Client         *http.Client // Defaults to a client with a 60s timeout
	Progress       io.Writer    // Download progress output; nil disables

	logger *logging.ScopedLogger
}

// New creates an updater for exe.
func New(url, currentVersion, exe string, logger *logging.ScopedLogger) *Updater {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Updater{
		URL:            url,
		CurrentVersion: currentVersion,
		Executable:     exe,
		Client:         &http.Client{Timeout: 60 * time.Second},
		logger:         logger,
	}
}

// NewPath is where the download is staged before replacing the executable.
func (u *Updater) NewPath() string { return u.Executable + ".new" }

// BackupPath is where the previous executable is kept after an update.
func (u *Updater) BackupPath() string { return u.Executable + ".old" }

// Check fetches the head of the version resource and returns its version.
func (u *Updater) Check(ctx context.Context) (Version, error) {
	url := u.VersionURL
	if url == "" {
		url = u.URL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Version{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", prefixSize-1))

	resp, err := u.Client.Do(req)
	if err != nil {
		return Version{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return Version{}, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, prefixSize))
	if err != nil {
		return Version{}, fmt.Errorf("read %s: %w", url, err)
	}

	m := versionPattern.FindSubmatch(head)
	if m == nil {
		return Version{}, ErrNoVersionInfo
	}
	return ParseVersion(string(m[1])), nil
}

// Run checks for a newer version and, when one exists or force is set,
// downloads it and swaps it in place of the executable.
//
// Errors before the swap leave the executable untouched.
func (u *Updater) Run(ctx context.Context, force bool) (Result, Version, error) {
	remote, err := u.Check(ctx)
	if err != nil {
		u.logger.Error("update check failed", "url", u.URL, "version_url", u.VersionURL, "error", err)
		return 0, Version{}, err
	}

	local := ParseVersion(u.CurrentVersion)
	c := local.Compare(remote)
	u.logger.Info("version check", "local", local.String(), "remote", remote.String())

	if !force {
		switch {
		case c == 0:
			return ResultUpToDate, remote, nil
		case c > 0:
			return ResultNewerLocal, remote, nil
		}
	}

	fl, err := lock(u.Executable)
	if err != nil {
		u.logger.Error("update lock failed", "error", err)
		return 0, remote, err
	}
	defer unlock(fl)

	if err := u.download(ctx); err != nil {
		u.logger.Error("download failed", "url", u.URL, "error", err)
		return 0, remote, err
	}

	if err := u.replace(); err != nil {
		u.logger.Error("replace failed", "executable", u.Executable, "error", err)
		return 0, remote, err
	}

	u.logger.Info("executable updated", "executable", u.Executable, "version", remote.String())
	return ResultUpdated, remote, nil
}

// download streams the full resource to NewPath. A partial file is removed.
func (u *Updater) download(ctx context.Context) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", u.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", u.URL, resp.Status)
	}

	path := u.NewPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	var dst io.Writer = f
	var pw *progressWriter
	if u.Progress != nil && resp.ContentLength > 0 {
		pw = &progressWriter{out: u.Progress, total: uint64(resp.ContentLength)}
		dst = io.MultiWriter(f, pw)
	}

	n, err := io.Copy(dst, resp.Body)
	if pw != nil {
		pw.done()
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = f.Close()
		return fmt.Errorf("download %s: got %d of %d bytes", u.URL, n, resp.ContentLength)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	u.logger.Debug("download complete", "path", path, "bytes", n)
	return nil
}

// replace moves the executable to BackupPath and the download into its place.
// If the second rename fails the first one is undone.
func (u *Updater) replace() error {
	exe, newPath, backup := u.Executable, u.NewPath(), u.BackupPath()

	mode := fallbackMode
	if info, err := os.Stat(exe); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(newPath, mode); err != nil {
		if err := os.Chmod(newPath, fallbackMode); err != nil {
			u.logger.Warn("could not set permissions on download", "path", newPath, "error", err)
		}
	}

	if err := os.Rename(exe, backup); err != nil {
		_ = os.Remove(newPath)
		return fmt.Errorf("back up %s: %w", exe, err)
	}

	if err := os.Rename(newPath, exe); err != nil {
		if rerr := os.Rename(backup, exe); rerr != nil {
			return fmt.Errorf("install %s: %w (rollback failed: %v)", exe, err, rerr)
		}
		_ = os.Remove(newPath)
		return fmt.Errorf("install %s: %w", exe, err)
	}
	return nil
}

// progressWriter prints a single self-overwriting progress line.
type progressWriter struct {
	out     io.Writer
	total   uint64
	written uint64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += uint64(len(b))
	fmt.Fprintf(p.out, "\rdownloading %s / %s (%d%%)",
		humanize.Bytes(p.written), humanize.Bytes(p.total), p.written*100/p.total)
	return len(b), nil
}

func (p *progressWriter) done() {
	fmt.Fprintln(p.out)
}
