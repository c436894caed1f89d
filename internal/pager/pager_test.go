package pager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"gitsubstatus/internal/logging"
	"gitsubstatus/internal/process"
)

func newPager(t *testing.T, binary string, args ...string) (*Pager, *bytes.Buffer, *logging.TestLogManager) {
	t.Helper()
	lm := logging.NewTestLogManager()
	var out bytes.Buffer
	p := New(binary, args, &out, &bytes.Buffer{}, process.NewRunner(lm.For("process")), lm.For("pager"))
	return p, &out, lm
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed", name)
	}
	return path
}

func TestShow_Direct(t *testing.T) {
	p, out, _ := newPager(t, "")

	if err := p.Show(context.Background(), []string{"header", "alpha", "beta"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "header\nalpha\nbeta\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestShow_ThroughPager(t *testing.T) {
	p, out, _ := newPager(t, lookPath(t, "cat"))

	if err := p.Show(context.Background(), []string{"one", "two"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "one\ntwo\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestShow_PagerArgs(t *testing.T) {
	// sh -c 'tr a-z A-Z' stands in for a pager invoked with flags.
	p, out, _ := newPager(t, lookPath(t, "sh"), "-c", "tr a-z A-Z")

	if err := p.Show(context.Background(), []string{"shout"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "SHOUT\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestShow_MissingPagerFallsBack(t *testing.T) {
	p, out, lm := newPager(t, "/nonexistent/less")

	if err := p.Show(context.Background(), []string{"fallback"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "fallback\n" {
		t.Errorf("output = %q", out.String())
	}
	if !lm.Contains("pager unavailable") {
		t.Errorf("expected fallback warning, got %v", lm.Messages(""))
	}
}

func TestShow_PagerQuitsEarly(t *testing.T) {
	p, _, _ := newPager(t, lookPath(t, "true"))

	lines := make([]string, 20000)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d with some padding to fill the pipe buffer", i)
	}
	if err := p.Show(context.Background(), lines); err != nil {
		t.Fatalf("Show() error = %v, want nil for early quit", err)
	}
}

func TestShow_NonZeroExitIsBenign(t *testing.T) {
	p, _, lm := newPager(t, lookPath(t, "sh"), "-c", "cat >/dev/null; exit 130")

	if err := p.Show(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Show() error = %v, want nil", err)
	}
	if !lm.Contains("pager exited") {
		t.Errorf("expected exit to be logged, got %v", lm.Messages(""))
	}
}

func TestShow_IgnoresCancellationOnceStarted(t *testing.T) {
	p, out, _ := newPager(t, lookPath(t, "cat"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Show(ctx, []string{"still shown"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "still shown\n" {
		t.Errorf("output = %q", out.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteLines_Error(t *testing.T) {
	if err := writeLines(failingWriter{}, []string{"a"}); err == nil {
		t.Error("expected write error")
	}
}

func TestShow_PagerStderrIsInjected(t *testing.T) {
	sh := lookPath(t, "sh")
	lm := logging.NewTestLogManager()
	var out, errOut bytes.Buffer
	p := New(sh, []string{"-c", "cat; echo paged >&2"}, &out, &errOut, process.NewRunner(lm.For("process")), lm.For("pager"))

	if err := p.Show(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if out.String() != "alpha\n" {
		t.Errorf("output = %q", out.String())
	}
	if errOut.String() != "paged\n" {
		t.Errorf("stderr = %q, want %q", errOut.String(), "paged\n")
	}
}
