package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitsubstatus/internal/status"
)

// fakeProbe returns canned statuses keyed by directory base name.
type fakeProbe struct {
	mu       sync.Mutex
	statuses map[string]status.Status
	probed   []string

	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (p *fakeProbe) Probe(_ context.Context, dir string) status.Status {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, filepath.Base(dir))
	if st, ok := p.statuses[filepath.Base(dir)]; ok {
		return st
	}
	return status.Status{Branch: status.NoBranch, HasChanges: true}
}

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func names(records []DirectoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScan_DescribesEveryChildDirectory(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "Alpha/.git", "beta/.git", "gamma")
	if err := os.WriteFile(filepath.Join(root, "notadir"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	probe := &fakeProbe{statuses: map[string]status.Status{
		"Alpha": {Branch: "master", HasChanges: false},
		"beta":  {Branch: "dev", HasChanges: true},
	}}
	records, err := NewScanner(probe, 1, nil).Scan(context.Background(), root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if got, want := names(records), []string{"Alpha", "beta", "gamma"}; !equal(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}

	alpha := records[0]
	if !alpha.IsRepository || alpha.Branch() != "master" || alpha.HasChanges() {
		t.Errorf("Alpha = %+v, want clean master repository", alpha)
	}
	beta := records[1]
	if !beta.IsRepository || beta.Branch() != "dev" || !beta.HasChanges() {
		t.Errorf("beta = %+v, want dirty dev repository", beta)
	}
	gamma := records[2]
	if gamma.IsRepository || gamma.Status != nil {
		t.Errorf("gamma = %+v, want non-repository without status", gamma)
	}
	if gamma.Path != filepath.Join(root, "gamma") {
		t.Errorf("gamma.Path = %q", gamma.Path)
	}

	// Non-repositories are never probed.
	if len(probe.probed) != 2 {
		t.Errorf("probed %v, want only the two repositories", probe.probed)
	}
}

func TestScan_ReverseSort(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "b", "C", "a", "D")

	records, err := NewScanner(&fakeProbe{}, 1, nil).Scan(context.Background(), root, true)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got, want := names(records), []string{"D", "C", "b", "a"}; !equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScan_RootIsRepository(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	mkdirs(t, root, ".git", "sub/.git", "docs")

	probe := &fakeProbe{statuses: map[string]status.Status{
		"project": {Branch: "main"},
	}}
	records, err := NewScanner(probe, 1, nil).Scan(context.Background(), root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected single root record, got %v", names(records))
	}
	if records[0].Name != "project" || !records[0].IsRepository || records[0].Branch() != "main" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestScan_IncludesHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, ".dotfiles/.git", "visible")

	records, err := NewScanner(&fakeProbe{}, 1, nil).Scan(context.Background(), root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got, want := names(records), []string{".dotfiles", "visible"}; !equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScan_FollowsSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	mkdirs(t, target, ".git")
	if err := os.Symlink(target, filepath.Join(root, "linked")); err != nil {
		t.Fatal(err)
	}

	records, err := NewScanner(&fakeProbe{}, 1, nil).Scan(context.Background(), root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 1 || records[0].Name != "linked" || !records[0].IsRepository {
		t.Errorf("records = %+v, want linked repository", records)
	}
}

func TestScan_EmptyRoot(t *testing.T) {
	records, err := NewScanner(&fakeProbe{}, 1, nil).Scan(context.Background(), t.TempDir(), false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %v", names(records))
	}
}

func TestScan_MissingRoot(t *testing.T) {
	records, err := NewScanner(&fakeProbe{}, 1, nil).Scan(context.Background(), "/nonexistent/path", false)
	if err == nil {
		t.Error("expected error for missing root")
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %v", names(records))
	}
}

func TestScan_SequentialByDefault(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/.git", "b/.git", "c/.git", "d/.git")

	probe := &fakeProbe{delay: 10 * time.Millisecond}
	if _, err := NewScanner(probe, 0, nil).Scan(context.Background(), root, false); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := probe.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent probes = %d, want 1", got)
	}
}

func TestScan_ParallelKeepsOrder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "e/.git", "D/.git", "c/.git", "B/.git", "a/.git")

	probe := &fakeProbe{delay: 20 * time.Millisecond}
	records, err := NewScanner(probe, 3, nil).Scan(context.Background(), root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got, want := names(records), []string{"a", "B", "c", "D", "e"}; !equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if got := probe.maxSeen.Load(); got > 3 {
		t.Errorf("max concurrent probes = %d, want <= 3", got)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/.git", "b/.git")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewScanner(&fakeProbe{}, 1, nil).Scan(ctx, root, false); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		reverse bool
		want    []string
	}{
		{"case insensitive", []string{"beta", "Alpha", "gamma"}, false, []string{"Alpha", "beta", "gamma"}},
		{"reverse", []string{"beta", "Alpha", "gamma"}, true, []string{"gamma", "beta", "Alpha"}},
		{"case tie broken by raw name", []string{"repo", "Repo"}, false, []string{"Repo", "repo"}},
		{"digits before letters", []string{"b", "10", "a", "2"}, false, []string{"10", "2", "a", "b"}},
		{"empty", nil, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]DirectoryRecord, len(tt.in))
			for i, n := range tt.in {
				records[i] = DirectoryRecord{Name: n}
			}
			SortRecords(records, tt.reverse)
			if got := names(records); !equal(got, tt.want) {
				t.Errorf("SortRecords(%v, %v) = %v, want %v", tt.in, tt.reverse, got, tt.want)
			}
		})
	}
}
