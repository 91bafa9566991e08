package trx

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeArtifact(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("<TestRun/>"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Chtimes(%s): %v", name, err)
	}
	return path
}

func TestFindLatest_PicksNewest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	writeArtifact(t, dir, "old.trx", base)
	want := writeArtifact(t, dir, "new.trx", base.Add(10*time.Minute))
	writeArtifact(t, dir, "middle.trx", base.Add(5*time.Minute))

	if got := FindLatest(dir); got != want {
		t.Fatalf("FindLatest: got %q want %q", got, want)
	}
}

func TestFindLatest_SuffixCaseInsensitive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	want := writeArtifact(t, dir, "run.TRX", base)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := FindLatest(dir); got != want {
		t.Fatalf("FindLatest: got %q want %q", got, want)
	}
}

func TestFindLatest_TieBreaksByName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mod := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeArtifact(t, dir, "a.trx", mod)
	want := writeArtifact(t, dir, "b.trx", mod)

	for i := 0; i < 3; i++ {
		if got := FindLatest(dir); got != want {
			t.Fatalf("FindLatest: got %q want %q", got, want)
		}
	}
}

func TestFindLatest_NoCandidates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if got := FindLatest(dir); got != "" {
		t.Fatalf("FindLatest(empty dir): got %q want %q", got, "")
	}

	if got := FindLatest(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("FindLatest(missing dir): got %q want %q", got, "")
	}

	if got := FindLatest(" "); got != "" {
		t.Fatalf("FindLatest(blank): got %q want %q", got, "")
	}
}

func TestFindLatest_IgnoresDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "nested.trx"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	want := writeArtifact(t, dir, "real.trx", time.Now().Add(-time.Hour))

	if got := FindLatest(dir); got != want {
		t.Fatalf("FindLatest: got %q want %q", got, want)
	}
}
