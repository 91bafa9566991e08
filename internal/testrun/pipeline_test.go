package testrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const passFailDoc = `<TestRun><Results>
	<UnitTestResult testName="A" outcome="Passed" duration="00:00:01"/>
	<UnitTestResult testName="B" outcome="Failed">
		<Output><ErrorInfo><Message>boom</Message></ErrorInfo></Output>
	</UnitTestResult>
</Results></TestRun>`

const allGreenDoc = `<TestRun><Results>
	<UnitTestResult testName="A" outcome="Passed"/>
</Results></TestRun>`

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell commands in these tests assume sh")
	}
}

func writeResultsDir(t *testing.T, dir, doc string) string {
	t.Helper()

	results := filepath.Join(dir, DefaultResultsDir)
	if err := os.MkdirAll(results, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(results, "run.trx"), []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return results
}

func TestRun_ParsesArtifact(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	writeResultsDir(t, dir, passFailDoc)

	var out strings.Builder
	res, err := Run(context.Background(), "true", dir, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Fatalf("Success: got true want false")
	}
	if res.Summary.Passed != 1 || res.Summary.Failed != 1 || res.Summary.Total != 2 {
		t.Fatalf("Summary: got %+v", res.Summary)
	}
	if len(res.Failures) != 1 || res.Failures[0].TestName != "B" {
		t.Fatalf("Failures: got %+v", res.Failures)
	}
	if res.ArtifactPath == "" {
		t.Fatalf("ArtifactPath: empty")
	}
}

func TestRun_ExitCodeOverridesGreenArtifact(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	writeResultsDir(t, dir, allGreenDoc)

	res, err := Run(context.Background(), "exit 1", dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Fatalf("Success: got true want false (exit code is ground truth)")
	}
	// Counts stay as the artifact reported them.
	if res.Summary.Failed != 0 || res.Summary.Passed != 1 {
		t.Fatalf("Summary: got %+v", res.Summary)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("Failures: got %+v", res.Failures)
	}
}

func TestRun_NoArtifactExitZero(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	res, err := Run(context.Background(), "true", dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Fatalf("Success: got false want true")
	}
	want := struct{ p, f, s, tot int }{0, 0, 0, 0}
	got := struct{ p, f, s, tot int }{res.Summary.Passed, res.Summary.Failed, res.Summary.Skipped, res.Summary.Total}
	if got != want {
		t.Fatalf("Summary: got %+v want all-zero", res.Summary)
	}
}

func TestRun_NoArtifactNonzeroExit(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	res, err := Run(context.Background(), "exit 3", dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Fatalf("Success: got true want false")
	}
	if res.Summary.Failed != 1 || res.Summary.Total != 1 {
		t.Fatalf("Summary: got %+v", res.Summary)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("Failures: got %+v want none (no detail available)", res.Failures)
	}
}

func TestRun_UnparsableArtifactFallsBackToExitCode(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	writeResultsDir(t, dir, "not xml <<<")

	var out strings.Builder
	res, err := Run(context.Background(), "true", dir, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Fatalf("Success: got false want true")
	}
	if !strings.Contains(out.String(), "parse artifact") {
		t.Fatalf("sink: got %q want parse diagnostic", out.String())
	}
}

func TestRun_StreamsOutput(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	var out strings.Builder
	if _, err := Run(context.Background(), "echo hello && echo world >&2", dir, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "hello") || !strings.Contains(out.String(), "world") {
		t.Fatalf("sink: got %q want both streams", out.String())
	}
}

func TestRun_ResultsDirectoryFlag(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	custom := filepath.Join(dir, "out")
	if err := os.MkdirAll(custom, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(custom, "r.trx"), []byte(allGreenDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := Run(context.Background(), "true --results-directory out", dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.Passed != 1 {
		t.Fatalf("Summary: got %+v want the custom directory's artifact", res.Summary)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), "  ", t.TempDir(), nil)
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Run: got %v want *LaunchError", err)
	}
}

func TestResultsDirFromCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"dotnet test --results-directory /tmp/results", "/tmp/results"},
		{`dotnet test --results-directory "My Results"`, "My Results"},
		{`dotnet test --results-directory 'My Results'`, "My Results"},
		{"dotnet test --results-directory=out", "out"},
		{"dotnet test", ""},
		{"dotnet test --logger trx", ""},
	}
	for _, tc := range tests {
		if got := resultsDirFromCommand(tc.in); got != tc.want {
			t.Fatalf("resultsDirFromCommand(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}
