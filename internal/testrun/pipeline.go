// Package testrun spawns an external test command and aggregates its TRX
// result artifact into a single outcome.
package testrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/stellarlinkco/codepilot/internal/trx"
)

// DefaultResultsDir is the results subdirectory used when the command does
// not name one.
const DefaultResultsDir = "TestResults"

// LaunchError reports a test command that could not be started at all.
// Failing tests are not a LaunchError; they are data in the RunResult.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	if e == nil {
		return "testrun: launch error"
	}
	return fmt.Sprintf("testrun: launch %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Run executes command through a shell in dir, streaming combined output to
// sink as it arrives. On exit it locates the freshest result artifact and
// parses it; the parsed success flag is overridden so that a nonzero exit
// code always reports failure, even when the artifact is all green. Summary
// counts are left exactly as the artifact reported them. When no artifact
// exists or it cannot be parsed, a minimal result is synthesized from the
// exit code alone. Only a failure to start the process returns an error.
func Run(ctx context.Context, command, dir string, sink io.Writer) (*trx.RunResult, error) {
	if ctx == nil {
		return nil, errors.New("testrun: nil context")
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, &LaunchError{Command: command, Err: errors.New("empty command")}
	}
	if sink == nil {
		sink = io.Discard
	}

	cmd := shellCommand(ctx, command)
	cmd.Dir = dir
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: command, Err: err}
	}

	exitCode := 0
	exitKnown := true
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitKnown = false
		}
	}

	resultsDir := resultsDirFromCommand(command)
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}
	if !filepath.IsAbs(resultsDir) {
		resultsDir = filepath.Join(dir, resultsDir)
	}

	artifact := trx.FindLatest(resultsDir)
	if artifact == "" {
		return exitOnlyResult(exitCode, exitKnown), nil
	}

	data, err := os.ReadFile(artifact)
	if err != nil {
		fmt.Fprintf(sink, "testrun: read artifact %s: %v\n", artifact, err)
		return exitOnlyResult(exitCode, exitKnown), nil
	}

	res, err := trx.Parse(data)
	if err != nil {
		fmt.Fprintf(sink, "testrun: parse artifact %s: %v\n", artifact, err)
		return exitOnlyResult(exitCode, exitKnown), nil
	}

	res.ArtifactPath = artifact
	// Exit code is ground truth when it and the artifact disagree.
	res.Success = len(res.Failures) == 0 && (!exitKnown || exitCode == 0)
	return res, nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

func exitOnlyResult(exitCode int, exitKnown bool) *trx.RunResult {
	if !exitKnown || exitCode == 0 {
		return &trx.RunResult{Success: true}
	}
	return &trx.RunResult{
		Success: false,
		Summary: trx.Summary{Failed: 1, Total: 1},
	}
}

var resultsDirPattern = regexp.MustCompile(`--results-directory[\s=]+(?:"([^"]+)"|'([^']+)'|(\S+))`)

// resultsDirFromCommand extracts the path given to a --results-directory
// argument, quoted or unquoted, or "" when absent.
func resultsDirFromCommand(command string) string {
	m := resultsDirPattern.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
