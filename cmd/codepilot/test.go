package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/codepilot/internal/store"
	"github.com/stellarlinkco/codepilot/internal/testrun"
	"github.com/stellarlinkco/codepilot/internal/trx"
)

var errTestsFailed = errors.New("codepilot: tests failed")

type testOptions struct {
	command string
	dir     string
	noSave  bool
}

func newTestCmd(st *cliState) *cobra.Command {
	var opts testOptions

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the test command and report the aggregated result",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.command, "command", "", "test command to run (overrides config)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "working directory for the test command (overrides config)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the run in history")

	return cmd
}

func runTests(cmd *cobra.Command, st *cliState, opts *testOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("test: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("test: nil options")
	}

	command := strings.TrimSpace(opts.command)
	if command == "" {
		command = strings.TrimSpace(st.cfg.Tests.Command)
	}
	if command == "" {
		return fmt.Errorf("test: specify --command or set tests.command in config")
	}

	dir := strings.TrimSpace(opts.dir)
	if dir == "" {
		dir = strings.TrimSpace(st.cfg.Tests.WorkingDir)
	}

	started := time.Now().UTC()
	res, err := testrun.Run(cmd.Context(), command, dir, cmd.OutOrStdout())
	finished := time.Now().UTC()
	if err != nil {
		return err
	}

	printRunSummary(cmd, res)

	if !opts.noSave {
		if err := saveRun(cmd, st, command, dir, started, finished, res); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "test: save run: %v\n", err)
		}
	}

	if !res.Success {
		return errTestsFailed
	}
	return nil
}

func printRunSummary(cmd *cobra.Command, res *trx.RunResult) {
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "\nPassed: %d  Failed: %d  Skipped: %d  Total: %d  (%s)\n",
		res.Summary.Passed,
		res.Summary.Failed,
		res.Summary.Skipped,
		res.Summary.Total,
		time.Duration(res.Summary.DurationMs)*time.Millisecond,
	)

	for _, f := range res.Failures {
		_, _ = fmt.Fprintf(out, "\nFAIL %s\n", f.TestName)
		if f.Message != nil {
			_, _ = fmt.Fprintf(out, "  %s\n", *f.Message)
		}
		if f.StackTrace != nil {
			_, _ = fmt.Fprintf(out, "  %s\n", *f.StackTrace)
		}
	}

	if res.Success {
		_, _ = fmt.Fprintln(out, "Result: PASS")
	} else {
		_, _ = fmt.Fprintln(out, "Result: FAIL")
	}
}

func saveRun(cmd *cobra.Command, st *cliState, command, dir string, started, finished time.Time, res *trx.RunResult) error {
	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	rec := &store.RunRecord{
		ID:           newRunID(),
		Command:      command,
		WorkingDir:   dir,
		StartedAt:    started,
		FinishedAt:   finished,
		Success:      res.Success,
		Summary:      res.Summary,
		Failures:     res.Failures,
		ArtifactPath: res.ArtifactPath,
	}
	return stor.SaveRun(cmd.Context(), rec)
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
