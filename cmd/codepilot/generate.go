package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/codepilot/internal/llm"
)

type generateOptions struct {
	promptFile string
	raw        bool
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate code from a prompt",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.promptFile, "prompt-file", "", "read prompt from file ('-' for stdin)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the raw provider response instead of extracted content")

	return cmd
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions, args []string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("generate: nil options")
	}

	prompt, err := resolvePrompt(cmd, opts, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("generate: empty prompt")
	}

	client, err := llm.NewClientFromConfig(st.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	res, err := client.Generate(cmd.Context(), prompt)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.raw {
		_, _ = fmt.Fprintln(out, string(res.Raw))
		return nil
	}
	_, _ = fmt.Fprintln(out, res.Content)
	return nil
}

func resolvePrompt(cmd *cobra.Command, opts *generateOptions, args []string) (string, error) {
	file := strings.TrimSpace(opts.promptFile)
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("generate: --prompt-file and a prompt argument are mutually exclusive")
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("generate: read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("generate: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("generate: specify a prompt argument or --prompt-file")
	}
}
