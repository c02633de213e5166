package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boshu2/siteqa/internal/changes"
	"github.com/boshu2/siteqa/internal/config"
	"github.com/boshu2/siteqa/internal/qa"
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Detect changed files, select a QA mode and run it",
	Long: `Detect changed files, select a QA mode and run it.

Changed files come from QA_CHANGED_FILES when set, otherwise from
git diff --name-only <base-ref>...HEAD. A git failure stops the run.

Examples:
  qa auto
  qa auto --base-ref origin/develop
  QA_CHANGED_FILES=$'content/blog/post.md' qa auto --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeQA(cmd.Context(), newQAEnv(cmd), qa.CommandAuto)
	},
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Run the content fast-path QA pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeQA(cmd.Context(), newQAEnv(cmd), qa.CommandContent)
	},
}

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run the full QA pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeQA(cmd.Context(), newQAEnv(cmd), qa.CommandFull)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <auto|content|full>",
	Short: "Run the QA pipeline for a command given as an argument",
	Long: `Run the QA pipeline for a command name, for callers that pass it as data
(CI matrices, package scripts). Equivalent to qa auto, qa content or qa full.

Examples:
  qa run auto
  qa run "$QA_COMMAND" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command, err := qa.ParseCommand(args[0])
		if err != nil {
			return err
		}
		return executeQA(cmd.Context(), newQAEnv(cmd), command)
	},
}

func init() {
	rootCmd.AddCommand(autoCmd, contentCmd, fullCmd, runCmd)
}

// qaEnv bundles what a QA invocation needs so tests can swap the executor
// and the output streams.
type qaEnv struct {
	cfg      *config.Config
	registry *qa.Registry
	executor qa.CommandExecutor
	logger   *zap.Logger
	out      io.Writer
	errOut   io.Writer
	dryRun   bool
}

func newQAEnv(cmd *cobra.Command) qaEnv {
	return qaEnv{
		cfg:      appConfig,
		registry: qa.DefaultRegistry(),
		executor: qa.ShellExecutor{Shell: appConfig.Shell},
		logger:   logger,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		dryRun:   GetDryRun(),
	}
}

// executeQA is the top-level invocation: print policy versions, decide the
// mode, apply the force-full override, then run the pipeline.
func executeQA(ctx context.Context, env qaEnv, command qa.Command) error {
	cfg := env.cfg
	//nolint:errcheck // CLI output
	fmt.Fprintf(env.out, "QA Policy Version: %s\nA11y Policy Version: %s\n\n", cfg.Policy.QAVersion, cfg.Policy.A11yVersion)

	in := qa.DecideInput{
		Command:           command,
		QAPolicyVersion:   cfg.Policy.QAVersion,
		A11yPolicyVersion: cfg.Policy.A11yVersion,
		Rules:             cfg.Rules,
		ForceFull:         qa.IsForceFull(cfg.ForceMode),
	}

	var discovered changes.Result
	if command == qa.CommandAuto {
		var err error
		discovered, err = changes.Discover(ctx, changes.Options{
			Override: cfg.ChangedFiles,
			BaseRef:  cfg.BaseRef,
		})
		if err != nil {
			fmt.Fprintln(env.errOut, "Failed to compute changed files via git.") //nolint:errcheck // CLI output
			return err
		}
		in.ChangedFiles = discovered.Files
	}

	d := qa.Decide(in)
	printDecision(env.out, d, discovered)

	env.logger.Info("mode decided",
		zap.String("mode", string(d.ModeID)),
		zap.String("command", string(command)),
		zap.Bool("overridden", d.Overridden),
		zap.Int("changed_files", len(in.ChangedFiles)))

	runner := qa.NewRunner(qa.RunnerOptions{
		Registry: env.registry,
		Executor: env.executor,
		Out:      env.out,
		ErrOut:   env.errOut,
		Logger:   env.logger,
		DryRun:   env.dryRun,
	})
	_, err := runner.Run(ctx, d.ModeID)
	return err
}

func printDecision(w io.Writer, d qa.Decision, discovered changes.Result) {
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format, args...) //nolint:errcheck // CLI output
	}

	switch d.Command {
	case qa.CommandAuto:
		if discovered.Source == changes.SourceOverride {
			p("Changed files source: QA_CHANGED_FILES\n")
		} else {
			p("Base ref: %s\n", discovered.BaseRef)
		}
		p("Changed files: %d\n", len(discovered.Files))
		if d.Selection != nil {
			p("Mode selected: %s\n", d.Selection.SelectedMode)
			p("Reason: %s\n", d.Selection.Reason)
		}
	case qa.CommandContent:
		p("Mode forced: Content Fast-Path QA\n")
	case qa.CommandFull:
		p("Mode forced: Full QA\n")
	}
	p("\n")

	if d.Overridden {
		p("Warning: QA_FORCE_MODE=full detected: forcing Full QA.\n\n")
	}
}
