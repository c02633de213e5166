package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boshu2/siteqa/internal/config"
	"github.com/boshu2/siteqa/internal/formatter"
	"github.com/boshu2/siteqa/internal/logging"
)

// errNoCommand is returned when qa is invoked without a subcommand.
var errNoCommand = errors.New("no command given (expected auto, content or full)")

var (
	// Global flags
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
	baseRef string

	// Populated by PersistentPreRunE.
	appConfig *config.Config
	logger    = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qa",
	Short: "Select and run the site QA pipeline",
	Long: `qa picks the QA pipeline a change needs and runs it.

Changed files are classified against path rules. Pure content changes get the
content fast path; anything touching templates, code, config or
accessibility-critical data gets the full pipeline.

Commands:
  auto      Detect changed files, select a mode, run it
  content   Force the content fast path
  full      Force the full pipeline
  run       Run auto, content or full given as an argument
  select    Show the selection without running anything
  modes     List the QA modes and their steps
  config    Show resolved configuration

Environment:
  QA_BASE_REF       Base ref for the diff (default: origin/main)
  QA_CHANGED_FILES  Newline-separated changed files (skips git)
  QA_FORCE_MODE     Set to "full" to force the full pipeline`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Usage() //nolint:errcheck // CLI output
		return errNoCommand
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		syncConfigFlagToEnv()
		return initApp(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync() //nolint:errcheck // stderr sync is best effort
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() int {
	ctx, stop := signalContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print the planned steps without executing them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .siteqa/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseRef, "base-ref", "", "Base ref for changed-file discovery (default: origin/main)")
}

// initApp loads configuration and builds the logger.
func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(&config.Config{
		Output:  output,
		Verbose: verbose,
		BaseRef: baseRef,
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	format, err := formatter.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	cfg.Output = format

	l, err := logging.New(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = l.With(zap.String("command", cmd.Name()))
	logger.Debug("configuration loaded",
		zap.String("base_ref", cfg.BaseRef),
		zap.String("output", cfg.Output),
		zap.String("shell", cfg.Shell))
	return nil
}

// GetDryRun returns the dry-run flag value for use by subcommands.
func GetDryRun() bool {
	return dryRun
}

// GetOutput returns the resolved output format.
func GetOutput() string {
	if appConfig != nil {
		return appConfig.Output
	}
	return formatter.FormatTable
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv(config.EnvConfig, path) //nolint:errcheck // setenv on a valid key
}
