package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/siteqa/internal/config"
	"github.com/boshu2/siteqa/internal/formatter"
)

var (
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long: `View the resolved qa configuration.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (QA_*, also read from .env)
  3. Project config (.siteqa/config.yaml or .siteqa/config.toml)
  4. Home config (~/.siteqa/config.yaml or ~/.siteqa/config.toml)
  5. Defaults

Environment variables:
  QA_CONFIG         - Explicit config file path
  QA_OUTPUT         - Default output format (table, json, yaml)
  QA_VERBOSE        - Enable debug logging (true/1)
  QA_LOG_FORMAT     - Log encoding (console, json)
  QA_BASE_REF       - Base ref for changed-file discovery (default: origin/main)
  QA_SHELL          - Shell used to run step commands (default: sh)
  QA_FORCE_MODE     - "full" forces the full pipeline
  QA_CHANGED_FILES  - Newline-separated changed files, replaces git discovery

Examples:
  qa config --show           # Show resolved configuration
  qa config --show -o json   # Output as JSON`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		return cmd.Help()
	}

	resolved := config.Resolve(config.FlagValues{Output: output, BaseRef: baseRef, Verbose: verbose})
	w := cmd.OutOrStdout()

	if format := GetOutput(); format != formatter.FormatTable {
		return formatter.Encode(w, format, resolved)
	}
	printResolvedConfig(w, resolved)
	return nil
}

func printResolvedConfig(w io.Writer, resolved *config.ResolvedConfig) {
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format, args...) //nolint:errcheck // CLI output
	}

	p("siteqa Configuration\n")
	p("====================\n\n")

	p("Config files:\n")
	for _, f := range []struct{ label, path string }{
		{"Home:   ", config.HomeConfigPath()},
		{"Project:", config.ProjectConfigPath()},
	} {
		if _, err := os.Stat(f.path); err == nil && f.path != "" {
			p("  ✓ %s %s\n", f.label, f.path)
		} else {
			p("  ✗ %s %s (not found)\n", f.label, f.path)
		}
	}

	p("\nResolved values:\n")
	p("  output:     %v  (from %s)\n", resolved.Output.Value, resolved.Output.Source)
	p("  verbose:    %v  (from %s)\n", resolved.Verbose.Value, resolved.Verbose.Source)
	p("  log_format: %v  (from %s)\n", resolved.LogFormat.Value, resolved.LogFormat.Source)
	p("  base_ref:   %v  (from %s)\n", resolved.BaseRef.Value, resolved.BaseRef.Source)
	p("  shell:      %v  (from %s)\n", resolved.Shell.Value, resolved.Shell.Source)
	p("  force_mode: %v  (from %s)\n", resolved.ForceMode.Value, resolved.ForceMode.Source)

	p("\nEnvironment variables (if set):\n")
	anySet := false
	for _, env := range config.EnvVars {
		if v := os.Getenv(env); v != "" {
			p("  %s=%s\n", env, v)
			anySet = true
		}
	}
	if !anySet {
		p("  (none set)\n")
	}
}
