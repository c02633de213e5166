package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/boshu2/siteqa/internal/formatter"
	"github.com/boshu2/siteqa/internal/qa"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List QA modes and their steps",
	Long: `List the QA modes and the steps each one runs, in order.

Examples:
  qa modes
  qa modes -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputModes(cmd.OutOrStdout(), GetOutput(), qa.DefaultRegistry().Modes())
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func outputModes(w io.Writer, format string, modes []qa.Mode) error {
	if format != formatter.FormatTable {
		return formatter.Encode(w, format, modes)
	}

	for i, m := range modes {
		if i > 0 {
			fmt.Fprintln(w) //nolint:errcheck // CLI output
		}
		//nolint:errcheck // CLI output
		fmt.Fprintf(w, "%s (%s)\n%s\n\n", m.Name, m.ID, m.Description)

		tbl := formatter.NewTable(w, "#", "STEP", "CRITICAL", "COMMAND")
		for n, s := range m.Steps {
			critical := "no"
			if s.Critical {
				critical = "yes"
			}
			tbl.AddRow(fmt.Sprint(n+1), s.ID, critical, s.Command)
		}
		if err := tbl.Render(); err != nil {
			return err
		}
	}
	return nil
}
