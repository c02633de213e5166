package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/boshu2/siteqa/internal/qa"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version, QA policy versions, and runtime details.`,
	Run: func(cmd *cobra.Command, args []string) {
		//nolint:errcheck // CLI output
		fmt.Fprintf(cmd.OutOrStdout(),
			"qa version %s\n  QA policy: %s\n  A11y policy: %s\n  Go version: %s\n  Platform: %s/%s\n",
			version, qa.QAPolicyVersion, qa.A11yPolicyVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
