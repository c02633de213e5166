package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/siteqa/internal/changes"
	"github.com/boshu2/siteqa/internal/config"
	"github.com/boshu2/siteqa/internal/formatter"
	"github.com/boshu2/siteqa/internal/qa"
)

var selectCmd = &cobra.Command{
	Use:   "select [file...]",
	Short: "Show which QA mode a change set selects",
	Long: `Classify changed files and print the selected mode without running it.

Files given as arguments replace discovery; otherwise QA_CHANGED_FILES or the
git diff against the base ref is used.

Examples:
  qa select
  qa select content/blog/post.md layouts/_default/single.html
  qa select -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := buildSelectReport(cmd.Context(), appConfig, args)
		if err != nil {
			return err
		}
		return outputSelectReport(cmd.OutOrStdout(), GetOutput(), report)
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}

// selectReport is what qa select prints.
type selectReport struct {
	Source    changes.Source `json:"source" yaml:"source"`
	BaseRef   string         `json:"base_ref,omitempty" yaml:"base_ref,omitempty"`
	Files     []string       `json:"files" yaml:"files"`
	Selection qa.Selection   `json:"selection" yaml:"selection"`
	// EffectiveMode differs from Selection.SelectedMode when QA_FORCE_MODE=full.
	EffectiveMode qa.ModeID `json:"effective_mode" yaml:"effective_mode"`
	Overridden    bool      `json:"overridden" yaml:"overridden"`
}

const sourceArgs changes.Source = "args"

func buildSelectReport(ctx context.Context, cfg *config.Config, args []string) (selectReport, error) {
	var res changes.Result
	if len(args) > 0 {
		res = changes.Result{Files: args, Source: sourceArgs}
	} else {
		var err error
		res, err = changes.Discover(ctx, changes.Options{Override: cfg.ChangedFiles, BaseRef: cfg.BaseRef})
		if err != nil {
			return selectReport{}, err
		}
	}

	d := qa.Decide(qa.DecideInput{
		Command:           qa.CommandAuto,
		ChangedFiles:      res.Files,
		QAPolicyVersion:   cfg.Policy.QAVersion,
		A11yPolicyVersion: cfg.Policy.A11yVersion,
		Rules:             cfg.Rules,
		ForceFull:         qa.IsForceFull(cfg.ForceMode),
	})

	return selectReport{
		Source:        res.Source,
		BaseRef:       res.BaseRef,
		Files:         res.Files,
		Selection:     *d.Selection,
		EffectiveMode: d.ModeID,
		Overridden:    d.Overridden,
	}, nil
}

func outputSelectReport(w io.Writer, format string, r selectReport) error {
	if format != formatter.FormatTable {
		return formatter.Encode(w, format, r)
	}

	sel := r.Selection
	p := func(f string, args ...any) {
		fmt.Fprintf(w, f, args...) //nolint:errcheck // CLI output
	}
	p("Selected mode: %s\n", sel.SelectedMode)
	p("Reason:        %s\n", sel.Reason)
	if r.Overridden {
		p("Effective:     %s (QA_FORCE_MODE=full)\n", r.EffectiveMode)
	}
	p("Policy:        qa %s, a11y %s\n", sel.Details.QAPolicyVersion, sel.Details.A11yPolicyVersion)
	p("\n")

	if len(r.Files) == 0 {
		p("No changed files\n")
		return nil
	}

	tbl := formatter.NewTable(w, "FILE", "BUCKET")
	tbl.SetMaxWidth(0, 72)
	addBucket(tbl, sel.Details.MatchedA11yCriticalData, qa.BucketA11yCritical)
	addBucket(tbl, sel.Details.MatchedNonContent, qa.BucketNonContent)
	addBucket(tbl, sel.Details.MatchedAllowed, qa.BucketAllowed)
	if err := tbl.Render(); err != nil {
		return err
	}

	p("\n%s\n", strings.Join([]string{
		fmt.Sprintf("a11y-critical: %d", len(sel.Details.MatchedA11yCriticalData)),
		fmt.Sprintf("non-content: %d", len(sel.Details.MatchedNonContent)),
		fmt.Sprintf("allowed: %d", len(sel.Details.MatchedAllowed)),
	}, "  "))
	return nil
}

func addBucket(tbl *formatter.Table, files []string, b qa.Bucket) {
	for _, f := range files {
		tbl.AddRow(f, string(b))
	}
}
