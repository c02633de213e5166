package qa

import "fmt"

// SelectInput is the input to SelectMode.
type SelectInput struct {
	ChangedFiles      []string
	QAPolicyVersion   string
	A11yPolicyVersion string
	// Rules is the rule set to classify with. SelectMode replaces a zero
	// PathRules with DefaultPathRules. Classify does no such substitution:
	// called directly with zero rules, every path is non-content.
	Rules PathRules
}

// SelectionDetails is the audit trail attached to every selection.
type SelectionDetails struct {
	Classification    `yaml:",inline"`
	QAPolicyVersion   string `json:"qa_policy_version" yaml:"qa_policy_version"`
	A11yPolicyVersion string `json:"a11y_policy_version" yaml:"a11y_policy_version"`
}

// Selection is the outcome of SelectMode.
type Selection struct {
	SelectedMode ModeID           `json:"selected_mode" yaml:"selected_mode"`
	Reason       string           `json:"reason" yaml:"reason"`
	Details      SelectionDetails `json:"details" yaml:"details"`
}

// SelectMode picks a mode for a change set. The first matching rule wins:
// empty input, a11y-critical data, non-content paths, all content-eligible,
// then a fallback to full. It never fails.
func SelectMode(in SelectInput) Selection {
	rules := in.Rules
	if rules.IsZero() {
		rules = DefaultPathRules()
	}

	sel := Selection{
		Details: SelectionDetails{
			QAPolicyVersion:   in.QAPolicyVersion,
			A11yPolicyVersion: in.A11yPolicyVersion,
		},
	}

	// An empty diff may mean upstream detection failed, so it is not trusted.
	if len(in.ChangedFiles) == 0 {
		sel.SelectedMode = DefaultMode
		sel.Reason = "No changed files detected; defaulting to full for safety."
		sel.Details.Classification = Classify(nil, rules)
		return sel
	}

	c := Classify(in.ChangedFiles, rules)
	sel.Details.Classification = c

	switch {
	case len(c.MatchedA11yCriticalData) > 0:
		sel.SelectedMode = ModeFull
		sel.Reason = fmt.Sprintf("A11y-critical data changed (%d file(s)).", len(c.MatchedA11yCriticalData))
	case len(c.MatchedNonContent) > 0:
		sel.SelectedMode = ModeFull
		sel.Reason = fmt.Sprintf("Non-content or unknown paths changed (%d file(s)).", len(c.MatchedNonContent))
	case len(c.MatchedAllowed) == len(in.ChangedFiles):
		sel.SelectedMode = ModeContentFastPath
		sel.Reason = fmt.Sprintf("All changes are content-eligible (%d file(s)).", len(c.MatchedAllowed))
	default:
		// Unreachable while Classify falls back to non-content; kept in case
		// that fallback ever changes.
		sel.SelectedMode = FallbackOnErrorMode
		sel.Reason = "Unclassified changes detected; defaulting to full for safety."
	}
	return sel
}
