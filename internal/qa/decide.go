package qa

import (
	"fmt"
	"strings"
)

// Command is a caller-facing QA operation.
type Command string

const (
	CommandAuto    Command = "auto"
	CommandContent Command = "content"
	CommandFull    Command = "full"
)

// ForceFullValue is the QA_FORCE_MODE value that forces the full pipeline.
const ForceFullValue = "full"

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(s))); c {
	case CommandAuto, CommandContent, CommandFull:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCommand, s)
	}
}

// IsForceFull reports whether a force-mode setting requests the full pipeline.
func IsForceFull(forceMode string) bool {
	return strings.TrimSpace(forceMode) == ForceFullValue
}

// DecideInput is everything the top-level invocation needs to pick a mode.
type DecideInput struct {
	Command Command
	// ChangedFiles is only consulted for CommandAuto.
	ChangedFiles      []string
	QAPolicyVersion   string
	A11yPolicyVersion string
	Rules             PathRules
	// ForceFull is applied after normal selection and always wins.
	ForceFull bool
}

// Decision is the mode the runner should execute and why.
type Decision struct {
	Command Command `json:"command" yaml:"command"`
	ModeID  ModeID  `json:"mode_id" yaml:"mode_id"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Forced is set when the mode came from the command or the override
	// rather than from classification.
	Forced bool `json:"forced" yaml:"forced"`
	// Overridden is set when ForceFull replaced the selected mode.
	Overridden bool       `json:"overridden" yaml:"overridden"`
	Selection  *Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
}

// Decide maps a command to a mode, running the selector for auto.
func Decide(in DecideInput) Decision {
	d := Decision{Command: in.Command, ModeID: DefaultMode}

	switch in.Command {
	case CommandAuto:
		sel := SelectMode(SelectInput{
			ChangedFiles:      in.ChangedFiles,
			QAPolicyVersion:   in.QAPolicyVersion,
			A11yPolicyVersion: in.A11yPolicyVersion,
			Rules:             in.Rules,
		})
		d.ModeID = sel.SelectedMode
		d.Reason = sel.Reason
		d.Selection = &sel
	case CommandContent:
		d.ModeID = ModeContentFastPath
		d.Forced = true
	case CommandFull:
		d.ModeID = ModeFull
		d.Forced = true
	}

	if in.ForceFull {
		d.ModeID = ModeFull
		d.Reason = "Forced by QA_FORCE_MODE=full."
		d.Forced = true
		d.Overridden = true
	}
	return d
}
