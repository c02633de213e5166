package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultShell interprets step commands.
const DefaultShell = "sh"

// CommandExecutor runs one step command to completion.
// A nil error means the command exited zero.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) error
}

// ShellExecutor runs commands through "<shell> -c" with the caller's standard
// streams so the user sees live output.
type ShellExecutor struct {
	Shell  string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute blocks until the child process exits.
func (e ShellExecutor) Execute(ctx context.Context, command string) error {
	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = e.Dir
	cmd.Stdin = orReader(e.Stdin, os.Stdin)
	cmd.Stdout = orWriter(e.Stdout, os.Stdout)
	cmd.Stderr = orWriter(e.Stderr, os.Stderr)
	return cmd.Run()
}

func orReader(r, fallback io.Reader) io.Reader {
	if r == nil {
		return fallback
	}
	return r
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

// StepStatus is the outcome of one step within a run.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepPlanned   StepStatus = "planned"
)

// StepResult records what happened to one step.
type StepResult struct {
	ID       string        `json:"id" yaml:"id"`
	Critical bool          `json:"critical" yaml:"critical"`
	Status   StepStatus    `json:"status" yaml:"status"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// RunReport summarises a single runner invocation. It is not persisted.
type RunReport struct {
	RunID               string       `json:"run_id" yaml:"run_id"`
	ModeID              ModeID       `json:"mode_id" yaml:"mode_id"`
	DryRun              bool         `json:"dry_run" yaml:"dry_run"`
	Steps               []StepResult `json:"steps" yaml:"steps"`
	NonCriticalFailures int          `json:"non_critical_failures" yaml:"non_critical_failures"`
	Aborted             bool         `json:"aborted" yaml:"aborted"`
}

// RunnerOptions configures a Runner. Zero values pick the defaults.
type RunnerOptions struct {
	Registry *Registry
	Executor CommandExecutor
	// Out receives progress lines; ErrOut receives failures and warnings.
	Out    io.Writer
	ErrOut io.Writer
	Logger *zap.Logger
	DryRun bool
}

// Runner executes a mode's steps strictly in declared order.
type Runner struct {
	registry *Registry
	executor CommandExecutor
	out      io.Writer
	errOut   io.Writer
	logger   *zap.Logger
	dryRun   bool
}

// NewRunner creates a runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		registry: opts.Registry,
		executor: opts.Executor,
		out:      orWriter(opts.Out, os.Stdout),
		errOut:   orWriter(opts.ErrOut, os.Stderr),
		logger:   opts.Logger,
		dryRun:   opts.DryRun,
	}
	if r.registry == nil {
		r.registry = DefaultRegistry()
	}
	if r.executor == nil {
		r.executor = ShellExecutor{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Run executes the mode. Each step's process must exit before the next one
// starts. A failing critical step stops the pipeline and returns a
// *StepFailedError; a failing non-critical step is reported as a warning and
// does not affect the result.
func (r *Runner) Run(ctx context.Context, id ModeID) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), ModeID: id, DryRun: r.dryRun}

	mode, ok := r.registry.Lookup(id)
	if !ok {
		r.errf("Unknown mode: %s\n", id)
		return report, fmt.Errorf("%w: %q", ErrUnknownMode, id)
	}

	log := r.logger.With(zap.String("run_id", report.RunID), zap.String("mode", string(mode.ID)))

	r.printPlan(mode)

	if r.dryRun {
		for _, s := range mode.Steps {
			report.Steps = append(report.Steps, StepResult{ID: s.ID, Critical: s.Critical, Status: StepPlanned})
		}
		r.outf("Dry run: no commands executed.\n")
		log.Debug("dry run complete", zap.Int("steps", len(mode.Steps)))
		return report, nil
	}

	total := len(mode.Steps)
	for i, step := range mode.Steps {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return report, fmt.Errorf("QA run interrupted before step %s: %w", step.ID, err)
		}

		r.outf("Starting step [%d/%d]: %s - %s\n", i+1, total, step.ID, step.Description)
		log.Info("step started", zap.String("step", step.ID), zap.Bool("critical", step.Critical))

		start := time.Now()
		err := r.executor.Execute(ctx, step.Command)
		res := StepResult{
			ID:       step.ID,
			Critical: step.Critical,
			Status:   StepSucceeded,
			Elapsed:  time.Since(start),
		}

		if err == nil {
			report.Steps = append(report.Steps, res)
			r.outf("Step %s succeeded.\n", step.ID)
			log.Info("step succeeded", zap.String("step", step.ID), zap.Duration("elapsed", res.Elapsed))
			continue
		}

		res.Status = StepFailed
		res.ExitCode = exitCode(err)
		res.Error = err.Error()
		report.Steps = append(report.Steps, res)

		r.errf("Step %s failed: %v\n", step.ID, err)
		if step.Critical {
			r.errf("Critical step failed; aborting QA pipeline.\n")
			log.Error("critical step failed",
				zap.String("step", step.ID),
				zap.Int("exit_code", res.ExitCode),
				zap.Duration("elapsed", res.Elapsed),
				zap.Error(err))
			report.Aborted = true
			return report, &StepFailedError{ModeID: mode.ID, StepID: step.ID, Err: err}
		}

		report.NonCriticalFailures++
		r.errf("Warning: non-critical step failed; continuing.\n")
		log.Warn("non-critical step failed",
			zap.String("step", step.ID),
			zap.Int("exit_code", res.ExitCode),
			zap.Error(err))
	}

	if report.NonCriticalFailures > 0 {
		r.outf("QA pipeline for mode %s completed with %d non-critical failure(s).\n", mode.ID, report.NonCriticalFailures)
	} else {
		r.outf("All steps succeeded for mode %s.\n", mode.ID)
	}
	log.Info("run complete", zap.Int("non_critical_failures", report.NonCriticalFailures))
	return report, nil
}

func (r *Runner) printPlan(mode Mode) {
	r.outf("QA Mode: %s (%s)\n", mode.Name, mode.ID)
	r.outf("Description: %s\n\n", mode.Description)
	r.outf("Steps to run:\n")
	for i, s := range mode.Steps {
		critical := ""
		if s.Critical {
			critical = " (critical)"
		}
		r.outf("  %d) %s%s -> %s\n", i+1, s.ID, critical, s.Command)
	}
	r.outf("\n")
}

// exitCode returns the process exit code, or -1 when the process never ran
// or was killed by a signal.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (r *Runner) outf(format string, args ...any) {
	//nolint:errcheck // progress output, errors non-recoverable
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) errf(format string, args ...any) {
	//nolint:errcheck // progress output, errors non-recoverable
	fmt.Fprintf(r.errOut, format, args...)
}
