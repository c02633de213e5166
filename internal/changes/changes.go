// Package changes discovers the paths changed by the current branch.
package changes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBaseRef is the upstream pointer diffed against when none is configured.
const DefaultBaseRef = "origin/main"

// ErrDiscoveryFailed is returned when the git diff cannot be computed.
// The QA run must not guess in that case.
var ErrDiscoveryFailed = errors.New("failed to compute changed files via git")

// Options controls discovery.
type Options struct {
	// Override is a newline-separated path list that replaces the git diff
	// when it has any non-blank content.
	Override string
	// BaseRef defaults to DefaultBaseRef.
	BaseRef string
	// Dir is the repository working directory; empty means the process cwd.
	Dir string
	// GitCommand defaults to "git".
	GitCommand string
}

// Source says where a change list came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceGitDiff  Source = "git-diff"
)

// Result is a discovered change set.
type Result struct {
	Files   []string `json:"files" yaml:"files"`
	Source  Source   `json:"source" yaml:"source"`
	BaseRef string   `json:"base_ref,omitempty" yaml:"base_ref,omitempty"`
}

// Discover returns the changed paths, preferring the explicit override.
func Discover(ctx context.Context, opts Options) (Result, error) {
	if strings.TrimSpace(opts.Override) != "" {
		return Result{Files: SplitLines(opts.Override), Source: SourceOverride}, nil
	}

	base := ResolveBaseRef(opts.BaseRef)
	files, err := GitDiff(ctx, opts.Dir, opts.GitCommand, base)
	if err != nil {
		return Result{}, err
	}
	return Result{Files: files, Source: SourceGitDiff, BaseRef: base}, nil
}

// ResolveBaseRef returns ref, or DefaultBaseRef when ref is blank.
func ResolveBaseRef(ref string) string {
	if r := strings.TrimSpace(ref); r != "" {
		return r
	}
	return DefaultBaseRef
}

// GitDiff lists paths changed between the merge base of base and HEAD.
func GitDiff(ctx context.Context, dir, gitCommand, base string) ([]string, error) {
	if gitCommand == "" {
		gitCommand = "git"
	}

	cmd := exec.CommandContext(ctx, gitCommand, "diff", "--name-only", base+"...HEAD")
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: git diff %s...HEAD: %v: %s", ErrDiscoveryFailed, base, err, msg)
		}
		return nil, fmt.Errorf("%w: git diff %s...HEAD: %v", ErrDiscoveryFailed, base, err)
	}
	return SplitLines(string(out)), nil
}

// SplitLines splits newline-separated output into non-empty entries. Only the
// whole input is trimmed; each entry keeps its own spacing apart from a
// trailing carriage return.
func SplitLines(s string) []string {
	files := []string{}
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}
