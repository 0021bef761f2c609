package differ

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultContextLines is large enough to keep a whole thesis in one hunk.
const DefaultContextLines = 5000

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// GitWordDiff diffs two files with `git diff --word-diff --no-index`.
type GitWordDiff struct {
	Runner       CommandRunner
	Binary       string
	ContextLines int
}

// NewGitWordDiff creates a GitWordDiff backed by the git found on PATH.
func NewGitWordDiff(contextLines int) *GitWordDiff {
	if contextLines <= 0 {
		contextLines = DefaultContextLines
	}
	return &GitWordDiff{
		Runner:       &ExecRunner{},
		Binary:       "git",
		ContextLines: contextLines,
	}
}

func (g *GitWordDiff) Name() string {
	return "git-word-diff"
}

func (g *GitWordDiff) args(oldPath, newPath string) []string {
	return []string{
		"diff",
		"--no-color",
		"--word-diff=plain",
		"--no-index",
		"-U" + strconv.Itoa(g.ContextLines),
		"--",
		oldPath,
		newPath,
	}
}

// Diff runs git and returns its output without the header. Identical
// files give an empty result.
func (g *GitWordDiff) Diff(ctx context.Context, oldPath, newPath string) ([]string, error) {
	stdout, stderr, err := g.Runner.Run(ctx, g.Binary, g.args(oldPath, newPath)...)
	if err != nil {
		var exitErr ExitCoder
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %w", ErrDiffFailed, ctx.Err())
		case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
			// --no-index exits 1 when the files differ.
		case errors.Is(err, exec.ErrNotFound):
			return nil, fmt.Errorf("%w: %s: %w", ErrToolMissing, g.Binary, err)
		default:
			return nil, fmt.Errorf("%w: %s: %w", ErrDiffFailed, strings.TrimSpace(stderr), err)
		}
	}
	return dropMarkers(StripHeader(SplitLines(stdout))), nil
}

const noNewlineMarker = `\ No newline at end of file`

// dropMarkers removes git's end-of-file notices; flattened documents never
// end with a newline so git always emits one.
func dropMarkers(lines []string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if line != noNewlineMarker {
			out = append(out, line)
		}
	}
	return out
}

// SplitLines splits tool output into lines, dropping the empty element a
// trailing newline would leave.
func SplitLines(out string) []string {
	if out == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

// StripHeader removes git's file header: everything up to and including
// the first "@@" hunk line. Output without a hunk header is returned as is.
func StripHeader(lines []string) []string {
	for i, line := range lines {
		if strings.HasPrefix(line, "@@") {
			return lines[i+1:]
		}
	}
	return lines
}
