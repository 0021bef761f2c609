// Package differ runs a word-level diff over two flattened documents.
//
// The diff itself comes from an external tool; Provider hides which one
// so the rest of the pipeline can be exercised with canned output.
package differ

import (
	"context"
	"errors"
)

var (
	// ErrDiffFailed is returned when the diff tool exits abnormally.
	ErrDiffFailed = errors.New("diff tool failed")
	// ErrToolMissing is returned when the diff tool cannot be started.
	ErrToolMissing = errors.New("diff tool not available")
)

// Provider produces word-diff lines for two files. Changed words are
// wrapped in {+...+} (added) or [-...-] (removed), each span contained in
// a single line. Tool headers must already be removed.
type Provider interface {
	Name() string
	Diff(ctx context.Context, oldPath, newPath string) ([]string, error)
}

// CommandRunner abstracts process execution so providers can be tested
// without spawning subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExitCoder is implemented by errors that carry a process exit status,
// such as *exec.ExitError.
type ExitCoder interface {
	ExitCode() int
}
