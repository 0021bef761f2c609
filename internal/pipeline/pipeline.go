// Package pipeline composes flattening, diffing and highlighting into a
// single comparison of two LaTeX documents.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/texdiff/internal/differ"
	"github.com/valpere/texdiff/internal/flatten"
	"github.com/valpere/texdiff/internal/highlight"
	"github.com/valpere/texdiff/internal/logging"
)

// Config controls how a Pipeline flattens and highlights documents.
type Config struct {
	Style   highlight.Style
	Markers flatten.Options
	// Timeout bounds the provider call. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Document is one flattened input.
type Document struct {
	Path     string
	Flat     string
	Warnings []flatten.Warning
}

// Result is a highlighted comparison. Raw keeps the provider output so
// callers can render it another way.
type Result struct {
	Lines     []string
	Raw       []string
	Additions int
	Deletions int
	Old       Document
	New       Document
	Provider  string
	Elapsed   time.Duration
}

// Text returns the highlighted lines, each terminated by a newline.
func (r *Result) Text() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

// Changed reports whether the provider found any difference.
func (r *Result) Changed() bool {
	return r.Additions+r.Deletions > 0
}

// Pipeline runs comparisons through a single diff provider.
type Pipeline struct {
	provider differ.Provider
	config   Config
}

// New creates a Pipeline. A nil logger discards output and empty colours
// fall back to the defaults.
func New(provider differ.Provider, config Config) *Pipeline {
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}
	config.Style = config.Style.WithDefaults()
	return &Pipeline{
		provider: provider,
		config:   config,
	}
}

// Run flattens both documents, diffs the flattened copies and highlights
// the diff. Errors from flattening wrap flatten.ErrNotFound or
// flatten.ErrWrite.
func (p *Pipeline) Run(ctx context.Context, oldPath, newPath string) (*Result, error) {
	start := time.Now()

	oldDoc, newDoc, err := p.Flatten(ctx, oldPath, newPath)
	if err != nil {
		return nil, err
	}

	result, err := p.Compare(ctx, oldDoc, newDoc)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// Flatten reads both documents concurrently and logs their markup
// warnings.
func (p *Pipeline) Flatten(ctx context.Context, oldPath, newPath string) (Document, Document, error) {
	docs := [2]Document{{Path: oldPath}, {Path: newPath}}

	g, _ := errgroup.WithContext(ctx)
	for i := range docs {
		g.Go(func() error {
			res, err := flattenFile(docs[i].Path, p.config.Markers)
			if err != nil {
				return fmt.Errorf("flattening %s: %w", docs[i].Path, err)
			}
			docs[i].Flat = res.String()
			docs[i].Warnings = res.Warnings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Document{}, Document{}, err
	}

	for _, doc := range docs {
		for _, w := range doc.Warnings {
			p.config.Logger.Warn("malformed document markup",
				"file", doc.Path, "kind", w.Kind.String(), "detail", w.String())
		}
	}
	return docs[0], docs[1], nil
}

func flattenFile(path string, opts flatten.Options) (flatten.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return flatten.Result{}, fmt.Errorf("%w: %w", flatten.ErrNotFound, err)
	}
	defer f.Close()
	return flatten.FlattenReader(f, opts)
}

// Compare writes the flattened documents to a scratch directory, runs the
// provider on them and highlights its output.
func (p *Pipeline) Compare(ctx context.Context, oldDoc, newDoc Document) (*Result, error) {
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "texdiff-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	oldFlat := filepath.Join(tmpDir, "oldversion")
	newFlat := filepath.Join(tmpDir, "newversion")
	for _, f := range []struct{ path, text string }{{oldFlat, oldDoc.Flat}, {newFlat, newDoc.Flat}} {
		if err := os.WriteFile(f.path, []byte(f.text), 0644); err != nil {
			return nil, fmt.Errorf("%w: %w", flatten.ErrWrite, err)
		}
	}

	diffCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		diffCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	raw, err := p.provider.Diff(diffCtx, oldFlat, newFlat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.provider.Name(), err)
	}

	additions, deletions := highlight.Count(raw)
	result := &Result{
		Lines:     highlight.Lines(raw, p.config.Style),
		Raw:       raw,
		Additions: additions,
		Deletions: deletions,
		Old:       oldDoc,
		New:       newDoc,
		Provider:  p.provider.Name(),
		Elapsed:   time.Since(start),
	}

	p.config.Logger.Debug("comparison finished",
		"provider", result.Provider,
		"lines", len(result.Lines),
		"additions", additions,
		"deletions", deletions,
		"elapsed", result.Elapsed)

	return result, nil
}

// Highlight applies the configured style to pre-computed word-diff lines,
// skipping flattening and the provider.
func (p *Pipeline) Highlight(raw []string) *Result {
	additions, deletions := highlight.Count(raw)
	return &Result{
		Lines:     highlight.Lines(raw, p.config.Style),
		Raw:       raw,
		Additions: additions,
		Deletions: deletions,
	}
}
