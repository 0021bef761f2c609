// Package flatten reduces a LaTeX source to its document body with every
// paragraph unwrapped onto a single line. Word-level diff tools compare the
// flattened forms of two versions without tripping over re-wrapped lines.
package flatten

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultBegin marks the start of the document body.
	DefaultBegin = `\begin{document}`
	// DefaultEnd marks the end of the document body.
	DefaultEnd = `\end{document}`

	// ParagraphSeparator is placed between flattened paragraphs.
	ParagraphSeparator = "\n\n"
)

var (
	// ErrNotFound is returned when the source document cannot be opened or read.
	ErrNotFound = errors.New("source document not found")
	// ErrWrite is returned when the flattened output cannot be written.
	ErrWrite = errors.New("cannot write flattened document")
)

// isSpace reports Unicode white space, including the ASCII information
// separators U+001C to U+001F that text editors treat as line breaks.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func isBlank(line string) bool {
	return strings.TrimFunc(line, isSpace) == ""
}

// Options selects the body markers. Zero values fall back to the LaTeX
// document environment.
type Options struct {
	Begin string
	End   string
}

func (o Options) withDefaults() Options {
	if o.Begin == "" {
		o.Begin = DefaultBegin
	}
	if o.End == "" {
		o.End = DefaultEnd
	}
	return o
}

// Result holds the flattened paragraphs and any markup problems seen on
// the way. Warnings never influence Paragraphs.
type Result struct {
	Paragraphs []string
	Warnings   []Warning
}

// String renders the paragraphs separated by one blank line, without a
// trailing newline.
func (r Result) String() string {
	return strings.Join(r.Paragraphs, ParagraphSeparator)
}

// state is threaded through the fold; each step returns a fresh value.
type state struct {
	paragraphs []string
	current    []string
	begins     int
	done       bool
}

func (s state) finish(lines []string) state {
	paragraphs := make([]string, len(s.paragraphs), len(s.paragraphs)+1)
	copy(paragraphs, s.paragraphs)
	return state{
		paragraphs: append(paragraphs, strings.Join(lines, " ")),
		begins:     s.begins,
		done:       s.done,
	}
}

func (s state) push(line string) state {
	current := make([]string, len(s.current), len(s.current)+1)
	copy(current, s.current)
	s.current = append(current, line)
	return s
}

// step classifies a single source line. Markers are matched anywhere in
// the line; the whole marker line is excluded from the output.
func step(s state, line string, begin, end *regexp.Regexp) state {
	if isBlank(line) {
		return s.finish(s.current)
	}

	s = s.push(strings.TrimFunc(line, isSpace))

	switch {
	case begin.MatchString(line):
		return state{begins: s.begins + 1}
	case end.MatchString(line):
		s = s.finish(s.current[:len(s.current)-1])
		s.done = true
		return s
	}
	return s
}

// Flatten folds lines into one entry per paragraph.
//
// Everything up to and including the begin marker is discarded, and
// reading stops at the end marker. When the input runs out before an end
// marker, the paragraph still being collected is dropped. That mirrors
// the behaviour existing diffs were produced with; the drop is reported
// as a warning instead.
//
// Lines are NFC normalised before they are classified, so the output is
// in NFC even when the source uses decomposed characters.
func Flatten(lines []string, opts Options) Result {
	opts = opts.withDefaults()
	begin := regexp.MustCompile(regexp.QuoteMeta(opts.Begin))
	end := regexp.MustCompile(regexp.QuoteMeta(opts.End))

	s := state{}
	consumed := 0
	for _, line := range lines {
		s = step(s, norm.NFC.String(line), begin, end)
		consumed++
		if s.done {
			break
		}
	}

	var warnings []Warning
	switch {
	case s.begins == 0:
		warnings = append(warnings, Warning{Kind: MissingBegin, Marker: opts.Begin})
	case s.begins > 1:
		warnings = append(warnings, Warning{Kind: DuplicateBegin, Marker: opts.Begin, Count: s.begins})
	}
	if !s.done {
		warnings = append(warnings, Warning{Kind: MissingEnd, Marker: opts.End})
		if len(s.current) > 0 {
			warnings = append(warnings, Warning{Kind: DroppedContent, Count: len(s.current), Line: consumed})
		}
	}

	return Result{Paragraphs: s.paragraphs, Warnings: warnings}
}

// FlattenReader reads r line by line and flattens it. Lines may end in
// "\n" or "\r\n" and have no length limit.
func FlattenReader(r io.Reader, opts Options) (Result, error) {
	br := bufio.NewReader(r)

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return Flatten(lines, opts), nil
}

// FlattenFile flattens src and writes the result to dst.
func FlattenFile(src, dst string, opts Options) (Result, error) {
	f, err := os.Open(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	defer f.Close()

	res, err := FlattenReader(f, opts)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", src, err)
	}

	if err := os.WriteFile(dst, []byte(res.String()), 0644); err != nil {
		return res, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return res, nil
}
