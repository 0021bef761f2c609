// Package highlight turns word-diff change markers into LaTeX colour
// commands.
//
// A word diff marks inserted text as {+...+} and removed text as [-...-].
// Each delimiter is rewritten on its own: opening and closing markers are
// never paired or balanced, so malformed input produces malformed LaTeX
// rather than an error. This is a plain textual substitution and is not
// meant to understand the wrapped content.
package highlight

import (
	"regexp"
	"strings"
)

const (
	// DefaultAddition is the colour used for inserted text.
	DefaultAddition = "green"
	// DefaultDeletion is the colour used for removed text.
	DefaultDeletion = "red"
)

var (
	additionOpenRe  = regexp.MustCompile(`\{\+`)
	additionCloseRe = regexp.MustCompile(`\+\}`)
	deletionOpenRe  = regexp.MustCompile(`\[-`)
	deletionCloseRe = regexp.MustCompile(`-\]`)

	// spanRe finds complete spans for reporting; it is not used for rewriting.
	spanRe = regexp.MustCompile(`\{\+(.*?)\+\}|\[-(.*?)-\]`)
)

// Style names the colours passed to \textcolor. Values are handed to LaTeX
// untouched; xcolor decides whether they are valid.
type Style struct {
	Addition string `mapstructure:"addition_colour" json:"addition_colour"`
	Deletion string `mapstructure:"deletion_colour" json:"deletion_colour"`
}

// DefaultStyle returns green additions and red deletions.
func DefaultStyle() Style {
	return Style{Addition: DefaultAddition, Deletion: DefaultDeletion}
}

// WithDefaults fills empty colours from DefaultStyle.
func (s Style) WithDefaults() Style {
	if s.Addition == "" {
		s.Addition = DefaultAddition
	}
	if s.Deletion == "" {
		s.Deletion = DefaultDeletion
	}
	return s
}

// Highlight rewrites both kinds of markers in line, deletions first.
// The order shows when a deletion ends in "+": "[-C++-]" becomes
// \textcolor{red}{\st{C+}} because the addition pass then sees the "+}"
// the deletion pass produced.
func Highlight(line string, s Style) string {
	s = s.WithDefaults()
	return HighlightAdditions(HighlightDeletions(line, s.Deletion), s.Addition)
}

// HighlightAdditions replaces {+ with \textcolor{colour}{ and +} with }.
func HighlightAdditions(line, colour string) string {
	return subAndEnclose(additionOpenRe, `\textcolor{`+colour+`}{`, additionCloseRe, `}`, line)
}

// HighlightDeletions replaces [- with \textcolor{colour}{\st{ and -] with }}.
func HighlightDeletions(line, colour string) string {
	return subAndEnclose(deletionOpenRe, `\textcolor{`+colour+`}{\st{`, deletionCloseRe, `}}`, line)
}

func subAndEnclose(openRe *regexp.Regexp, openSub string, closeRe *regexp.Regexp, closeSub string, line string) string {
	return closeRe.ReplaceAllLiteralString(openRe.ReplaceAllLiteralString(line, openSub), closeSub)
}

// Lines highlights every line, keeping order. Lines carry no shared state.
func Lines(lines []string, s Style) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Highlight(line, s)
	}
	return out
}

// Kind classifies a piece of a word-diff line.
type Kind int

const (
	Unchanged Kind = iota
	Addition
	Deletion
)

func (k Kind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return "unchanged"
	}
}

// Span is a run of text on a word-diff line with the markers removed.
type Span struct {
	Kind Kind
	Text string
}

// Segments cuts line into unchanged text and complete change spans, left
// to right. Unterminated markers stay in the unchanged text.
func Segments(line string) []Span {
	var spans []Span
	last := 0
	for _, m := range spanRe.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			spans = append(spans, Span{Kind: Unchanged, Text: line[last:m[0]]})
		}
		if m[2] >= 0 {
			spans = append(spans, Span{Kind: Addition, Text: line[m[2]:m[3]]})
		} else {
			spans = append(spans, Span{Kind: Deletion, Text: line[m[4]:m[5]]})
		}
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Kind: Unchanged, Text: line[last:]})
	}
	return spans
}

// Spans lists only the change spans of line.
func Spans(line string) []Span {
	var spans []Span
	for _, sp := range Segments(line) {
		if sp.Kind != Unchanged {
			spans = append(spans, sp)
		}
	}
	return spans
}

// Count returns the number of addition and deletion spans across lines.
func Count(lines []string) (additions, deletions int) {
	for _, line := range lines {
		if !strings.ContainsAny(line, "{[") {
			continue
		}
		for _, sp := range Spans(line) {
			if sp.Kind == Addition {
				additions++
			} else {
				deletions++
			}
		}
	}
	return additions, deletions
}
