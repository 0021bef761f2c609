// Package render prints word-diff output to a terminal, colouring
// insertions and striking through removals instead of emitting LaTeX.
package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/valpere/texdiff/internal/highlight"
)

// ansiColours maps the xcolor base names to the 16-colour palette so the
// same --addition-colour/--deletion-colour values work for both outputs.
var ansiColours = map[string]string{
	"black":     "0",
	"red":       "1",
	"green":     "2",
	"olive":     "3",
	"yellow":    "11",
	"blue":      "4",
	"magenta":   "5",
	"violet":    "5",
	"purple":    "5",
	"cyan":      "6",
	"teal":      "6",
	"white":     "15",
	"lightgray": "7",
	"gray":      "8",
	"darkgray":  "8",
	"orange":    "208",
	"brown":     "94",
	"pink":      "218",
	"lime":      "10",
}

// TerminalColour translates a colour name to a lipgloss colour. Hex values
// pass through; unknown names give NoColor.
func TerminalColour(name string) lipgloss.TerminalColor {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(name, "#") {
		return lipgloss.Color(name)
	}
	if c, ok := ansiColours[name]; ok {
		return lipgloss.Color(c)
	}
	return lipgloss.NoColor{}
}

// Renderer styles word-diff lines for a terminal.
type Renderer struct {
	out      io.Writer
	addition lipgloss.Style
	deletion lipgloss.Style
}

// New builds a Renderer writing to w. The colour profile is detected from
// w; use WithProfile to force one.
func New(w io.Writer, style highlight.Style) *Renderer {
	return newRenderer(w, lipgloss.NewRenderer(w), style)
}

// WithProfile builds a Renderer with a fixed colour profile, e.g.
// termenv.Ascii for plain output.
func WithProfile(w io.Writer, profile termenv.Profile, style highlight.Style) *Renderer {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(profile)
	return newRenderer(w, lr, style)
}

func newRenderer(w io.Writer, lr *lipgloss.Renderer, style highlight.Style) *Renderer {
	style = style.WithDefaults()
	return &Renderer{
		out:      w,
		addition: lr.NewStyle().Foreground(TerminalColour(style.Addition)).Bold(true),
		deletion: lr.NewStyle().Foreground(TerminalColour(style.Deletion)).Strikethrough(true),
	}
}

// Line renders a single word-diff line.
func (r *Renderer) Line(line string) string {
	var sb strings.Builder
	for _, seg := range highlight.Segments(line) {
		switch seg.Kind {
		case highlight.Addition:
			sb.WriteString(r.addition.Render(seg.Text))
		case highlight.Deletion:
			sb.WriteString(r.deletion.Render(seg.Text))
		default:
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// Write renders every line followed by a newline.
func (r *Renderer) Write(lines []string) error {
	bw := bufio.NewWriter(r.out)
	for _, line := range lines {
		if _, err := bw.WriteString(r.Line(line) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
