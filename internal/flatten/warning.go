package flatten

import "fmt"

// WarningKind classifies a markup problem found while flattening.
type WarningKind int

const (
	// MissingBegin: no begin marker, the whole input is treated as body.
	MissingBegin WarningKind = iota
	// DuplicateBegin: more than one begin marker; only text after the last one survives.
	DuplicateBegin
	// MissingEnd: input ended without an end marker.
	MissingEnd
	// DroppedContent: trailing lines were discarded because no end marker closed them.
	DroppedContent
)

func (k WarningKind) String() string {
	switch k {
	case MissingBegin:
		return "missing-begin"
	case DuplicateBegin:
		return "duplicate-begin"
	case MissingEnd:
		return "missing-end"
	case DroppedContent:
		return "dropped-content"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning describes malformed body markup. Count is the number of begin
// markers for DuplicateBegin and the number of dropped lines for
// DroppedContent; Line is the last line read.
type Warning struct {
	Kind   WarningKind
	Marker string
	Count  int
	Line   int
}

func (w Warning) String() string {
	switch w.Kind {
	case MissingBegin:
		return fmt.Sprintf("no %s marker found", w.Marker)
	case DuplicateBegin:
		return fmt.Sprintf("%s appears %d times, earlier content discarded", w.Marker, w.Count)
	case MissingEnd:
		return fmt.Sprintf("no %s marker found", w.Marker)
	case DroppedContent:
		return fmt.Sprintf("%d trailing line(s) dropped at line %d: paragraph never closed", w.Count, w.Line)
	default:
		return w.Kind.String()
	}
}
