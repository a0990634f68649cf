package syntax

import "fmt"

// Position is a point inside one source file. Line and Column are 1-based,
// Offset is the 0-based byte offset used to measure extents.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Before reports whether p sorts before q on (line, column).
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Location is a queried position. An empty File means the location is not
// attached to any file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("<synthetic>:%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Span is the source range a node occupies. A span without a file is
// synthetic.
type Span struct {
	File  string   `json:"file,omitempty"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Synthetic reports whether the span has no owning file.
func (s Span) Synthetic() bool {
	return s.File == ""
}

// Extent is the byte length of the span.
func (s Span) Extent() int {
	return s.End.Offset - s.Start.Offset
}

// Contains reports whether loc falls inside the span. Both ends are
// inclusive. A synthetic span never contains a location that has a file and a
// span with a file never contains a location without one.
func (s Span) Contains(loc Location) bool {
	if s.File != loc.File {
		return false
	}
	pos := Position{Line: loc.Line, Column: loc.Column}
	if pos.Before(s.Start) {
		return false
	}
	if s.End.Before(pos) {
		return false
	}
	return true
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.File, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}
