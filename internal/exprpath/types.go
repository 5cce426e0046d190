// internal/exprpath/types.go
package exprpath

// Segment is a single component of a path, e.g. `name` or `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewSegmentWithIndex creates a segment that includes an index.
func NewSegmentWithIndex(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Path is a parsed path expression.
type Path struct {
	Segments []Segment
}

// Head returns the first segment and the remaining path.
func (p Path) Head() (Segment, Path) {
	if len(p.Segments) == 0 {
		return Segment{Index: -1}, Path{}
	}
	return p.Segments[0], Path{Segments: p.Segments[1:]}
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.Segments)
}
