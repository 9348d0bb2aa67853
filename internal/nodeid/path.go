// internal/nodeid/path.go
package nodeid

import (
	"slices"
	"strings"
)

// Separator joins segments in the canonical string form of a path.
const Separator = "."

// Path is the structured address of a node or sub-graph. The zero value is
// the root path. A Path is never mutated after creation; every operation
// returns a new value.
type Path struct {
	segments []string
}

// New creates a path from the given segments. Segment names are not
// validated here, use Parse or ValidName for untrusted input.
func New(segments ...string) Path {
	if len(segments) == 0 {
		return Path{}
	}
	return Path{segments: slices.Clone(segments)}
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	return slices.Clone(p.segments)
}

// IsRoot reports whether p is the empty path.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Name returns the last segment, or "" for the root path.
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its last segment. The parent of the root
// is the root.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: slices.Clone(p.segments[:len(p.segments)-1])}
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	segs := make([]string, 0, len(p.segments)+1)
	segs = append(segs, p.segments...)
	return Path{segments: append(segs, name)}
}

// Join returns p followed by all segments of other. Rebasing a path under a
// prefix is prefix.Join(path).
func (p Path) Join(other Path) Path {
	if len(p.segments) == 0 {
		return other
	}
	if len(other.segments) == 0 {
		return p
	}
	segs := make([]string, 0, len(p.segments)+len(other.segments))
	segs = append(segs, p.segments...)
	return Path{segments: append(segs, other.segments...)}
}

// Equal checks whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.segments, other.segments)
}

// Key returns a comparable representation of the path, suitable for map keys.
// Two paths have the same key if and only if they are Equal.
func (p Path) Key() string {
	return strings.Join(p.segments, Separator)
}

// String serializes the path into its canonical dotted form.
func (p Path) String() string {
	return p.Key()
}
