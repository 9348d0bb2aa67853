// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment name. Dots are reserved as the separator.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidName reports whether name can be used as a path segment.
func ValidName(name string) bool {
	if name == "-" {
		return false
	}
	return segmentRegex.MatchString(name)
}

// Parse creates a Path from its canonical dotted representation. The empty
// string parses to the root path.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, nil
	}

	parts := strings.Split(raw, Separator)
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("path %q contains empty segment", raw)
		}
		if !ValidName(part) {
			return Path{}, fmt.Errorf("invalid path segment %q in %q", part, raw)
		}
	}

	return Path{segments: parts}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// literals in tests and package-level variables.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
