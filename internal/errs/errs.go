// Package errs defines the error taxonomy shared by blueprint construction,
// instantiation and parameter routing.
//
// Errors are *Error values carrying a Kind. Each kind has a sentinel so
// callers can match with errors.Is without inspecting messages:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
//
// Failures raised by user callables are never converted into an *Error.
package errs

import "fmt"

// Kind classifies a construction or routing failure.
type Kind int

const (
	// KindNaming means an item has no supplied or derivable name.
	KindNaming Kind = iota + 1
	// KindStructureConflict means a name is reused across node and sub-graph.
	KindStructureConflict
	// KindSelfReference means a blueprint was merged into itself.
	KindSelfReference
	// KindUnsupported means the item or operation shape is not supported.
	KindUnsupported
	// KindArity means pipelining was given fewer than two items.
	KindArity
	// KindParamSpec means a specific parameter entry has an unusable value type.
	KindParamSpec
	// KindNotFound means a child name does not exist.
	KindNotFound
	// KindCycle means the edges of a blueprint form a cycle.
	KindCycle
	// KindDecode means a parameter payload could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNaming:
		return "naming error"
	case KindStructureConflict:
		return "structure conflict"
	case KindSelfReference:
		return "self reference"
	case KindUnsupported:
		return "unsupported operation"
	case KindArity:
		return "arity error"
	case KindParamSpec:
		return "invalid parameter specification"
	case KindNotFound:
		return "not found"
	case KindCycle:
		return "cycle detected"
	case KindDecode:
		return "decode error"
	default:
		return "unknown error"
	}
}

// Error is a kinded failure. Op names the operation that failed and Name the
// item it was working on, both optional.
type Error struct {
	Kind Kind
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, which makes the sentinels below
// usable with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Name == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrNaming            = &Error{Kind: KindNaming}
	ErrStructureConflict = &Error{Kind: KindStructureConflict}
	ErrSelfReference     = &Error{Kind: KindSelfReference}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrArity             = &Error{Kind: KindArity}
	ErrParamSpec         = &Error{Kind: KindParamSpec}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrCycle             = &Error{Kind: KindCycle}
	ErrDecode            = &Error{Kind: KindDecode}
)

// New builds an *Error with a formatted cause.
func New(kind Kind, op, name, format string, a ...any) error {
	var cause error
	if format != "" {
		cause = fmt.Errorf(format, a...)
	}
	return &Error{Kind: kind, Op: op, Name: name, Err: cause}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, op, name string, err error) error {
	return &Error{Kind: kind, Op: op, Name: name, Err: err}
}
