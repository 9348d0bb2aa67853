// Package callable defines the contract between the engine and the user
// functions bound to nodes.
//
// The engine never inspects a function's behaviour. It only needs the
// declared signature: positional parameter names in order, and whether the
// function collects surplus positional or keyword arguments. Any type that
// can report a Signature and accept a call with positional and keyword
// arguments can be bound to a node.
package callable

import "slices"

// ParamKind distinguishes declared parameters from catch-all collectors.
type ParamKind int

const (
	// Positional is a named parameter that can be filled by position or keyword.
	Positional ParamKind = iota
	// VarPositional collects surplus positional arguments.
	VarPositional
	// VarKeyword collects keyword arguments that name no declared parameter.
	VarKeyword
)

// Param describes one parameter of a signature.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Arg declares a required positional parameter.
func Arg(name string) Param {
	return Param{Name: name, Kind: Positional}
}

// Opt declares a positional parameter with a default value.
func Opt(name string, def any) Param {
	return Param{Name: name, Kind: Positional, Default: def, HasDefault: true}
}

// Rest declares the surplus positional collector.
func Rest(name string) Param {
	return Param{Name: name, Kind: VarPositional}
}

// Extra declares the surplus keyword collector.
func Extra(name string) Param {
	return Param{Name: name, Kind: VarKeyword}
}

// Signature is the reflection metadata the engine needs from a callable.
// Name is the callable's own declared name, empty when it is anonymous.
type Signature struct {
	Name   string
	Params []Param
}

// Names returns the declared positional parameter names in order.
func (s Signature) Names() []string {
	names := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Kind == Positional {
			names = append(names, p.Name)
		}
	}
	return names
}

// Declares reports whether name is a declared positional parameter.
func (s Signature) Declares(name string) bool {
	return slices.ContainsFunc(s.Params, func(p Param) bool {
		return p.Kind == Positional && p.Name == name
	})
}

// HasVarArgs reports whether surplus positional arguments are accepted.
func (s Signature) HasVarArgs() bool {
	return slices.ContainsFunc(s.Params, func(p Param) bool { return p.Kind == VarPositional })
}

// HasVarKwargs reports whether arbitrary keyword arguments are accepted.
func (s Signature) HasVarKwargs() bool {
	return slices.ContainsFunc(s.Params, func(p Param) bool { return p.Kind == VarKeyword })
}

// Accepts reports whether a keyword argument called name can be passed to a
// callable with this signature.
func (s Signature) Accepts(name string) bool {
	return s.HasVarKwargs() || s.Declares(name)
}

// Callable is anything that can be bound to a node.
//
// Call receives the fully assembled positional and keyword arguments. Errors
// returned by Call are propagated by the engine untouched.
type Callable interface {
	Signature() Signature
	Call(args []any, kwargs map[string]any) (any, error)
}
