package callable

import (
	"fmt"
	"maps"
	"slices"
)

// BindError reports arguments that do not fit a signature. It is the
// equivalent of calling a function with the wrong arguments and is returned
// from Call like any other failure of the callable.
type BindError struct {
	Callable string
	Reason   string
}

func (e *BindError) Error() string {
	name := e.Callable
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s(): %s", name, e.Reason)
}

// Args holds the arguments of one invocation after binding them to a signature.
type Args struct {
	values map[string]any
	rest   []any
	extra  map[string]any
}

// Get returns the value bound to a declared parameter, or nil.
func (a Args) Get(name string) any {
	return a.values[name]
}

// Lookup returns the value bound to a declared parameter and whether it was bound.
func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Rest returns the surplus positional arguments.
func (a Args) Rest() []any {
	return slices.Clone(a.rest)
}

// Extra returns the surplus keyword arguments.
func (a Args) Extra() map[string]any {
	return maps.Clone(a.extra)
}

// Value returns the argument called name converted to T.
func Value[T any](a Args, name string) (T, error) {
	var zero T
	v, ok := a.values[name]
	if !ok {
		return zero, fmt.Errorf("argument %q not bound", name)
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("argument %q has wrong type (got %T, want %T)", name, v, zero)
	}
	return typed, nil
}

// Bind matches positional and keyword arguments against sig the way a
// function call does: positionals fill declared parameters in order, keywords
// fill by name, defaults fill the rest, and collectors take any surplus.
func Bind(sig Signature, args []any, kwargs map[string]any) (Args, error) {
	declared := sig.Names()
	in := Args{values: make(map[string]any, len(declared))}

	for i, v := range args {
		if i < len(declared) {
			in.values[declared[i]] = v
			continue
		}
		if !sig.HasVarArgs() {
			return Args{}, &BindError{
				Callable: sig.Name,
				Reason:   fmt.Sprintf("takes %d positional arguments but %d were given", len(declared), len(args)),
			}
		}
		in.rest = append(in.rest, v)
	}

	// Sorted so that the reported error is deterministic.
	for _, k := range slices.Sorted(maps.Keys(kwargs)) {
		v := kwargs[k]
		if sig.Declares(k) {
			if _, dup := in.values[k]; dup {
				return Args{}, &BindError{Callable: sig.Name, Reason: fmt.Sprintf("got multiple values for argument %q", k)}
			}
			in.values[k] = v
			continue
		}
		if !sig.HasVarKwargs() {
			return Args{}, &BindError{Callable: sig.Name, Reason: fmt.Sprintf("got an unexpected keyword argument %q", k)}
		}
		if in.extra == nil {
			in.extra = make(map[string]any)
		}
		in.extra[k] = v
	}

	for _, p := range sig.Params {
		if p.Kind != Positional {
			continue
		}
		if _, ok := in.values[p.Name]; ok {
			continue
		}
		if !p.HasDefault {
			return Args{}, &BindError{Callable: sig.Name, Reason: fmt.Sprintf("missing required argument %q", p.Name)}
		}
		in.values[p.Name] = p.Default
	}

	return in, nil
}
