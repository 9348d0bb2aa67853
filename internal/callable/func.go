package callable

import "slices"

// Fn is the body of a Func. It receives its arguments already bound.
type Fn func(in Args) (any, error)

// Func pairs a function body with an explicitly declared signature.
type Func struct {
	sig Signature
	fn  Fn
}

// New creates a Func. An empty name makes the function anonymous, so it
// can only be stored in a blueprint under an explicit name.
//
// Example:
//
//	a := callable.New("a", func(in callable.Args) (any, error) {
//	    return in.Get("x").(int) * in.Get("y").(int), nil
//	}, callable.Arg("x"), callable.Opt("y", 5))
func New(name string, fn Fn, params ...Param) *Func {
	return &Func{
		sig: Signature{Name: name, Params: slices.Clone(params)},
		fn:  fn,
	}
}

// Signature returns the declared signature.
func (f *Func) Signature() Signature {
	return Signature{Name: f.sig.Name, Params: slices.Clone(f.sig.Params)}
}

// Call binds the arguments and invokes the body.
func (f *Func) Call(args []any, kwargs map[string]any) (any, error) {
	in, err := Bind(f.sig, args, kwargs)
	if err != nil {
		return nil, err
	}
	return f.fn(in)
}
