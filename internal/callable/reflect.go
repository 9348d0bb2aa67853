package callable

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// closureRegex matches the symbol suffix the compiler gives to function
// literals, e.g. `TestX.func1` or `glob..func2.3`.
var closureRegex = regexp.MustCompile(`^func\d+$`)

// Reflected adapts an ordinary Go function or method value to Callable.
type Reflected struct {
	sig Signature
	fn  reflect.Value
	in  []reflect.Type
	// variadic is the element type of a trailing ...T parameter, or nil.
	variadic reflect.Type
}

// Reflect wraps fn, which must be a func value. Go does not keep parameter
// names at run time, so names must name every non-variadic parameter in
// order. A trailing variadic parameter becomes the positional collector.
//
// Supported results are (), (T), (error) and (T, error).
//
// The callable's name is derived from the function symbol: package-level
// functions and method values keep their own name, function literals are
// anonymous.
func Reflect(fn any, names ...string) (*Reflected, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("callable: expected a func, got %T", fn)
	}
	t := v.Type()

	fixed := t.NumIn()
	var variadic reflect.Type
	if t.IsVariadic() {
		fixed--
		variadic = t.In(fixed).Elem()
	}
	if len(names) != fixed {
		return nil, fmt.Errorf("callable: %s takes %d parameters but %d names were given", t, fixed, len(names))
	}

	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("callable: second result of %s must be error", t)
		}
	default:
		return nil, fmt.Errorf("callable: %s returns too many results", t)
	}

	r := &Reflected{
		fn:       v,
		variadic: variadic,
		sig:      Signature{Name: FuncName(fn)},
	}
	for i, name := range names {
		r.in = append(r.in, t.In(i))
		r.sig.Params = append(r.sig.Params, Arg(name))
	}
	if variadic != nil {
		r.sig.Params = append(r.sig.Params, Rest("args"))
	}
	return r, nil
}

// MustReflect is like Reflect but panics on error.
func MustReflect(fn any, names ...string) *Reflected {
	r, err := Reflect(fn, names...)
	if err != nil {
		panic(err)
	}
	return r
}

// Signature returns the signature recovered from the function type.
func (r *Reflected) Signature() Signature {
	return Signature{Name: r.sig.Name, Params: append([]Param(nil), r.sig.Params...)}
}

// Call binds the arguments, converts them to the parameter types and calls
// the function.
func (r *Reflected) Call(args []any, kwargs map[string]any) (any, error) {
	bound, err := Bind(r.sig, args, kwargs)
	if err != nil {
		return nil, err
	}

	in := make([]reflect.Value, 0, len(r.in)+len(bound.rest))
	for i, p := range r.sig.Names() {
		rv, err := convertArg(bound.values[p], r.in[i])
		if err != nil {
			return nil, &BindError{Callable: r.sig.Name, Reason: fmt.Sprintf("argument %q: %v", p, err)}
		}
		in = append(in, rv)
	}
	for i, v := range bound.rest {
		rv, err := convertArg(v, r.variadic)
		if err != nil {
			return nil, &BindError{Callable: r.sig.Name, Reason: fmt.Sprintf("variadic argument %d: %v", i, err)}
		}
		in = append(in, rv)
	}

	out := r.fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if r.fn.Type().Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// convertArg turns v into a value of type t. Assignable values pass through,
// numeric values are converted between numeric kinds.
func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return convertNumber(rv, t)
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

// convertNumber converts between numeric kinds only when the value survives
// unchanged. Fractions are not truncated and out-of-range values do not wrap.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	zero := reflect.Zero(t)
	switch {
	case rv.CanInt():
		i := rv.Int()
		switch {
		case zero.CanInt():
			if zero.OverflowInt(i) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", i, t)
			}
		case zero.CanUint():
			if i < 0 || zero.OverflowUint(uint64(i)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", i, t)
			}
		}
	case rv.CanUint():
		u := rv.Uint()
		switch {
		case zero.CanInt():
			if u > math.MaxInt64 || zero.OverflowInt(int64(u)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", u, t)
			}
		case zero.CanUint():
			if zero.OverflowUint(u) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", u, t)
			}
		}
	case rv.CanFloat():
		f := rv.Float()
		switch {
		case zero.CanFloat():
			if zero.OverflowFloat(f) {
				return reflect.Value{}, fmt.Errorf("%g overflows %s", f, t)
			}
		case f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f):
			return reflect.Value{}, fmt.Errorf("%g is not a whole number", f)
		case zero.CanInt():
			if f < math.MinInt64 || f >= math.MaxInt64 || zero.OverflowInt(int64(f)) {
				return reflect.Value{}, fmt.Errorf("%g overflows %s", f, t)
			}
		case zero.CanUint():
			if f < 0 || f >= math.MaxUint64 || zero.OverflowUint(uint64(f)) {
				return reflect.Value{}, fmt.Errorf("%g overflows %s", f, t)
			}
		}
	}
	return rv.Convert(t), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// FuncName derives a node name from a function's symbol. It returns "" for
// function literals and for values that are not functions.
//
//	pkg.a            -> a
//	pkg.(*T).plop-fm -> plop
//	pkg.TestX.func1  -> ""
//	pkg.Map[...]     -> Map
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	full := stripTypeArgs(f.Name())
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")

	parts := strings.Split(full, ".")
	// parts[0] is the package name.
	if len(parts) < 2 {
		return ""
	}
	for _, p := range parts[1:] {
		if closureRegex.MatchString(p) || p == "" {
			return ""
		}
	}
	return parts[len(parts)-1]
}

// stripTypeArgs removes the bracketed type arguments of generic symbols,
// which may themselves contain dots and slashes.
func stripTypeArgs(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
