// Package pipegraph builds pipelines of functions as graphs and evaluates
// them lazily.
//
// A Graph is a blueprint: named nodes, each wrapping a Callable with default
// arguments, nested sub-graphs and the edges between them. Instantiating a
// blueprint yields an Instance whose nodes cache their outputs and recompute
// only after their parameters, or those of something upstream, change.
//
//	g := pipegraph.MustNew(load, clean)
//	if err := g.Pipe("load", "clean"); err != nil { ... }
//
//	inst, err := g.Instantiate(pipegraph.Group{
//		"load": pipegraph.P("data.csv"),
//	})
//	out, err := inst.MustNode("clean").Value()
//
// Parameter payloads can also be read from HCL or YAML with DecodeHCL and
// DecodeYAML.
package pipegraph

import (
	"context"
	"log/slog"

	"github.com/specialistvlad/pipegraph/internal/blueprint"
	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/paramfile"
	"github.com/specialistvlad/pipegraph/internal/params"
	"github.com/specialistvlad/pipegraph/internal/runtime"
)

// Blueprint types.
type (
	Graph    = blueprint.Graph
	SubGraph = blueprint.SubGraph
	NodeDef  = blueprint.NodeDef
	EdgeRef  = blueprint.EdgeRef
	Edge     = blueprint.Edge
	Link     = blueprint.Link
	Named    = blueprint.Named
	Partial  = blueprint.Partial
	Path     = nodeid.Path
)

// Parameter containers.
type (
	Params = params.Params
	Group  = params.Group
)

// Runtime types.
type (
	Instance      = runtime.Instance
	NodeState     = runtime.NodeState
	NodeGroup     = runtime.NodeGroup
	Config        = runtime.Config
	Option        = runtime.Option
	BroadcastMode = runtime.BroadcastMode
)

// Callable types.
type (
	Callable  = callable.Callable
	Signature = callable.Signature
	Param     = callable.Param
	Args      = callable.Args
	Fn        = callable.Fn
	Func      = callable.Func
	Reflected = callable.Reflected
	BindError = callable.BindError
)

// Error is the kinded error returned by blueprint construction,
// instantiation, parameter routing and payload decoding.
type Error = errs.Error

// Sentinels for errors.Is.
var (
	ErrNaming            = errs.ErrNaming
	ErrStructureConflict = errs.ErrStructureConflict
	ErrSelfReference     = errs.ErrSelfReference
	ErrUnsupported       = errs.ErrUnsupported
	ErrArity             = errs.ErrArity
	ErrParamSpec         = errs.ErrParamSpec
	ErrNotFound          = errs.ErrNotFound
	ErrCycle             = errs.ErrCycle
	ErrDecode            = errs.ErrDecode
)

const (
	BroadcastAccepting = runtime.BroadcastAccepting
	BroadcastInputs    = runtime.BroadcastInputs
)

// New builds a blueprint from items. See Graph.Add for the accepted items.
func New(items ...any) (*Graph, error) { return blueprint.New(items...) }

// MustNew is like New but panics on error.
func MustNew(items ...any) *Graph { return blueprint.MustNew(items...) }

// Pipe builds a blueprint holding items chained in order.
func Pipe(items ...any) (*Graph, error) { return blueprint.Pipe(items...) }

// Node names a callable explicitly.
func Node(c Callable, name string) Named { return blueprint.Node(c, name) }

// Nested stores g as a sub-graph called name.
func Nested(name string, g *Graph) Named { return blueprint.Nested(name, g) }

// Bind attaches default arguments to a callable.
func Bind(c Callable, p Params) Partial { return blueprint.Bind(c, p) }

// NewFunc wraps fn with a declared signature.
func NewFunc(name string, fn Fn, ps ...Param) *Func { return callable.New(name, fn, ps...) }

// Reflect wraps an ordinary Go function or method value.
func Reflect(fn any, names ...string) (*Reflected, error) { return callable.Reflect(fn, names...) }

// MustReflect is like Reflect but panics on error.
func MustReflect(fn any, names ...string) *Reflected { return callable.MustReflect(fn, names...) }

// Signature parameters for NewFunc.
var (
	Arg   = callable.Arg
	Opt   = callable.Opt
	Rest  = callable.Rest
	Extra = callable.Extra
)

// P builds a Params from positional values.
func P(args ...any) Params { return params.P(args...) }

// Kw builds a Params holding a single keyword argument.
func Kw(name string, value any) Params { return params.Kw(name, value) }

// Instance options.
var (
	WithLogger    = runtime.WithLogger
	WithLogOutput = runtime.WithLogOutput
	WithBroadcast = runtime.WithBroadcast
)

// ContextWithLogger attaches a logger used by the payload decoders.
func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return ctxlog.WithLogger(ctx, l)
}

// DecodeHCL reads a parameter payload written in HCL.
func DecodeHCL(ctx context.Context, src []byte, filename string) (Group, error) {
	return paramfile.DecodeHCL(ctx, src, filename)
}

// DecodeYAML reads a parameter payload written in YAML.
func DecodeYAML(ctx context.Context, src []byte) (Group, error) {
	return paramfile.DecodeYAML(ctx, src)
}
