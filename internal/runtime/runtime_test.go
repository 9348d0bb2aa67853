package runtime_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/pipegraph/internal/blueprint"
	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
	"github.com/specialistvlad/pipegraph/internal/runtime"
)

var (
	fnA = callable.New("a", func(in callable.Args) (any, error) {
		return in.Get("x").(int) * in.Get("y").(int), nil
	}, callable.Arg("x"), callable.Opt("y", 5))

	fnB = callable.New("b", func(in callable.Args) (any, error) {
		return in.Get("value").(int) + in.Get("fudge").(int), nil
	}, callable.Arg("value"), callable.Arg("fudge"))

	fnC = callable.New("c", func(in callable.Args) (any, error) {
		total := in.Get("val_a").(int) + in.Get("val_b").(int) + in.Get("fudge").(int)
		return params.P(total, 1, 2).With("ping", "pong"), nil
	}, callable.Arg("val_a"), callable.Arg("val_b"), callable.Arg("fudge"))

	fnD = callable.New("d", func(in callable.Args) (any, error) {
		total := in.Get("x1").(int) + in.Get("x2").(int) + in.Get("x3").(int)
		ping := in.Get("ping_override")
		if ping == nil {
			ping = in.Get("ping")
		}
		return []any{total, ping}, nil
	}, callable.Arg("x1"), callable.Arg("x2"), callable.Arg("x3"), callable.Opt("ping", nil), callable.Opt("ping_override", nil))
)

func instantiate(t *testing.T, g *blueprint.Graph, values params.Group, opts ...runtime.Option) *runtime.Instance {
	t.Helper()
	inst, err := g.Instantiate(values, opts...)
	require.NoError(t, err)
	return inst
}

func requireValue(t *testing.T, want any, n *runtime.NodeState) {
	t.Helper()
	got, err := n.Value()
	require.NoError(t, err)
	assert.Equal(t, want, got, "value of %s", n.Path())
}

func node(t *testing.T, g *runtime.NodeGroup, path string) *runtime.NodeState {
	t.Helper()
	n, err := g.NodeAt(path)
	require.NoError(t, err)
	return n
}

func TestEvalNode(t *testing.T) {
	g := blueprint.MustNew(blueprint.Node(callable.MustReflect(func() int { return 5 }), "thunked_const"))
	inst := instantiate(t, g, nil)
	n := inst.MustNode("thunked_const")

	got, err := n.Call()
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	requireValue(t, 5, n)
}

func TestEvalNodeMemoized(t *testing.T) {
	counter := 0
	next := callable.MustReflect(func() int {
		v := counter
		counter++
		return v
	})
	inst := instantiate(t, blueprint.MustNew(blueprint.Node(next, "accumulator")), nil)
	n := inst.MustNode("accumulator")

	// Direct calls never touch the cache.
	got, err := n.Call()
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	got, err = n.Call()
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	requireValue(t, 2, n)
	requireValue(t, 2, n)
	requireValue(t, 2, n)
	assert.False(t, n.Dirty())
}

type scaler struct{ y int }

func (s *scaler) plop(x int) int { return x * s.y }

func TestEvalMethodValue(t *testing.T) {
	g := blueprint.MustNew(callable.MustReflect((&scaler{y: 10}).plop, "x"))
	inst := instantiate(t, g, params.Group{"plop": params.P(5)})

	requireValue(t, 50, inst.MustNode("plop"))
}

func TestEvalNodeOverrideParams(t *testing.T) {
	inst := instantiate(t, blueprint.MustNew(blueprint.Bind(fnA, params.P(5).With("y", 10))), nil)
	a := inst.MustNode("a")

	requireValue(t, 50, a)

	testCases := []struct {
		name string
		in   params.Params
		want int
	}{
		{name: "positional only", in: params.P(5), want: 25},
		{name: "two positionals", in: params.P(5, 6), want: 30},
		{name: "keyword", in: params.P(5).With("y", 7), want: 35},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.CallWith(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	got, err := a.Call(5)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	// Direct calls leave the cached value alone.
	requireValue(t, 50, a)
}

func TestNodeSetAndUpdate(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		inst := instantiate(t, blueprint.MustNew(blueprint.Bind(fnA, params.P(5).With("y", 10))), nil)
		a := inst.MustNode("a")

		requireValue(t, 50, a)
		a.Set(params.P(10).With("y", 10))
		assert.True(t, a.Dirty())
		requireValue(t, 100, a)
	})

	t.Run("update keeps positionals", func(t *testing.T) {
		inst := instantiate(t, blueprint.MustNew(blueprint.Bind(fnA, params.P(5).With("y", 10))), nil)
		a := inst.MustNode("a")

		requireValue(t, 50, a)
		a.Update(map[string]any{"y": 7})
		requireValue(t, 35, a)
		assert.Equal(t, []any{5}, a.Args())
	})

	t.Run("keywords the callable rejects are dropped", func(t *testing.T) {
		inst := instantiate(t, blueprint.MustNew(fnA), nil)
		a := inst.MustNode("a")

		a.Set(params.P(2).With("y", 3).With("bogus", 1))
		assert.Equal(t, map[string]any{"y": 3}, a.Kwargs())
		requireValue(t, 6, a)

		a.Update(map[string]any{"bogus": 2})
		assert.Equal(t, map[string]any{"y": 3}, a.Kwargs())
	})
}

func TestSetInvalidatesDownstream(t *testing.T) {
	g, err := blueprint.Pipe(blueprint.Bind(fnA, params.P(5)), blueprint.Bind(fnB, params.P().With("fudge", 10)))
	require.NoError(t, err)
	inst := instantiate(t, g, nil)

	b := inst.MustNode("b")
	requireValue(t, 35, b)

	inst.MustNode("a").Set(params.P(5).With("y", 10))
	assert.True(t, b.Dirty())
	requireValue(t, 60, b)
}

// nestGraph is a, b and sub-graphs sub (c) and sub.sub (d) wired as
// a -> b, a -> sub.c, b -> sub.c, sub.c -> sub.sub.d.
func nestGraph(t *testing.T) *blueprint.Graph {
	t.Helper()
	g := blueprint.MustNew(fnA, fnB, blueprint.Nested("sub", blueprint.MustNew(fnC, blueprint.Nested("sub", blueprint.MustNew(fnD)))))
	require.NoError(t, g.Pipe("a", "b"))
	require.NoError(t, g.Join([]any{"a", "b"}, "sub.c"))
	require.NoError(t, g.Pipe("sub.c", "sub.sub.d"))
	return g
}

func TestGraphSetTargetParams(t *testing.T) {
	inst := instantiate(t, nestGraph(t), params.Group{
		"a":   params.P(5).With("y", 10),
		"b":   params.P().With("fudge", 10),
		"sub": params.Group{"c": params.P().With("fudge", 20)},
	})

	d := node(t, inst.NodeGroup, "sub.sub.d")
	c := node(t, inst.NodeGroup, "sub.c")
	a, b := inst.MustNode("a"), inst.MustNode("b")

	requireValue(t, []any{133, "pong"}, d)
	requireValue(t, params.P(130, 1, 2).With("ping", "pong"), c)
	requireValue(t, 60, b)
	requireValue(t, 50, a)

	require.NoError(t, inst.Set(params.Group{
		"a": params.P(6, 10),
		"b": params.P().With("fudge", 20),
	}))

	requireValue(t, []any{163, "pong"}, d)
	requireValue(t, params.P(160, 1, 2).With("ping", "pong"), c)
	requireValue(t, 80, b)
	requireValue(t, 60, a)

	require.NoError(t, inst.MustGroup("sub").Set(params.Group{
		"fudge": 30,
		"sub":   params.Group{"d": params.P().With("ping_override", "ping")},
	}))

	requireValue(t, []any{173, "ping"}, d)
	requireValue(t, params.P(170, 1, 2).With("ping", "pong"), c)
	requireValue(t, 80, b)
	requireValue(t, 60, a)

	// The global value reached c but not d, whose signature rejects it.
	assert.Equal(t, map[string]any{"fudge": 30}, c.Kwargs())
	assert.Equal(t, map[string]any{"ping_override": "ping"}, d.Kwargs())
}

func globalKwargsGraph(t *testing.T) *blueprint.Graph {
	t.Helper()
	x := callable.New("", func(in callable.Args) (any, error) {
		return in.Get("data").(int) + in.Get("fudge").(int), nil
	}, callable.Arg("data"), callable.Arg("fudge"))
	y := callable.New("y_func", func(in callable.Args) (any, error) {
		return in.Get("data").(int) + in.Get("fudge").(int), nil
	}, callable.Arg("data"), callable.Opt("fudge", 20))

	g, err := blueprint.Pipe(blueprint.Node(x, "x"), blueprint.Node(y, "y"))
	require.NoError(t, err)
	return g
}

func TestGraphSetGlobalParams(t *testing.T) {
	values := params.Group{"fudge": 10, "x": params.P().With("data", 10)}

	t.Run("every accepting node", func(t *testing.T) {
		inst := instantiate(t, globalKwargsGraph(t), values)
		requireValue(t, 20, inst.MustNode("x"))
		requireValue(t, 30, inst.MustNode("y"))
	})

	t.Run("input nodes only", func(t *testing.T) {
		inst := instantiate(t, globalKwargsGraph(t), values, runtime.WithBroadcast(runtime.BroadcastInputs))
		requireValue(t, 20, inst.MustNode("x"))
		requireValue(t, 40, inst.MustNode("y"))
	})
}

func TestGlobalParamsReachKeywordCollectors(t *testing.T) {
	collect := callable.New("collect", func(in callable.Args) (any, error) {
		return in.Extra(), nil
	}, callable.Extra("kwargs"))
	strict := callable.New("strict", func(in callable.Args) (any, error) {
		return in.Get("known"), nil
	}, callable.Opt("known", nil))

	g := blueprint.MustNew(collect, blueprint.Nested("sub", blueprint.MustNew(strict)))
	inst := instantiate(t, g, params.Group{"known": 1, "other": 2})

	requireValue(t, map[string]any{"known": 1, "other": 2}, inst.MustNode("collect"))
	requireValue(t, 1, node(t, inst.NodeGroup, "sub.strict"))

	// Globals merge without clearing what is already stored.
	require.NoError(t, inst.Set(params.Group{"third": 3}))
	requireValue(t, map[string]any{"known": 1, "other": 2, "third": 3}, inst.MustNode("collect"))
}

func TestSpecificValuesWinOverGlobals(t *testing.T) {
	inst := instantiate(t, blueprint.MustNew(fnB), params.Group{
		"fudge": 1,
		"b":     params.P(10).With("fudge", 5),
	})
	requireValue(t, 15, inst.MustNode("b"))

	// Outer globals are carried into nested groups underneath their own.
	g := blueprint.MustNew(blueprint.Nested("sub", blueprint.MustNew(fnB)))
	inst = instantiate(t, g, params.Group{
		"fudge": 1,
		"sub":   params.Group{"b": params.P(10)},
	})
	requireValue(t, 11, node(t, inst.NodeGroup, "sub.b"))

	inst = instantiate(t, g, params.Group{
		"fudge": 1,
		"sub":   params.Group{"fudge": 2, "b": params.P(10)},
	})
	requireValue(t, 12, node(t, inst.NodeGroup, "sub.b"))
}

func TestSetRejectsBadPayloads(t *testing.T) {
	testCases := []struct {
		name   string
		values params.Group
	}{
		{name: "plain value for a node", values: params.Group{"a": 5}},
		{name: "params for a group", values: params.Group{"sub": params.P()}},
		{name: "group for a node", values: params.Group{"a": params.Group{}}},
		{name: "nested plain value", values: params.Group{"sub": params.Group{"c": "nope"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst := instantiate(t, nestGraph(t), params.Group{"a": params.P(1)})
			a := inst.MustNode("a")
			requireValue(t, 5, a)

			// A valid entry alongside the bad one must not be applied.
			tc.values["b"] = params.P(100)
			err := inst.Set(tc.values)
			assert.ErrorIs(t, err, errs.ErrParamSpec)

			assert.False(t, a.Dirty())
			assert.Empty(t, inst.MustNode("b").Args())
		})
	}

	_, err := nestGraph(t).Instantiate(params.Group{"a": 5})
	assert.ErrorIs(t, err, errs.ErrParamSpec)
}

func TestSetAcceptsPlainMapsAndPointers(t *testing.T) {
	p := params.P(5).With("fudge", 1)
	g := blueprint.MustNew(fnA, blueprint.Nested("sub", blueprint.MustNew(fnB)))
	inst := instantiate(t, g, params.Group{
		"a":   &p,
		"sub": map[string]any{"b": params.P(3)},
	})

	requireValue(t, 25, inst.MustNode("a"))
	assert.Equal(t, []any{3}, node(t, inst.NodeGroup, "sub.b").Args())
}

var errBoom = errors.New("boom")

func TestEvaluationErrors(t *testing.T) {
	fail := true
	flaky := callable.New("flaky", func(in callable.Args) (any, error) {
		if fail {
			return nil, errBoom
		}
		return in.Get("v"), nil
	}, callable.Opt("v", 1))

	g, err := blueprint.Pipe(flaky, fnB)
	require.NoError(t, err)
	inst := instantiate(t, g, params.Group{"fudge": 1})
	b := inst.MustNode("b")

	_, err = b.Value()
	assert.Same(t, errBoom, err)
	assert.True(t, b.Dirty())
	assert.True(t, inst.MustNode("flaky").Dirty())

	fail = false
	requireValue(t, 2, b)

	// Binding failures come back from the callable unchanged.
	_, err = inst.MustNode("b").Call(1, 2, 3)
	var bindErr *callable.BindError
	assert.ErrorAs(t, err, &bindErr)
}

func TestParamTargetEdges(t *testing.T) {
	g := blueprint.MustNew(blueprint.Bind(fnA, params.P(2)), fnB)
	require.NoError(t, g.Pipe("a", g.MustNode("b").Param("fudge")))
	inst := instantiate(t, g, params.Group{"b": params.P(1)})

	requireValue(t, 11, inst.MustNode("b"))
}

func TestCallerKeywordsOverrideUpstream(t *testing.T) {
	g := blueprint.MustNew(blueprint.Bind(fnC, params.P(1, 2, 3)), fnD)
	require.NoError(t, g.Pipe("c", "d"))
	inst := instantiate(t, g, nil)
	d := inst.MustNode("d")

	requireValue(t, []any{9, "pong"}, d)

	got, err := d.CallWith(params.Params{Kwargs: map[string]any{"ping": "direct"}})
	require.NoError(t, err)
	assert.Equal(t, []any{9, "direct"}, got)
}

func TestDiamondLatticeInvalidation(t *testing.T) {
	const depth = 48
	calls := map[string]int{}

	top := func(name string) callable.Callable {
		return callable.New(name, func(in callable.Args) (any, error) {
			calls[name]++
			return in.Get("v"), nil
		}, callable.Opt("v", 1))
	}
	sum := func(name string) callable.Callable {
		return callable.New(name, func(in callable.Args) (any, error) {
			calls[name]++
			total := 0
			for _, v := range in.Rest() {
				total += v.(int)
			}
			return total, nil
		}, callable.Rest("in"))
	}

	g := blueprint.MustNew(top("l0_0"), top("l0_1"))
	for i := 1; i < depth; i++ {
		for j := 0; j < 2; j++ {
			name := fmt.Sprintf("l%d_%d", i, j)
			require.NoError(t, g.Add(sum(name)))
			require.NoError(t, g.Join([]any{fmt.Sprintf("l%d_0", i-1), fmt.Sprintf("l%d_1", i-1)}, name))
		}
	}

	inst := instantiate(t, g, nil)
	bottom := inst.MustNode(fmt.Sprintf("l%d_0", depth-1))

	requireValue(t, 1<<(depth-1), bottom)
	for name, n := range calls {
		assert.Equal(t, 1, n, name)
	}

	// Every node below the changed one is reached once per path, but each
	// is recomputed only once.
	inst.MustNode("l0_0").Set(params.P(2))
	requireValue(t, 3<<(depth-2), bottom)
	for name, n := range calls {
		if name == "l0_1" {
			assert.Equal(t, 1, n, name)
			continue
		}
		assert.Equal(t, 2, n, name)
	}
}

func TestInstantiateRejectsCycles(t *testing.T) {
	g := blueprint.MustNew(fnA, fnB)
	require.NoError(t, g.Pipe("a", "b", "a"))

	_, err := g.Instantiate(nil)
	assert.ErrorIs(t, err, errs.ErrCycle)
}

func TestInstancesAreIndependent(t *testing.T) {
	g := blueprint.MustNew(blueprint.Bind(fnA, params.P(5)))
	first := instantiate(t, g, nil)
	second := instantiate(t, g, nil)
	assert.NotEqual(t, first.ID(), second.ID())

	first.MustNode("a").Set(params.P(1))
	requireValue(t, 5, first.MustNode("a"))
	requireValue(t, 25, second.MustNode("a"))

	// Overriding the blueprint does not reach existing instances.
	require.NoError(t, g.Set("a", blueprint.Bind(fnA, params.P(100))))
	requireValue(t, 25, second.MustNode("a"))
	requireValue(t, 500, instantiate(t, g, nil).MustNode("a"))
}

func TestLookup(t *testing.T) {
	inst := instantiate(t, nestGraph(t), nil)

	assert.Equal(t, []string{"a", "b", "sub"}, inst.Names())

	item, err := inst.Get("sub")
	require.NoError(t, err)
	assert.IsType(t, &runtime.NodeGroup{}, item)

	sub, err := inst.GroupAt("sub.sub")
	require.NoError(t, err)
	assert.Equal(t, "sub.sub", sub.Path().String())

	d, ok := inst.Lookup(nodeid.MustParse("sub.sub.d"))
	require.True(t, ok)
	assert.Same(t, d, node(t, inst.NodeGroup, "sub.sub.d"))
	assert.Same(t, d, sub.MustNode("d"))
	assert.Equal(t, "d", d.Name())

	var paths []string
	for _, n := range inst.Nodes() {
		paths = append(paths, n.Path().String())
	}
	assert.Equal(t, []string{"a", "b", "sub.c", "sub.sub.d"}, paths)
	assert.Len(t, inst.MustGroup("sub").Leaves(), 2)

	assert.True(t, inst.MustNode("a").IsInput())
	assert.False(t, d.IsInput())

	_, err = inst.Get("zzz")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = inst.NodeAt("sub.zzz.d")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = inst.Group("a")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = inst.NodeAt("bad..path")
	assert.ErrorIs(t, err, errs.ErrNaming)
}

func TestInstanceLogging(t *testing.T) {
	var buf bytes.Buffer
	inst := instantiate(t, blueprint.MustNew(blueprint.Bind(fnA, params.P(5))), nil,
		runtime.WithLogOutput(&buf, "debug", "text"))

	requireValue(t, 25, inst.MustNode("a"))

	out := buf.String()
	assert.Contains(t, out, "instance="+inst.ID())
	assert.Contains(t, out, `msg="Instance built."`)
	assert.Contains(t, out, `msg="Recomputing node." instance=`+inst.ID()+" path=a")
}
