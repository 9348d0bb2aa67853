package pipegraph_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/pipegraph"
)

func scale(x, y int) int         { return x * y }
func offset(value, fudge int) int { return value + fudge }

func combine(a, b, fudge int) pipegraph.Params {
	return pipegraph.P(a+b+fudge).With("tag", "pong")
}

func report(total int, tag string) string { return fmt.Sprintf("%d/%s", total, tag) }

// reportGraph wires scale -> offset, both into sub.combine, then
// sub.combine -> sub.out.report.
func reportGraph(t *testing.T) *pipegraph.Graph {
	t.Helper()
	g, err := pipegraph.New(
		pipegraph.MustReflect(scale, "x", "y"),
		pipegraph.MustReflect(offset, "value", "fudge"),
		pipegraph.Nested("sub", pipegraph.MustNew(
			pipegraph.MustReflect(combine, "a", "b", "fudge"),
			pipegraph.Nested("out", pipegraph.MustNew(pipegraph.MustReflect(report, "total", "tag"))),
		)),
	)
	require.NoError(t, err)
	require.NoError(t, g.Pipe("scale", "offset"))
	require.NoError(t, g.Join([]any{"scale", "offset"}, "sub.combine"))
	require.NoError(t, g.Pipe("sub.combine", "sub.out.report"))
	return g
}

const yamlPayload = `
scale: !params
  args: [5]
  kwargs: {y: 10}
offset: !params
  kwargs: {fudge: 10}
sub: !group
  combine: !params
    kwargs: {fudge: 20}
`

const hclPayload = `
node "scale" {
  args   = [5]
  kwargs = { y = 10 }
}

node "offset" {
  kwargs = { fudge = 10 }
}

group "sub" {
  node "combine" {
    kwargs = { fudge = 20 }
  }
}
`

func TestEndToEnd(t *testing.T) {
	decoders := []struct {
		name   string
		decode func() (pipegraph.Group, error)
	}{
		{"yaml", func() (pipegraph.Group, error) {
			return pipegraph.DecodeYAML(context.Background(), []byte(yamlPayload))
		}},
		{"hcl", func() (pipegraph.Group, error) {
			return pipegraph.DecodeHCL(context.Background(), []byte(hclPayload), "params.hcl")
		}},
	}

	for _, tc := range decoders {
		t.Run(tc.name, func(t *testing.T) {
			values, err := tc.decode()
			require.NoError(t, err)

			inst, err := reportGraph(t).Instantiate(values)
			require.NoError(t, err)

			out, err := inst.NodeAt("sub.out.report")
			require.NoError(t, err)

			got, err := out.Value()
			require.NoError(t, err)
			assert.Equal(t, "130/pong", got)

			require.NoError(t, inst.MustGroup("sub").Set(pipegraph.Group{"fudge": 30}))
			assert.True(t, out.Dirty())
			assert.False(t, inst.MustNode("scale").Dirty())

			got, err = out.Value()
			require.NoError(t, err)
			assert.Equal(t, "140/pong", got)
		})
	}
}

func TestEndToEndErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		g := pipegraph.MustNew(pipegraph.MustReflect(scale, "x", "y"), pipegraph.MustReflect(offset, "value", "fudge"))
		require.NoError(t, g.Pipe("scale", "offset"))
		require.NoError(t, g.Pipe("offset", "scale"))

		_, err := g.Instantiate(nil)
		assert.ErrorIs(t, err, pipegraph.ErrCycle)
	})

	t.Run("params for a group", func(t *testing.T) {
		inst, err := reportGraph(t).Instantiate(nil)
		require.NoError(t, err)

		err = inst.Set(pipegraph.Group{"sub": pipegraph.P(1)})
		assert.ErrorIs(t, err, pipegraph.ErrParamSpec)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := pipegraph.DecodeYAML(context.Background(), []byte("a: !weird 1"))
		assert.ErrorIs(t, err, pipegraph.ErrDecode)
	})

	t.Run("fractional payload value", func(t *testing.T) {
		values, err := pipegraph.DecodeYAML(context.Background(), []byte("scale: !params {args: [10], kwargs: {y: 2.9}}"))
		require.NoError(t, err)

		inst, err := reportGraph(t).Instantiate(values)
		require.NoError(t, err)

		_, err = inst.MustNode("scale").Value()
		var bindErr *pipegraph.BindError
		require.ErrorAs(t, err, &bindErr)
		assert.ErrorContains(t, err, "not a whole number")
	})

	t.Run("bind error", func(t *testing.T) {
		inst, err := reportGraph(t).Instantiate(nil)
		require.NoError(t, err)

		_, err = inst.MustNode("scale").Value()
		var bindErr *pipegraph.BindError
		assert.ErrorAs(t, err, &bindErr)
	})
}

func TestDecoderLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := pipegraph.ContextWithLogger(context.Background(), logger)

	_, err := pipegraph.DecodeYAML(ctx, []byte(yamlPayload))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "YAML parameters decoded.")
}
