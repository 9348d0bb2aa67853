// internal/nodeid/path_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_String(t *testing.T) {
	testCases := []struct {
		name        string
		path        Path
		expectedStr string
	}{
		{name: "root", path: Path{}, expectedStr: ""},
		{name: "single segment", path: New("a"), expectedStr: "a"},
		{name: "nested", path: New("nested", "nested", "a"), expectedStr: "nested.nested.a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.path.String())
			assert.Equal(t, tc.expectedStr, tc.path.Key())
		})
	}
}

func TestPath_RoundTrip(t *testing.T) {
	for _, raw := range []string{"a", "sub.c", "sub.sub.d", "http-client.get_0"} {
		t.Run(raw, func(t *testing.T) {
			p, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, p.String())

			again, err := Parse(p.String())
			require.NoError(t, err)
			assert.True(t, p.Equal(again))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "empty segment", raw: "a..b"},
		{name: "trailing separator", raw: "a."},
		{name: "bad characters", raw: "a.b c"},
		{name: "bare dash", raw: "a.-"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			assert.Error(t, err)
		})
	}

	root, err := Parse("")
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
}

func TestPath_Join(t *testing.T) {
	prefix := New("nested")
	inner := New("nested", "a")

	joined := prefix.Join(inner)
	assert.Equal(t, []string{"nested", "nested", "a"}, joined.Segments())

	// Joining with the root is the identity on both sides.
	assert.True(t, Path{}.Join(inner).Equal(inner))
	assert.True(t, inner.Join(Path{}).Equal(inner))
}

func TestPath_Immutable(t *testing.T) {
	base := New("a", "b")
	c1 := base.Child("c")
	c2 := base.Child("d")

	assert.Equal(t, "a.b.c", c1.String())
	assert.Equal(t, "a.b.d", c2.String())
	assert.Equal(t, "a.b", base.String())

	segs := base.Segments()
	segs[0] = "mutated"
	assert.Equal(t, "a.b", base.String())
}

func TestPath_Accessors(t *testing.T) {
	p := MustParse("sub.sub.d")

	assert.Equal(t, "d", p.Name())
	assert.Len(t, p.Segments(), 3)
	assert.Equal(t, "sub.sub", p.Parent().String())
	assert.True(t, New("a").Parent().IsRoot())
	assert.Equal(t, "", Path{}.Name())
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("thunked_const"))
	assert.True(t, ValidName("node-1"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("a.b"))
	assert.False(t, ValidName("-"))
}
