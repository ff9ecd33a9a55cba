package plain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *int
	zero := 0

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "nil", value: nil, want: true},
		{name: "nil map", value: nilMap, want: true},
		{name: "nil pointer", value: nilPtr, want: true},
		{name: "zero int", value: 0, want: false},
		{name: "empty string", value: "", want: false},
		{name: "false", value: false, want: false},
		{name: "pointer to zero", value: &zero, want: false},
		{name: "empty map", value: map[string]any{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsEmpty(tt.value))
		})
	}
}

func TestIsUndefined(t *testing.T) {
	var nilMap map[string]any
	var nilSlice []string
	var nilPtr *int

	require.True(t, IsUndefined(nil))
	require.True(t, IsUndefined(nilPtr))
	require.False(t, IsUndefined(nilMap))
	require.False(t, IsUndefined(nilSlice))
	require.False(t, IsUndefined(0))
	require.False(t, IsUndefined(""))
}

func TestCloneMap_IsDeep(t *testing.T) {
	src := map[string]any{
		"count": 1,
		"user":  map[string]any{"name": "ada", "tags": []any{"a", "b"}},
		"ids":   []int{1, 2, 3},
	}

	out := CloneMap(src)
	require.Equal(t, src, out)

	out["user"].(map[string]any)["name"] = "grace"
	out["user"].(map[string]any)["tags"].([]any)[0] = "z"
	out["ids"].([]int)[0] = 9

	require.Equal(t, "ada", src["user"].(map[string]any)["name"])
	require.Equal(t, "a", src["user"].(map[string]any)["tags"].([]any)[0])
	require.Equal(t, 1, src["ids"].([]int)[0])
}

func TestCloneMap_Nil(t *testing.T) {
	out := CloneMap(nil)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestClone_TypedMapsAndPointers(t *testing.T) {
	type point struct {
		X, Y int
		Tags map[string]string
	}

	p := &point{X: 1, Y: 2, Tags: map[string]string{"k": "v"}}
	out := Clone(p).(*point)

	require.Equal(t, p, out)
	require.NotSame(t, p, out)

	out.Tags["k"] = "changed"
	require.Equal(t, "v", p.Tags["k"])
}

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"keep":   "me",
		"nested": map[string]any{"a": 1, "b": 2},
		"list":   []any{map[string]any{"x": 1}, "second"},
	}
	src := map[string]any{
		"nested": map[string]any{"b": 3, "c": 4},
		"list":   []any{map[string]any{"y": 2}, "replaced", "third"},
		"new":    true,
	}

	Merge(dst, src)

	require.Equal(t, map[string]any{
		"keep":   "me",
		"nested": map[string]any{"a": 1, "b": 3, "c": 4},
		"list":   []any{map[string]any{"x": 1, "y": 2}, "replaced", "third"},
		"new":    true,
	}, dst)

	// merged values are copies of src
	src["nested"].(map[string]any)["c"] = 99
	require.Equal(t, 4, dst["nested"].(map[string]any)["c"])
}

func TestMerge_ReplacesNonMapWithMap(t *testing.T) {
	dst := map[string]any{"v": 1}
	Merge(dst, map[string]any{"v": map[string]any{"inner": true}})
	require.Equal(t, map[string]any{"inner": true}, dst["v"])
}

func TestSnapshot(t *testing.T) {
	a := Snapshot(map[string]any{"b": 1, "a": []any{"x"}})
	b := Snapshot(map[string]any{"a": []any{"x"}, "b": 1})
	require.Equal(t, a, b)
	require.Equal(t, `{"a":["x"],"b":1}`, a)

	require.NotEqual(t, a, Snapshot(map[string]any{"a": []any{"x"}, "b": 2}))
	require.Equal(t, "null", Snapshot(nil))
}

func TestSnapshot_FallsBackForUnencodable(t *testing.T) {
	s := Snapshot(map[string]any{"c": complex(1, 2)})
	require.Contains(t, s, "(1+2i)")
}
