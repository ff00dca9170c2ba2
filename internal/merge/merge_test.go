package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_AbsentKeySurvives(t *testing.T) {
	base := map[string]any{"mode": "auto", "count": 3}
	patch := map[string]any{"count": 4}

	got := Merge(base, patch)

	assert.Equal(t, "auto", got["mode"])
	assert.Equal(t, 4, got["count"])
}

func TestMerge_ExplicitNullClears(t *testing.T) {
	base := map[string]any{"report": map[string]any{"path": "a.md"}}
	patch := map[string]any{"report": nil}

	got := Merge(base, patch)

	val, ok := got["report"]
	require.True(t, ok, "key must be present")
	assert.Nil(t, val)
}

func TestMerge_ArrayReplacesWholesale(t *testing.T) {
	base := map[string]any{"tools": []any{"Bash", "Edit"}}
	patch := map[string]any{"tools": []any{"Read"}}

	got := Merge(base, patch)

	assert.Equal(t, []any{"Read"}, got["tools"])
}

func TestMerge_NestedObjectKeepsSiblings(t *testing.T) {
	base := map[string]any{
		"permission_config": map[string]any{
			"mode":         "auto",
			"allowedTools": []any{},
		},
	}
	patch := map[string]any{
		"permission_config": map[string]any{
			"allowedTools": []any{"Bash"},
		},
	}

	got := Merge(base, patch)

	pc, ok := got["permission_config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "auto", pc["mode"], "sibling not mentioned in patch must survive")
	assert.Equal(t, []any{"Bash"}, pc["allowedTools"])
}

func TestMerge_ObjectReplacesScalar(t *testing.T) {
	base := map[string]any{"git_state": "unknown"}
	patch := map[string]any{"git_state": map[string]any{"ref": "main"}}

	got := Merge(base, patch)

	assert.Equal(t, map[string]any{"ref": "main"}, got["git_state"])
}

func TestMerge_DeepRecursion(t *testing.T) {
	base := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1, "d": 2},
		},
	}
	patch := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"d": 9},
		},
	}

	got := Merge(base, patch)

	b := got["a"].(map[string]any)["b"].(map[string]any)
	assert.Equal(t, 1, b["c"])
	assert.Equal(t, 9, b["d"])
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"nested": map[string]any{"keep": true},
		"n":      1,
	}
	patch := map[string]any{
		"nested": map[string]any{"added": "x"},
		"n":      2,
	}

	_ = Merge(base, patch)

	assert.Equal(t, map[string]any{"keep": true}, base["nested"])
	assert.Equal(t, 1, base["n"])
	assert.Equal(t, map[string]any{"added": "x"}, patch["nested"])
}

func TestMerge_EmptyPatchIsIdentity(t *testing.T) {
	base := map[string]any{"x": 1, "y": map[string]any{"z": 2}}

	got := Merge(base, map[string]any{})

	assert.Equal(t, base, got)
}
