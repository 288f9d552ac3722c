package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestSerializeYAML_DeterministicOrder(t *testing.T) {
	fields := map[string]any{
		"b": "two",
		"a": "one",
		"c": 3,
	}

	out1, err := SerializeYAML(fields)
	require.NoError(t, err)
	out2, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, string(out1), string(out2))

	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out1))
}

func TestSerializeYAML_NestedMap_SortsKeysRecursively(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{
			"b": 2,
			"a": 1,
		},
	}

	out, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, "outer:\n  a: 1\n  b: 2\n", string(out))
}

func TestSerializeYAML_Sequences(t *testing.T) {
	fields := map[string]any{
		"tags": []any{"docs", "guide"},
	}

	out, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, "tags:\n  - docs\n  - guide\n", string(out))
}

func TestSerializeYAML_ScalarTypes(t *testing.T) {
	fields := map[string]any{
		"flag":  true,
		"count": int64(42),
		"ratio": 0.5,
		"none":  nil,
	}

	out, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, "count: 42\nflag: true\nnone: null\nratio: 0.5\n", string(out))
}
