package json_test

import (
	"bytes"
	"testing"

	"github.com/graftml/graft/tree"
	"github.com/graftml/graft/tree/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stumpTree() *tree.Tree {
	return &tree.Tree{
		Feature:   []int{0, tree.Leaf, tree.Leaf},
		Threshold: []float64{1.5, 0, 0},
		Left:      []int{1, tree.Leaf, tree.Leaf},
		Right:     []int{2, tree.Leaf, tree.Leaf},
		Value:     [][]float64{{2, 3}, {2, 0}, {0, 3}},
		Samples:   []int{5, 2, 3},
		Impurity:  []float64{0.48, 0, 0},
	}
}

func TestWriteReadTreeRoundTrip(t *testing.T) {
	bt := stumpTree()
	var buf bytes.Buffer
	require.NoError(t, json.WriteTree(&buf, bt))
	parsed, err := json.ReadTree(&buf)
	require.NoError(t, err)
	assert.Equal(t, bt, parsed)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	bt := stumpTree()
	data, err := json.Marshal(bt)
	require.NoError(t, err)
	parsed, err := json.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, bt, parsed)
}

func TestUnmarshalRejectsMalformedTrees(t *testing.T) {
	_, err := json.Unmarshal([]byte("{not json"))
	assert.Error(t, err)

	bt := stumpTree()
	bt.Samples[0] = 7
	data, err := json.Marshal(bt)
	require.NoError(t, err)
	_, err = json.Unmarshal(data)
	var serr tree.StructureError
	assert.ErrorAs(t, err, &serr, "node arrays are validated after decoding")
}
