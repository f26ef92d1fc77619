package yaml_test

import (
	"testing"

	"github.com/graftml/graft/feature/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFeatures(t *testing.T) {
	metadata := `
features:
  plan:
    - basic
    - premium
  age: continuous
  visits: continuous
`
	features, err := yaml.ReadFeatures([]byte(metadata))
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.Equal(t, "age", features[0].Name(), "features come out sorted by name")
	assert.True(t, features[0].Continuous())

	assert.Equal(t, "plan", features[1].Name())
	assert.False(t, features[1].Continuous())
	class, ok := features[1].ClassIndex("premium")
	require.True(t, ok)
	assert.Equal(t, 1, class)
	_, ok = features[1].ClassIndex("gold")
	assert.False(t, ok)

	assert.Equal(t, "visits", features[2].Name())
	assert.True(t, features[2].Continuous())
}

func TestReadFeaturesCoercesScalarValues(t *testing.T) {
	metadata := `
features:
  rooms:
    - 1
    - 2
    - 3
`
	features, err := yaml.ReadFeatures([]byte(metadata))
	require.NoError(t, err)
	require.Len(t, features, 1)
	class, ok := features[0].ClassIndex("2")
	require.True(t, ok)
	assert.Equal(t, 1, class)
}

func TestReadFeaturesRejectsInvalidMetadata(t *testing.T) {
	metadatas := map[string]string{
		"no features key":     "columns: {}",
		"not yaml":            "features: [",
		"invalid declaration": "features:\n  age: 7",
	}
	for name, metadata := range metadatas {
		_, err := yaml.ReadFeatures([]byte(metadata))
		assert.Error(t, err, name)
	}
}
