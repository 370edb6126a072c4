package configbinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Table     string `yaml:"table_name"`
	ChunkSize int    `yaml:"chunk_size"`
	Returning bool   `yaml:"return_defaults"`
}

func TestBind_WeakTypes(t *testing.T) {
	var s sample
	err := Bind(map[string]interface{}{
		"table_name":      "response_events",
		"chunk_size":      "25",
		"return_defaults": "true",
	}, &s)
	require.NoError(t, err)
	assert.Equal(t, sample{Table: "response_events", ChunkSize: 25, Returning: true}, s)
}

func TestBind_Scalar(t *testing.T) {
	var key int64
	require.NoError(t, Bind(int32(42), &key))
	assert.Equal(t, int64(42), key)

	require.NoError(t, Bind(float64(7), &key))
	assert.Equal(t, int64(7), key)

	require.NoError(t, Bind("9", &key))
	assert.Equal(t, int64(9), key)
}

func TestBind_Error(t *testing.T) {
	var s sample
	err := Bind(map[string]interface{}{"chunk_size": "many"}, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configbinder.sample")
}

func TestBindProperties(t *testing.T) {
	var s sample
	require.NoError(t, BindProperties(map[string]string{"chunk_size": "3"}, &s))
	assert.Equal(t, 3, s.ChunkSize)

	require.NoError(t, BindProperties(nil, &s))
	assert.Equal(t, 3, s.ChunkSize)
}
