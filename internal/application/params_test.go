package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStringParam(t *testing.T) {
	args := map[string]interface{}{
		"name":   "value",
		"number": 42,
	}

	value, err := getStringParam(args, "name", true)
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	_, err = getStringParam(args, "missing", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter: missing")

	value, err = getStringParam(args, "missing", false)
	require.NoError(t, err)
	assert.Empty(t, value)

	_, err = getStringParam(args, "number", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")
}

func TestGetIntParam(t *testing.T) {
	args := map[string]interface{}{
		"fromJSON": float64(7),
		"bare":     3,
		"text":     "nope",
	}

	value, err := getIntParam(args, "fromJSON", true)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	value, err = getIntParam(args, "bare", true)
	require.NoError(t, err)
	assert.Equal(t, 3, value)

	value, err = getIntParam(args, "missing", false)
	require.NoError(t, err)
	assert.Zero(t, value)

	// A present but mistyped value is an error even when optional.
	_, err = getIntParam(args, "text", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestGetBoolParam(t *testing.T) {
	args := map[string]interface{}{
		"flag": false,
		"text": "true",
	}

	value, err := getBoolParam(args, "flag", true)
	require.NoError(t, err)
	assert.False(t, value)

	value, err = getBoolParam(args, "missing", true)
	require.NoError(t, err)
	assert.True(t, value)

	_, err = getBoolParam(args, "text", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a boolean")
}

func TestGetStringSliceParam(t *testing.T) {
	args := map[string]interface{}{
		"keys":  []interface{}{"A-1", "A-2"},
		"mixed": []interface{}{"A-1", 2},
		"text":  "A-1",
	}

	value, err := getStringSliceParam(args, "keys", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "A-2"}, value)

	value, err = getStringSliceParam(args, "missing", false)
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = getStringSliceParam(args, "missing", true)
	require.Error(t, err)

	_, err = getStringSliceParam(args, "mixed", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an array of strings")

	_, err = getStringSliceParam(args, "text", true)
	require.Error(t, err)
}

func TestGetMapParam(t *testing.T) {
	args := map[string]interface{}{
		"object": map[string]interface{}{"k": "v"},
		"text":   "nope",
	}

	value, err := getMapParam(args, "object", true)
	require.NoError(t, err)
	assert.Equal(t, "v", value["k"])

	value, err = getMapParam(args, "missing", false)
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = getMapParam(args, "text", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an object")
}

func TestGetSliceParam(t *testing.T) {
	args := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"a": 1}, "two"},
		"text":  "nope",
	}

	value, err := getSliceParam(args, "items", true)
	require.NoError(t, err)
	assert.Len(t, value, 2)

	_, err = getSliceParam(args, "text", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an array")
}
