package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boxArgs struct {
	Color string   `json:"color,omitempty" description:"Hex color" default:"#4a90d9"`
	Width float64  `json:"width,omitempty" description:"Width in inches"`
	Name  string   `json:"name" description:"Required name"`
	Skip  string   `json:"-"`
	Note  *string  `json:"note,omitempty"`
	Count int      `json:"count,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(boxArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "color")
	assert.Contains(t, props, "width")
	assert.Contains(t, props, "name")
	assert.NotContains(t, props, "-")
	assert.NotContains(t, props, "Skip")

	color := props["color"].(map[string]any)
	assert.Equal(t, "string", color["type"])
	assert.Equal(t, "#4a90d9", color["default"])
	assert.Equal(t, "Hex color", color["description"])

	assert.Equal(t, "number", props["width"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"name"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5)}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "nope"}, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected type integer")
}

func TestApplyDefaults(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"color": map[string]any{"type": "string", "default": "#4a90d9"},
			"width": map[string]any{"type": "number", "default": float64(24)},
			"name":  map[string]any{"type": "string"},
		},
	}

	filled := ApplyDefaults(map[string]any{"color": "#ff0000"}, schema)
	assert.Equal(t, "#ff0000", filled["color"])
	assert.Equal(t, float64(24), filled["width"])
	assert.NotContains(t, filled, "name")

	// nil args behave as an empty set and the input is not mutated
	fromNil := ApplyDefaults(nil, schema)
	assert.Equal(t, "#4a90d9", fromNil["color"])

	orig := map[string]any{}
	_ = ApplyDefaults(orig, schema)
	assert.Empty(t, orig)
}
