package scenetool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/tool"
)

func newExecutor(t *testing.T) *tool.Executor {
	t.Helper()
	reg := tool.NewRegistry()
	reg.RegisterAll(Tools()...)
	return tool.NewExecutor(reg)
}

func TestToolsRegistered(t *testing.T) {
	names := make([]string, 0, 3)
	for _, tl := range Tools() {
		names = append(names, tl.Name())
	}
	assert.ElementsMatch(t, []string{"create_box", "create_rectangle", "clear_scene"}, names)
}

func TestCreateBoxDefaults(t *testing.T) {
	exec := newExecutor(t)

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "create_box", Arguments: "{}"})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, "create_box", payload["action"])
	assert.Equal(t, true, payload["success"])

	params := payload["params"].(map[string]any)
	assert.Equal(t, float64(24), params["width"])
	assert.Equal(t, float64(24), params["height"])
	assert.Equal(t, float64(24), params["depth"])
	assert.Equal(t, "#4a90d9", params["color"])
	assert.Equal(t, float64(0), params["x"])
}

func TestCreateBoxExplicitColor(t *testing.T) {
	exec := newExecutor(t)

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "create_box", Arguments: `{"color":"#ff0000","width":120}`,
	})
	require.False(t, res.Failed())

	params := res.Payload.(map[string]any)["params"].(map[string]any)
	assert.Equal(t, "#ff0000", params["color"])
	assert.Equal(t, float64(120), params["width"])
	assert.Equal(t, float64(24), params["height"])
}

func TestCreateRectangleDefaults(t *testing.T) {
	exec := newExecutor(t)

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "create_rectangle", Arguments: "{}"})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, "create_rectangle", payload["action"])
	params := payload["params"].(map[string]any)
	assert.Equal(t, float64(48), params["width"])
	assert.Equal(t, float64(48), params["depth"])
}

func TestClearScene(t *testing.T) {
	exec := newExecutor(t)

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "clear_scene"})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, "clear_scene", payload["action"])
	assert.Equal(t, "Scene cleared", payload["message"])
	assert.Empty(t, payload["params"])
}
