package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pochehq/agentloop/core"
)

func TestExecutorUnknownTool(t *testing.T) {
	exec := NewExecutor(NewRegistry())

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "ghost_tool"})
	assert.True(t, res.Failed())
	assert.Equal(t, "unknown tool: ghost_tool", res.Err)
	assert.Equal(t, "ghost_tool", res.ToolName)
}

func TestExecutorMalformedArgumentsUseDefaults(t *testing.T) {
	reg := NewRegistry()
	var seen map[string]any
	reg.Register(NewFunctionTool("echo", "echo args", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"color": map[string]any{"type": "string", "default": "#4a90d9"},
		},
	}, func(_ context.Context, args map[string]any) (any, error) {
		seen = args
		return args, nil
	}))
	exec := NewExecutor(reg)

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "echo", Arguments: "{not json"})
	require.False(t, res.Failed())
	assert.Equal(t, "#4a90d9", seen["color"])
	assert.Equal(t, "#4a90d9", res.Arguments["color"])
}

func TestExecutorNormalizesErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewFunctionTool("boom", "always fails", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("backend unavailable")
	}))
	exec := NewExecutor(reg)

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "boom", Arguments: "{}"})
	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "backend unavailable")
	assert.Nil(t, res.Payload)
}

func TestExecutorRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewFunctionTool("panicky", "panics", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		panic("kaboom")
	}))
	exec := NewExecutor(reg)

	var res core.ToolResult
	assert.NotPanics(t, func() {
		res = exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "panicky"})
	})
	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "panicked")
}

func TestExecutorAppliesTimeout(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewFunctionTool("slow", "waits for ctx", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(ctx context.Context, _ map[string]any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	}))
	exec := NewExecutor(reg, func(o *ExecutorOptions) {
		o.Timeout = 10 * time.Millisecond
	})

	start := time.Now()
	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "slow"})
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "context deadline exceeded")
}

func TestFunctionToolValidation(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	ft := NewFunctionTool("needs_a", "requires a", params, func(_ context.Context, args map[string]any) (any, error) {
		return args["a"], nil
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)

	result, err := ft.Call(context.Background(), map[string]any{"a": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, result)
}

func TestFunctionToolPreservesCustomToolError(t *testing.T) {
	custom := NewToolError("custom", "policy denied", CodePolicy)
	ft := NewFunctionTool("custom", "returns ToolError", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, custom
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodePolicy, toolErr.Code)
	assert.Contains(t, toolErr.Error(), "POLICY_ERROR")
}

func TestParseArguments(t *testing.T) {
	assert.Equal(t, map[string]any{}, parseArguments(""))
	assert.Equal(t, map[string]any{}, parseArguments("null"))
	assert.Equal(t, map[string]any{}, parseArguments("not json"))
	assert.Equal(t, map[string]any{"x": float64(1)}, parseArguments(`{"x":1}`))
}
