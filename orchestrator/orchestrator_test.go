package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/model"
	"github.com/pochehq/agentloop/scenetool"
	"github.com/pochehq/agentloop/tool"
)

func newTestRig(tools ...tool.Tool) (*model.ScriptedModel, *tool.Registry, *tool.Executor) {
	scripted := model.NewScriptedModel()
	reg := tool.NewRegistry()
	reg.RegisterAll(tools...)
	return scripted, reg, tool.NewExecutor(reg)
}

func TestRunNoToolCallsTerminatesInOneRoundTrip(t *testing.T) {
	scripted, reg, exec := newTestRig()
	scripted.EnqueueText("plain answer")

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "plain answer", result.Response)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, 1, scripted.CallCount())
}

func TestRunSeedsSystemHistoryAndUserMessage(t *testing.T) {
	scripted, reg, exec := newTestRig()
	scripted.EnqueueText("ok")

	history := []core.Message{
		core.UserMessage("before"),
		core.AssistantMessage("answered", nil),
	}
	o := New(scripted, reg, exec)
	_, err := o.Run(context.Background(), "now", history)
	require.NoError(t, err)

	reqs := scripted.Requests()
	require.Len(t, reqs, 1)
	msgs := reqs[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, DefaultSystemPrompt, msgs[0].Content)
	assert.Equal(t, "before", msgs[1].Content)
	assert.Equal(t, "now", msgs[3].Content)
}

func TestRunDispatchesToolCallsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) tool.Tool {
		return tool.NewFunctionTool(name, name, map[string]any{
			"type": "object", "properties": map[string]any{},
		}, func(_ context.Context, _ map[string]any) (any, error) {
			order = append(order, name)
			return map[string]any{"from": name}, nil
		})
	}

	scripted, reg, exec := newTestRig(mk("first"), mk("second"), mk("third"))
	scripted.EnqueueToolCalls(
		core.ToolCall{ID: "c1", Name: "first", Arguments: "{}"},
		core.ToolCall{ID: "c2", Name: "second", Arguments: "{}"},
		core.ToolCall{ID: "c3", Name: "third", Arguments: "{}"},
	)
	scripted.EnqueueText("done")

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "run them", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	require.Len(t, result.ToolCalls, 3)
	assert.Equal(t, "first", result.ToolCalls[0].Tool)
	assert.Equal(t, "third", result.ToolCalls[2].Tool)

	// The second round-trip must replay one tool-role message per call with
	// matching correlation ids.
	reqs := scripted.Requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	var toolMsgs []core.Message
	for _, m := range msgs {
		if m.Role == core.RoleTool {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 3)
	assert.Equal(t, "c1", toolMsgs[0].ToolCallID)
	assert.Equal(t, "c2", toolMsgs[1].ToolCallID)
	assert.Equal(t, "c3", toolMsgs[2].ToolCallID)
}

func TestRunFailSoftPerInvocation(t *testing.T) {
	okTool := tool.NewFunctionTool("works", "works", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return "fine", nil
	})
	badTool := tool.NewFunctionTool("breaks", "breaks", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("db is down")
	})

	scripted, reg, exec := newTestRig(okTool, badTool)
	scripted.EnqueueToolCalls(
		core.ToolCall{ID: "c1", Name: "breaks", Arguments: "{}"},
		core.ToolCall{ID: "c2", Name: "works", Arguments: "{}"},
	)
	scripted.EnqueueText("recovered")

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "go", nil)
	require.NoError(t, err)

	assert.Equal(t, "recovered", result.Response)
	require.Len(t, result.ToolCalls, 2)
	failure := result.ToolCalls[0].Result.(map[string]any)
	assert.Contains(t, failure["error"], "db is down")
	assert.Equal(t, "fine", result.ToolCalls[1].Result)
}

func TestRunUnknownToolRecorded(t *testing.T) {
	scripted, reg, exec := newTestRig()
	scripted.EnqueueToolCalls(core.ToolCall{ID: "c1", Name: "ghost_tool", Arguments: "{}"})
	scripted.EnqueueText("done anyway")

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "go", nil)
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	errResult := result.ToolCalls[0].Result.(map[string]any)
	assert.Equal(t, "unknown tool: ghost_tool", errResult["error"])
}

func TestRunMaxTurnsYieldsFallbackResponse(t *testing.T) {
	noop := tool.NewFunctionTool("noop", "noop", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return "ok", nil
	})

	scripted, reg, exec := newTestRig(noop)
	for i := 0; i < DefaultMaxTurns+3; i++ {
		scripted.EnqueueToolCalls(core.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "noop", Arguments: "{}"})
	}

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "loop forever", nil)
	require.NoError(t, err)

	assert.Equal(t, MaxTurnsResponse, result.Response)
	assert.Equal(t, DefaultMaxTurns, scripted.CallCount())
	assert.Len(t, result.ToolCalls, DefaultMaxTurns)
}

func TestRunCompletionFailureIsTerminal(t *testing.T) {
	scripted, reg, exec := newTestRig()
	scripted.EnqueueError(errors.New("api quota exceeded"))

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "completion failed")
	assert.Contains(t, err.Error(), "api quota exceeded")
}

func TestRunCreateRedBoxEndToEnd(t *testing.T) {
	scripted, reg, exec := newTestRig(scenetool.Tools()...)
	scripted.EnqueueToolCalls(core.ToolCall{
		ID: "call_1", Name: "create_box", Arguments: `{"color":"#ff0000"}`,
	})
	scripted.EnqueueText("Created a red box.")

	o := New(scripted, reg, exec)
	result, err := o.Run(context.Background(), "create a red box", nil)
	require.NoError(t, err)

	assert.Equal(t, "Created a red box.", result.Response)
	require.Len(t, result.ToolCalls, 1)
	record := result.ToolCalls[0]
	assert.Equal(t, "create_box", record.Tool)
	assert.Equal(t, "#ff0000", record.Arguments["color"])
	assert.Equal(t, 2, scripted.CallCount())
}

func TestToolDefinitionsCatalogue(t *testing.T) {
	scripted, reg, exec := newTestRig(scenetool.Tools()...)
	scripted.EnqueueText("ok")

	o := New(scripted, reg, exec)
	_, err := o.Run(context.Background(), "hi", nil)
	require.NoError(t, err)

	reqs := scripted.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 3)
	assert.Equal(t, "create_box", reqs[0].Tools[0].Name)
	assert.NotEmpty(t, reqs[0].Tools[0].Description)
	assert.Contains(t, reqs[0].Tools[0].Parameters, "properties")
}

func TestCustomOptions(t *testing.T) {
	noop := tool.NewFunctionTool("noop", "noop", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ context.Context, _ map[string]any) (any, error) {
		return "ok", nil
	})
	scripted, reg, exec := newTestRig(noop)
	scripted.EnqueueToolCalls(core.ToolCall{ID: "c1", Name: "noop", Arguments: "{}"})
	scripted.EnqueueToolCalls(core.ToolCall{ID: "c2", Name: "noop", Arguments: "{}"})

	o := New(scripted, reg, exec, func(opts *Options) {
		opts.MaxTurns = 2
		opts.SystemPrompt = ""
	})
	result, err := o.Run(context.Background(), "go", nil)
	require.NoError(t, err)
	assert.Equal(t, MaxTurnsResponse, result.Response)
	assert.Equal(t, 2, scripted.CallCount())

	// no system message when the prompt is empty
	msgs := scripted.Requests()[0].Messages
	assert.Equal(t, core.RoleUser, msgs[0].Role)
}
