package model

import (
	"context"
	"errors"
	"sync"

	"github.com/pochehq/agentloop/core"
)

// ToolDefinition declaratively exposes a callable tool to the completion
// endpoint. Parameters is a JSON Schema object (minimal subset: type,
// properties, required, defaults).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request carries the full message sequence and the tool schema catalogue for
// one completion round-trip.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completion endpoint's answer to one round-trip: plain text,
// zero or more tool invocations, or both.
type Response struct {
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the external completion endpoint consumed by the orchestrator.
// Complete must support multiple tool invocations per turn. Failures are
// terminal for the enclosing request; the orchestrator does not retry.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrScriptExhausted is returned by ScriptedModel once its queued responses
// run out.
var ErrScriptExhausted = errors.New("scripted model: no responses left")

type scriptStep struct {
	resp *Response
	err  error
}

// ScriptedModel is a deterministic in-memory Model for tests. Responses are
// consumed in the order they were enqueued; every received request is
// recorded for later assertions.
type ScriptedModel struct {
	mu    sync.Mutex
	steps []scriptStep
	calls []Request
}

// NewScriptedModel constructs an empty ScriptedModel.
func NewScriptedModel() *ScriptedModel { return &ScriptedModel{} }

// EnqueueText queues a plain-text response with no tool invocations.
func (m *ScriptedModel) EnqueueText(text string) {
	m.enqueue(scriptStep{resp: &Response{Text: text, FinishReason: "stop"}})
}

// EnqueueToolCalls queues a response requesting the given tool invocations.
func (m *ScriptedModel) EnqueueToolCalls(calls ...core.ToolCall) {
	m.enqueue(scriptStep{resp: &Response{ToolCalls: calls, FinishReason: "tool_calls"}})
}

// EnqueueError queues a completion failure.
func (m *ScriptedModel) EnqueueError(err error) {
	m.enqueue(scriptStep{err: err})
}

func (m *ScriptedModel) enqueue(s scriptStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, s)
}

// Complete pops the next queued step.
func (m *ScriptedModel) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if len(m.steps) == 0 {
		return nil, ErrScriptExhausted
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.resp, nil
}

// Requests returns every request the model received, in order.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many completion round-trips were made.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "test", SupportsTools: true}
}
