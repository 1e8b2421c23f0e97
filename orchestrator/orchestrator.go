// Package orchestrator implements the agentic loop: the turn-by-turn
// exchange between the completion endpoint and the tool executor that turns
// one user message into zero or more traced tool executions.
//
// The loop is an explicit state machine: seed the conversation, ask the
// completion endpoint, and either finish (no tool calls) or dispatch every
// requested invocation in emitted order, append the results and ask again. A
// hard iteration bound guarantees forward progress when the model keeps
// requesting tools; reaching it is a defined success path, not an error.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/logging"
	"github.com/pochehq/agentloop/model"
	"github.com/pochehq/agentloop/tool"
)

// DefaultMaxTurns bounds completion round-trips per request.
const DefaultMaxTurns = 5

// MaxTurnsResponse is the fixed best-effort summary returned when the
// iteration bound is reached without a tool-call-free response.
const MaxTurnsResponse = "I've made several tool calls. Here's what I found."

// DefaultSystemPrompt is the fixed preamble seeded into every conversation.
const DefaultSystemPrompt = "You are an AI assistant for a 3D CAD application called Poche. " +
	"You can CREATE 3D geometry in the scene! When users ask you to create, draw, or make shapes " +
	"(boxes, cubes, rectangles, etc.), use the create_box or create_rectangle tools. " +
	"Dimensions are in inches. A typical room might be 120x120 inches (10x10 feet). " +
	"When asked to create a 'red box', use color '#ff0000'. " +
	"You can also query the database, check API endpoints, and clear the scene. " +
	"Be concise in your responses."

// Options configures an Orchestrator.
type Options struct {
	// SystemPrompt is the fixed preamble. Empty disables the system message.
	SystemPrompt string
	// MaxTurns caps completion round-trips per request.
	MaxTurns int
	Logger   logging.Logger
}

// Result is the structured response returned to the caller: the final answer
// text plus the ordered trace of every tool call made during the request.
type Result struct {
	Response  string                `json:"response"`
	ToolCalls []core.ToolCallRecord `json:"tool_calls"`
}

// Orchestrator drives the agentic loop for one chat request at a time.
// Independent requests may run concurrently; the orchestrator itself holds no
// per-request state.
type Orchestrator struct {
	model        model.Model
	registry     *tool.Registry
	executor     *tool.Executor
	systemPrompt string
	maxTurns     int
	logger       logging.Logger
}

// New assembles an orchestrator over a completion endpoint, a tool registry
// and the executor dispatching into it.
func New(m model.Model, registry *tool.Registry, executor *tool.Executor, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		SystemPrompt: DefaultSystemPrompt,
		MaxTurns:     DefaultMaxTurns,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	return &Orchestrator{
		model:        m,
		registry:     registry,
		executor:     executor,
		systemPrompt: opts.SystemPrompt,
		maxTurns:     opts.MaxTurns,
		logger:       opts.Logger,
	}
}

// Run processes one user message against the caller-supplied history and
// returns the final answer plus the accumulated tool call trace.
//
// A completion-endpoint failure is terminal for the request and surfaces as
// the returned error. Tool-level failures never do: they are recorded in the
// trace and the loop continues (fail-soft per invocation).
func (o *Orchestrator) Run(ctx context.Context, message string, history []core.Message) (*Result, error) {
	runID := uuid.NewString()
	conv := core.NewConversation(o.systemPrompt, history, message)
	defs := o.toolDefinitions()

	o.logger.Info("chat.run.start", "run_id", runID, "history", len(history), "tools", len(defs))

	for conv.Turns() < o.maxTurns {
		conv.AdvanceTurn()

		start := time.Now()
		resp, err := o.model.Complete(ctx, model.Request{Messages: conv.Messages(), Tools: defs})
		if err != nil {
			logging.LogModelCall(o.logger, o.model.Info().Name, time.Since(start), 0, err)
			return nil, fmt.Errorf("completion failed: %w", err)
		}
		logging.LogModelCall(o.logger, o.model.Info().Name, time.Since(start), len(resp.ToolCalls), nil)

		if len(resp.ToolCalls) == 0 {
			o.logger.Info("chat.run.complete", "run_id", runID, "turns", conv.Turns(), "tool_calls", len(conv.Records()))
			return &Result{Response: resp.Text, ToolCalls: conv.Records()}, nil
		}

		conv.AppendAssistant(resp.Text, resp.ToolCalls)

		// Invocations are dispatched in the order the endpoint emitted them;
		// later calls in the same turn may reference earlier ones
		// conversationally.
		for _, call := range resp.ToolCalls {
			res := o.executor.Execute(ctx, call)
			conv.AppendToolResult(call.ID, res)
		}
	}

	o.logger.Warn("chat.run.max_turns", "run_id", runID, "turns", conv.Turns(), "tool_calls", len(conv.Records()))
	return &Result{Response: MaxTurnsResponse, ToolCalls: conv.Records()}, nil
}

// toolDefinitions builds the schema catalogue shown to the completion
// endpoint from the registry, in stable registration order.
func (o *Orchestrator) toolDefinitions() []model.ToolDefinition {
	tools := o.registry.All()
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}
