package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/internal/util"
	"github.com/pochehq/agentloop/logging"
)

// Executor dispatches a single named invocation to the matching registry
// entry and normalizes results and errors into a core.ToolResult. It never
// lets a failure escape to the caller: unknown tools, malformed arguments,
// backend errors and panics all resolve to a result carrying an error
// message, keeping the orchestration loop fail-soft per invocation.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	logger   logging.Logger
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Timeout bounds each invocation so a stuck backend cannot stall the
	// orchestrator. Zero disables the per-invocation deadline.
	Timeout time.Duration
	Logger  logging.Logger
}

// NewExecutor constructs an Executor over the given registry.
func NewExecutor(registry *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Timeout: 30 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{registry: registry, timeout: opts.Timeout, logger: opts.Logger}
}

// Execute runs one tool invocation. Malformed argument text is treated as an
// empty argument set; schema defaults fill the gap before dispatch.
func (e *Executor) Execute(ctx context.Context, call core.ToolCall) core.ToolResult {
	args := parseArguments(call.Arguments)

	impl, ok := e.registry.Lookup(call.Name)
	if !ok {
		e.logger.Warn("tool.execute.unknown", "tool", call.Name)
		return core.ToolResult{
			ToolName:  call.Name,
			Arguments: args,
			Err:       fmt.Sprintf("unknown tool: %s", call.Name),
		}
	}

	args = util.ApplyDefaults(args, impl.Parameters())

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := e.safeCall(ctx, impl, args)
	logging.LogToolCall(e.logger, call.Name, time.Since(start), err)

	result := core.ToolResult{ToolName: call.Name, Arguments: args}
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Payload = payload
	return result
}

// safeCall invokes the tool with panic recovery so a faulty implementation
// cannot crash the conversation.
func (e *Executor) safeCall(ctx context.Context, impl Tool, args map[string]any) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool.execute.panic", "tool", impl.Name(), "recover", fmt.Sprintf("%v", r))
			payload = nil
			err = fmt.Errorf("tool %s panicked: %v", impl.Name(), r)
		}
	}()
	return impl.Call(ctx, args)
}

// parseArguments decodes the raw argument text emitted by the completion
// endpoint. Empty or non-parseable text yields an empty argument set rather
// than an error.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
