// Package tool implements the tool-calling subsystem: the Tool capability
// contract, a name-keyed registry resolved once at startup, and the executor
// that dispatches model-requested invocations and normalizes every outcome
// into a uniform result envelope.
package tool

import (
	"context"
	"fmt"
)

// Tool defines the capability contract for operations the orchestrator can
// invoke on behalf of a model-driven conversation.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for parameters, kept in sync with actual handling
//   - Honor ctx cancellation and deadlines on any external call
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns the human-readable description shown to the
	// completion endpoint so it understands when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments,
	// including types, defaults and the required subset.
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments. The returned
	// value must be JSON-serializable.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error codes used across the tool subsystem.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodePolicy     = "POLICY_ERROR"
)

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
