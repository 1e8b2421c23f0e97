package core

// Role identifies the author of a transcript message.
type Role string

// Roles recognized by the completion endpoint.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation transcript. Messages are
// append-only within a request and their ordering is significant.
//
// Content may be empty on assistant messages that only carry tool calls.
// ToolCallID is set only on tool-role messages and correlates the message to
// the invocation emitted by the immediately preceding assistant message.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message carrying text and/or the
// tool calls the model requested.
func AssistantMessage(content string, toolCalls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMessage builds a tool-role message carrying the serialized result of
// the invocation identified by toolCallID.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// ToolCall is a single tool invocation request emitted by the completion
// endpoint. Arguments holds the raw argument text; it is expected to parse as
// a JSON object but malformed text is tolerated downstream (treated as an
// empty argument set by the executor).
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
