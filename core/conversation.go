package core

// Conversation owns the ordered message transcript, the accumulated tool call
// trace and the turn counter for a single chat request. It is created when
// the request starts, mutated only by the orchestrator and discarded when the
// request completes; there is no cross-request persistence beyond the
// caller-supplied history.
//
// Conversation is not safe for concurrent use. The orchestrator processes one
// request on a single logical task, so no locking is required.
type Conversation struct {
	messages []Message
	records  []ToolCallRecord
	turns    int
}

// NewConversation seeds the transcript from the fixed system preamble, the
// caller-supplied history and the new user message, in that order.
func NewConversation(system string, history []Message, userMessage string) *Conversation {
	messages := make([]Message, 0, len(history)+2)
	if system != "" {
		messages = append(messages, SystemMessage(system))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userMessage))
	return &Conversation{messages: messages}
}

// Messages returns the transcript in order. The returned slice must not be
// mutated by callers.
func (c *Conversation) Messages() []Message { return c.messages }

// AppendAssistant records the assistant turn returned by the completion
// endpoint, including any tool calls it carries.
func (c *Conversation) AppendAssistant(text string, toolCalls []ToolCall) {
	c.messages = append(c.messages, AssistantMessage(text, toolCalls))
}

// AppendToolResult appends the tool-role message correlated to toolCallID and
// records the trace entry for the invocation.
func (c *Conversation) AppendToolResult(toolCallID string, res ToolResult) {
	c.messages = append(c.messages, ToolMessage(toolCallID, res.Serialize()))
	c.records = append(c.records, NewToolCallRecord(res))
}

// Records returns the accumulated tool call trace in insertion order.
func (c *Conversation) Records() []ToolCallRecord {
	if c.records == nil {
		return []ToolCallRecord{}
	}
	return c.records
}

// Turns returns how many completion round-trips have been consumed.
func (c *Conversation) Turns() int { return c.turns }

// AdvanceTurn consumes one completion round-trip.
func (c *Conversation) AdvanceTurn() { c.turns++ }
