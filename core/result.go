package core

import "encoding/json"

// ToolResult is the normalized outcome of executing one tool invocation.
// Exactly one of Payload and Err is populated; results are immutable once
// produced.
type ToolResult struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Payload   any            `json:"payload,omitempty"`
	Err       string         `json:"error,omitempty"`
}

// Failed reports whether the invocation resolved to an error.
func (r ToolResult) Failed() bool { return r.Err != "" }

// Output returns the caller-visible result value: the payload on success or
// an {"error": ...} object on failure. This is the shape serialized into
// tool-role messages and trace records.
func (r ToolResult) Output() any {
	if r.Failed() {
		return map[string]any{"error": r.Err}
	}
	return r.Payload
}

// Serialize renders the output as compact JSON for the tool-role transcript
// message. Serialization failures degrade to an error object rather than
// propagating.
func (r ToolResult) Serialize() string {
	b, err := json.Marshal(r.Output())
	if err != nil {
		return `{"error":"unserializable tool result"}`
	}
	return string(b)
}

// ToolCallRecord is the externally visible trace entry combining an
// invocation and its result. Records accumulate in insertion order for the
// duration of one request and are returned to the caller; they are never
// persisted beyond it.
type ToolCallRecord struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
}

// NewToolCallRecord builds the trace entry for a completed invocation.
func NewToolCallRecord(res ToolResult) ToolCallRecord {
	return ToolCallRecord{
		Tool:      res.ToolName,
		Arguments: res.Arguments,
		Result:    res.Output(),
	}
}
