package ai

// ChunkType discriminates [StreamChunk].
type ChunkType string

const (
	ChunkMessageStart  ChunkType = "message_start"
	ChunkContentDelta  ChunkType = "content_delta"
	ChunkThinkingStart ChunkType = "thinking_start"
	ChunkThinkingDelta ChunkType = "thinking_delta"
	ChunkThinkingStop  ChunkType = "thinking_stop"
	ChunkToolCallStart ChunkType = "tool_call_start"
	ChunkToolCallDelta ChunkType = "tool_call_delta"
	ChunkToolCallDone  ChunkType = "tool_call_done"
	ChunkJSONDelta     ChunkType = "json_delta"
	ChunkJSONDone      ChunkType = "json_done"
	ChunkCitationDelta ChunkType = "citation_delta"
	ChunkCitationDone  ChunkType = "citation_done"
	ChunkMessageStop   ChunkType = "message_stop"
	ChunkFinalUsage    ChunkType = "final_usage"
	ChunkFinalResult   ChunkType = "final_result"
	ChunkError         ChunkType = "error"
)

// StreamChunk is one canonical stream event. Only the payload field matching
// Type is set:
//
//	message_start                    ID, Model
//	content_delta, thinking_delta    Delta
//	tool_call_start/delta/done       ToolCall
//	json_delta, json_done            JSON
//	citation_delta                   Citation
//	message_stop                     FinishReason
//	final_usage                      Usage
//	final_result                     Result
//	error                            Err
type StreamChunk struct {
	Type         ChunkType       `json:"type"`
	ID           string          `json:"id,omitempty"`
	Model        string          `json:"model,omitempty"`
	Delta        string          `json:"delta,omitempty"`
	ToolCall     *ToolCallDelta  `json:"toolCall,omitempty"`
	JSON         *JSONSnapshot   `json:"json,omitempty"`
	Citation     *Citation       `json:"citation,omitempty"`
	FinishReason FinishReason    `json:"finishReason,omitempty"`
	Usage        *TokenUsage     `json:"usage,omitempty"`
	Result       *GenerateResult `json:"result,omitempty"`
	Err          error           `json:"-"`
}

// ToolCallDelta is the payload of the tool_call_* chunks. ID and Name are set
// on start and done; ArgumentsDelta on delta; Arguments (the complete string)
// on done.
type ToolCallDelta struct {
	Index          int    `json:"index"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	ArgumentsDelta string `json:"argumentsDelta,omitempty"`
	Arguments      string `json:"arguments,omitempty"`
}

// JSONSnapshot carries the running JSON document and its best-effort parse.
// Parsed is nil while the snapshot is not yet parseable.
type JSONSnapshot struct {
	Snapshot string `json:"snapshot"`
	Parsed   any    `json:"parsed,omitempty"`
}
