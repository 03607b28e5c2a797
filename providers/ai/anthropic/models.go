package anthropic

import "encoding/json"

/*
	MESSAGES API - REQUEST TYPES
*/

// MessagesRequest is the body of POST /v1/messages.
type MessagesRequest struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        json.RawMessage `json:"system,omitempty"` // string or []ContentBlock
	MaxTokens     int             `json:"max_tokens"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
}

// ThinkingConfig enables extended thinking with a token budget.
type ThinkingConfig struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// Message is one user or assistant turn.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is the request-side content union.
type ContentBlock struct {
	Type         string          `json:"type"`
	Text         *string         `json:"text,omitempty"`
	Source       *ImageSource    `json:"source,omitempty"`      // image
	ID           string          `json:"id,omitempty"`          // tool_use
	Name         string          `json:"name,omitempty"`        // tool_use
	Input        json.RawMessage `json:"input,omitempty"`       // tool_use
	ToolUseID    string          `json:"tool_use_id,omitempty"` // tool_result
	Content      *string         `json:"content,omitempty"`     // tool_result
	CacheControl *CacheControl   `json:"cache_control,omitempty"`
}

// ImageSource carries inline image bytes.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// CacheControl marks a prompt caching breakpoint.
type CacheControl struct {
	Type string `json:"type"` // "ephemeral"
}

// Tool declares a client tool.
type Tool struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"input_schema"`
	CacheControl *CacheControl  `json:"cache_control,omitempty"`
}

// ToolChoice is "auto", "any", "none" or "tool" with a name.
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Metadata identifies the end user.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

/*
	MESSAGES API - RESPONSE TYPES
*/

// MessagesResponse is a complete message.
type MessagesResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"` // "message"
	Role         string          `json:"role"`
	Model        string          `json:"model"`
	Content      []ResponseBlock `json:"content"`
	StopReason   string          `json:"stop_reason"`
	StopSequence string          `json:"stop_sequence,omitempty"`
	Usage        json.RawMessage `json:"usage,omitempty"`
}

// ResponseBlock is one content block of a response: text, thinking,
// redacted_thinking or tool_use.
type ResponseBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Citations []TextCitation  `json:"citations,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
}

// TextCitation locates the source of a text span. Which fields are set
// depends on Type (char_location, page_location, web_search_result_location,
// and so on).
type TextCitation struct {
	Type           string `json:"type"`
	CitedText      string `json:"cited_text,omitempty"`
	DocumentIndex  *int   `json:"document_index,omitempty"`
	DocumentTitle  string `json:"document_title,omitempty"`
	StartCharIndex *int   `json:"start_char_index,omitempty"`
	EndCharIndex   *int   `json:"end_char_index,omitempty"`
	URL            string `json:"url,omitempty"`
	Title          string `json:"title,omitempty"`
}

/*
	SSE STREAMING - EVENT TYPES

	message_start -> (content_block_start -> content_block_delta* ->
	content_block_stop)* -> message_delta -> message_stop, with ping and
	error events possible at any point.
*/

// StreamEvent is the decoded data payload of one SSE event.
type StreamEvent struct {
	Type         string            `json:"type"`
	Message      *MessagesResponse `json:"message,omitempty"`       // message_start
	Index        int               `json:"index"`                   // content_block_*
	ContentBlock *ResponseBlock    `json:"content_block,omitempty"` // content_block_start
	Delta        *StreamDelta      `json:"delta,omitempty"`         // content_block_delta, message_delta
	Usage        json.RawMessage   `json:"usage,omitempty"`         // message_delta
	Error        *ErrorBody        `json:"error,omitempty"`         // error
}

// StreamDelta is either a block delta (text_delta, thinking_delta,
// signature_delta, input_json_delta, citations_delta) or a message delta.
type StreamDelta struct {
	Type         string        `json:"type,omitempty"`
	Text         string        `json:"text,omitempty"`
	Thinking     string        `json:"thinking,omitempty"`
	PartialJSON  string        `json:"partial_json,omitempty"`
	Citation     *TextCitation `json:"citation,omitempty"`
	StopReason   string        `json:"stop_reason,omitempty"`
	StopSequence string        `json:"stop_sequence,omitempty"`
}

/*
	ERRORS
*/

// ErrorEnvelope is the body of a failed request.
type ErrorEnvelope struct {
	Type      string     `json:"type"` // "error"
	Error     *ErrorBody `json:"error"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorBody is shared by error envelopes and error stream events.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
