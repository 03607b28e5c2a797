package openai

import "encoding/json"

/*
	CHAT COMPLETIONS API - INPUT
*/

// ChatCompletionRequest is the /chat/completions request body.
type ChatCompletionRequest struct {
	Model            string              `json:"model"`
	Messages         []ChatMessage       `json:"messages"`
	Temperature      *float64            `json:"temperature,omitempty"`
	TopP             *float64            `json:"top_p,omitempty"`
	MaxTokens        *int                `json:"max_tokens,omitempty"`
	FrequencyPenalty *float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64            `json:"presence_penalty,omitempty"`
	Stop             []string            `json:"stop,omitempty"`
	Seed             *int                `json:"seed,omitempty"`
	User             string              `json:"user,omitempty"`
	Stream           bool                `json:"stream,omitempty"`
	StreamOptions    *StreamOptions      `json:"stream_options,omitempty"`
	Tools            []ChatTool          `json:"tools,omitempty"`
	ToolChoice       any                 `json:"tool_choice,omitempty"` // "auto", "none", "required" or a named function
	ParallelToolCall *bool               `json:"parallel_tool_calls,omitempty"`
	ResponseFormat   *ChatResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage is one request message. Content is a string, a []ContentPart,
// or nil (sent as JSON null).
type ChatMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []ChatToolCall `json:"tool_calls,omitempty"`
}

// ContentPart is a multimodal user content part.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ChatTool declares a function tool.
type ChatTool struct {
	Type     string       `json:"type"` // "function"
	Function ChatFunction `json:"function"`
}

// ChatFunction is the function half of ChatTool.
type ChatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatToolCall is a function invocation in an assistant message.
type ChatToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function ChatToolCallFunction `json:"function"`
}

// ChatToolCallFunction holds the raw JSON arguments string.
type ChatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NamedToolChoice forces a specific function.
type NamedToolChoice struct {
	Type     string `json:"type"` // "function"
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// ChatResponseFormat selects text, json_object or json_schema output.
type ChatResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *JSONSchemaSpec `json:"json_schema,omitempty"`
}

// JSONSchemaSpec describes a json_schema response format.
type JSONSchemaSpec struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict bool           `json:"strict,omitempty"`
}

// StreamOptions asks for a trailing usage chunk.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

// ChatCompletionResponse is the non-streaming response body.
type ChatCompletionResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Model   string          `json:"model"`
	Choices []ChatChoice    `json:"choices"`
	Usage   json.RawMessage `json:"usage,omitempty"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int                 `json:"index"`
	Message      ChatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

// ChatResponseMessage is the assistant message of a choice. Reasoning is
// reported under either key depending on the server.
type ChatResponseMessage struct {
	Role             string         `json:"role"`
	Content          *string        `json:"content"`
	Refusal          *string        `json:"refusal,omitempty"`
	Reasoning        *string        `json:"reasoning,omitempty"`
	ReasoningContent *string        `json:"reasoning_content,omitempty"`
	ToolCalls        []ChatToolCall `json:"tool_calls,omitempty"`
}

/*
	CHAT COMPLETIONS STREAMING API
*/

// ChatCompletionChunk is one SSE data payload of a streaming response. Error
// is set when the server reports a failure mid-stream.
type ChatCompletionChunk struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Model   string          `json:"model"`
	Choices []StreamChoice  `json:"choices"`
	Usage   json.RawMessage `json:"usage,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// StreamChoice carries a delta instead of a full message.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta is the incremental part of a choice.
type StreamDelta struct {
	Role             string               `json:"role,omitempty"`
	Content          *string              `json:"content,omitempty"`
	Refusal          *string              `json:"refusal,omitempty"`
	Reasoning        *string              `json:"reasoning,omitempty"`
	ReasoningContent *string              `json:"reasoning_content,omitempty"`
	ToolCalls        []StreamToolCallPart `json:"tool_calls,omitempty"`
}

// StreamToolCallPart is an indexed tool call fragment. ID and name arrive on
// the first fragment for an index.
type StreamToolCallPart struct {
	Index    int                  `json:"index"`
	ID       string               `json:"id,omitempty"`
	Type     string               `json:"type,omitempty"`
	Function ChatToolCallFunction `json:"function"`
}

/*
	ERRORS
*/

// ErrorEnvelope is the body of a failed request.
type ErrorEnvelope struct {
	Error *ErrorBody `json:"error"`
}

// ErrorBody is the OpenAI error object. Code is a string on OpenAI and a
// number on some compatible servers.
type ErrorBody struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Param   string          `json:"param,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}
