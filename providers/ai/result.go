package ai

import "encoding/json"

// FinishReason is the normalized reason generation stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonUnknown       FinishReason = "unknown"
	// FinishReasonError marks a response that carried no choice at all.
	FinishReasonError FinishReason = "error"
)

// TokenUsage uses canonical names only. Fields the provider did not report
// stay nil.
type TokenUsage struct {
	PromptTokens            *int `json:"promptTokens,omitempty"`
	CompletionTokens        *int `json:"completionTokens,omitempty"`
	TotalTokens             *int `json:"totalTokens,omitempty"`
	CachedContentTokenCount *int `json:"cachedContentTokenCount,omitempty"`
}

// Citation links generated text to a source.
type Citation struct {
	SourceID   string `json:"sourceId"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text,omitempty"`
	StartIndex *int   `json:"startIndex,omitempty"`
	EndIndex   *int   `json:"endIndex,omitempty"`
}

// GenerateResult is the terminal artifact of one generation. The streaming
// path synthesizes the same shape at the end of the stream.
type GenerateResult struct {
	ID            string          `json:"id,omitempty"`
	Model         string          `json:"model"`
	Content       *string         `json:"content"`
	ToolCalls     []ToolCall      `json:"toolCalls,omitempty"`
	FinishReason  FinishReason    `json:"finishReason"`
	Usage         *TokenUsage     `json:"usage,omitempty"`
	ThinkingSteps string          `json:"thinkingSteps,omitempty"`
	ParsedContent any             `json:"parsedContent,omitempty"`
	Citations     []Citation      `json:"citations,omitempty"`
	RawResponse   json.RawMessage `json:"rawResponse,omitempty"`
}

// ContentOrNil returns nil for empty text. Both mapping paths use it so an
// absent text channel is always null.
func ContentOrNil(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}

// ContentText returns the content or "" when null.
func (r *GenerateResult) ContentText() string {
	if r == nil || r.Content == nil {
		return ""
	}
	return *r.Content
}
