package ai

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn. Content may be null, text, or a list of
// parts; see [MessageContent]. Assistant turns may carry ToolCalls, and tool
// turns answer the call named by ToolCallID.
type Message struct {
	Role       Role           `json:"role"`
	Content    MessageContent `json:"content"`
	ToolCalls  []ToolCall     `json:"toolCalls,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
}

// ToolDefinition describes a function the model may call. Parameters is a
// JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a model-issued invocation. Arguments is the raw JSON text as
// produced by the model and is never parsed by the mappers.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the function and carries its raw arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolTypeFunction is the only tool call type produced.
const ToolTypeFunction = "function"

// Tool choice values. Any other non-empty value names a specific tool.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// ThinkingConfig enables an explicit reasoning channel.
type ThinkingConfig struct {
	BudgetTokens int `json:"budgetTokens,omitempty"`
}

// Response format types.
const (
	ResponseFormatText       = "text"
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// ResponseFormat requests a single JSON document instead of free text.
type ResponseFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict bool           `json:"strict,omitempty"`
}

// Settings holds sampling parameters and optional capabilities.
type Settings struct {
	MaxTokens      *int            `json:"maxTokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	TopP           *float64        `json:"topP,omitempty"`
	StopSequences  []string        `json:"stopSequences,omitempty"`
	Thinking       *ThinkingConfig `json:"thinking,omitempty"`
	Grounding      bool            `json:"grounding,omitempty"`
	ResponseFormat *ResponseFormat `json:"responseFormat,omitempty"`
}

// JSONMode reports whether the caller asked for a JSON document.
func (s Settings) JSONMode() bool {
	if s.ResponseFormat == nil {
		return false
	}
	return s.ResponseFormat.Type == ResponseFormatJSONObject || s.ResponseFormat.Type == ResponseFormatJSONSchema
}

// Request is the canonical generation request. ProviderOptions holds
// provider-specific knobs that have no canonical equivalent; each provider
// documents the keys it reads and ignores the rest.
type Request struct {
	Provider        ProviderID       `json:"provider"`
	Model           string           `json:"model"`
	Messages        []Message        `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	ToolChoice      string           `json:"toolChoice,omitempty"`
	Settings        Settings         `json:"settings"`
	ProviderOptions map[string]any   `json:"providerOptions,omitempty"`
}
