package observability

// Attribute names shared by every component so records can be filtered
// uniformly regardless of which provider emitted them.

// --- LLM attributes ---

const (
	// AttrLLMProvider is the provider identity ("openai", "anthropic", "gemini").
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the requested or reported model name.
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL.
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the response identifier reported by the provider.
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the canonical finish reason.
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMStreaming is true for streaming calls.
	AttrLLMStreaming = "llm.streaming"
)

// --- Token usage ---

const (
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- LLM tokens, not credentials
)

// --- Request / stream ---

const (
	// AttrRequestMessagesCount is the number of canonical messages sent.
	AttrRequestMessagesCount = "request.messages_count"

	// AttrRequestToolsCount is the number of tool definitions sent.
	AttrRequestToolsCount = "request.tools_count"

	// AttrStreamEvents is the number of native events consumed.
	AttrStreamEvents = "stream.events"

	// AttrStreamEvent is the native event type being handled.
	AttrStreamEvent = "stream.event"
)

// --- HTTP ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
	AttrHTTPDuration         = "http.request.duration"
)

// --- General ---

const (
	// AttrError is the error message.
	AttrError = "error"

	// AttrErrorKind is the canonical error kind name.
	AttrErrorKind = "error.kind"

	// AttrDuration is an operation duration.
	AttrDuration = "duration"
)
