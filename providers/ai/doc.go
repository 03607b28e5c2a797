// Package ai defines the canonical vocabulary shared by every provider: the
// request ([Request], [Message], [MessageContent], [ToolDefinition]), the
// terminal [GenerateResult], the ordered [StreamChunk] sequence exposed by
// [ChunkStream], and the four canonical error kinds.
//
// Provider packages (openai, anthropic, gemini) translate between these types
// and their wire formats. Shared helpers normalize token usage
// ([NormalizeUsage]) and finish reasons ([NormalizeFinishReason]), validate
// message shapes before any network call ([ValidateMessages]) and fold any
// failure into a canonical error ([WrapError]).
package ai
