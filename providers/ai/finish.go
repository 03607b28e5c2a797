package ai

import "strings"

var finishReasons = map[string]FinishReason{
	// natural stop
	"stop":               FinishReasonStop,
	"end_turn":           FinishReasonStop,
	"stop_sequence":      FinishReasonStop,
	"pause_turn":         FinishReasonStop,
	"finish_reason_stop": FinishReasonStop,

	// token limit
	"length":                        FinishReasonLength,
	"max_tokens":                    FinishReasonLength,
	"model_context_window_exceeded": FinishReasonLength,

	// tool invocation
	"tool_calls":    FinishReasonToolCalls,
	"tool_use":      FinishReasonToolCalls,
	"function_call": FinishReasonToolCalls,

	// safety
	"content_filter":     FinishReasonContentFilter,
	"safety":             FinishReasonContentFilter,
	"recitation":         FinishReasonContentFilter,
	"blocklist":          FinishReasonContentFilter,
	"prohibited_content": FinishReasonContentFilter,
	"spii":               FinishReasonContentFilter,
	"image_safety":       FinishReasonContentFilter,
	"refusal":            FinishReasonContentFilter,
}

// NormalizeFinishReason maps a provider-native finish reason to the canonical
// enum. Matching is case-insensitive; absent or unknown values map to
// FinishReasonUnknown.
func NormalizeFinishReason(native string) FinishReason {
	if reason, ok := finishReasons[strings.ToLower(strings.TrimSpace(native))]; ok {
		return reason
	}
	return FinishReasonUnknown
}

// ResolveFinishReason normalizes native and reports tool_calls when the
// provider ended naturally but the response carries tool calls. Gemini, for
// one, reports STOP for function-call turns.
func ResolveFinishReason(native string, hasToolCalls bool) FinishReason {
	reason := NormalizeFinishReason(native)
	if hasToolCalls && reason == FinishReasonStop {
		return FinishReasonToolCalls
	}
	return reason
}
