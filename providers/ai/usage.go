package ai

import (
	"encoding/json"
	"math"
)

// Usage aliases in priority order.
var (
	promptTokenKeys     = []string{"prompt_tokens", "input_tokens", "promptTokenCount"}
	completionTokenKeys = []string{"completion_tokens", "output_tokens", "candidatesTokenCount"}
	totalTokenKeys      = []string{"total_tokens", "totalTokenCount"}
	cachedTokenKeys     = []string{"cachedContentTokenCount"}
)

// NormalizeUsage collapses provider usage fields into a TokenUsage.
//
// The first alias present wins for each field. The total is computed when it
// is absent and both halves are known; a total alone leaves the halves nil.
// An empty or unrecognized object yields nil, never a zeroed record.
func NormalizeUsage(raw map[string]any) *TokenUsage {
	if len(raw) == 0 {
		return nil
	}

	usage := &TokenUsage{
		PromptTokens:            firstCount(raw, promptTokenKeys),
		CompletionTokens:        firstCount(raw, completionTokenKeys),
		TotalTokens:             firstCount(raw, totalTokenKeys),
		CachedContentTokenCount: firstCount(raw, cachedTokenKeys),
	}

	if usage.TotalTokens == nil && usage.PromptTokens != nil && usage.CompletionTokens != nil {
		total := *usage.PromptTokens + *usage.CompletionTokens
		usage.TotalTokens = &total
	}

	if usage.PromptTokens == nil && usage.CompletionTokens == nil &&
		usage.TotalTokens == nil && usage.CachedContentTokenCount == nil {
		return nil
	}
	return usage
}

// NormalizeUsageJSON decodes a raw usage object and normalizes it. Invalid or
// non-object JSON yields nil.
func NormalizeUsageJSON(raw json.RawMessage) *TokenUsage {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return NormalizeUsage(fields)
}

func firstCount(raw map[string]any, keys []string) *int {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if count, ok := toCount(value); ok {
			return &count
		}
	}
	return nil
}

func toCount(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case *int:
		if v == nil {
			return 0, false
		}
		return *v, true
	default:
		return 0, false
	}
}
