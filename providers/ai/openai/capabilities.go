package openai

import "github.com/leofalp/unillm/providers/ai"

// capabilities of the Chat Completions API as mapped here. Reasoning deltas
// are still surfaced when a compatible server sends them, but thinking
// cannot be requested.
var capabilities = ai.Capabilities{
	Thinking:         false,
	Grounding:        false,
	JSONMode:         true,
	StrictToolSchema: true,
}

// Capabilities returns the feature set of this provider.
func Capabilities() ai.Capabilities {
	return capabilities
}
