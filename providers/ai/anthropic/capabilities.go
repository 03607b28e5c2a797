package anthropic

import "github.com/leofalp/unillm/providers/ai"

var capabilities = ai.Capabilities{
	Thinking:         true,
	Grounding:        false,
	JSONMode:         false,
	StrictToolSchema: true,
}

// Capabilities returns the feature set of this provider.
func Capabilities() ai.Capabilities {
	return capabilities
}
