package gemini

import "github.com/leofalp/unillm/providers/ai"

// Gemini accepts any JSON Schema for function parameters, so tool schemas
// are not checked strictly.
var capabilities = ai.Capabilities{
	Thinking:         true,
	Grounding:        true,
	JSONMode:         true,
	StrictToolSchema: false,
}

// Capabilities returns the feature set of this provider.
func Capabilities() ai.Capabilities {
	return capabilities
}
