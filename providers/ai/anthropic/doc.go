// Package anthropic maps canonical requests onto the Anthropic Messages API
// and maps its responses, SSE events and error envelopes back to canonical
// values.
//
// System messages are lifted into the top-level system field, tool results
// travel as tool_result blocks inside user turns, and max_tokens defaults to
// 4096 because the API requires it. [New] reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment.
package anthropic
