// Package openai maps canonical requests onto the OpenAI Chat Completions
// API (and compatible servers) and maps its responses, SSE chunks and error
// envelopes back to canonical values.
//
// [MapRequest], [MapResponse], [MapStream] and [WrapError] are pure mapping
// functions; [OpenAIProvider] wires them to a [Transport]. [New] reads
// OPENAI_API_KEY and OPENAI_API_BASE_URL from the environment.
package openai
