// Package gemini maps canonical requests onto the Gemini generateContent API
// and maps its responses, SSE chunks and error envelopes back to canonical
// values.
//
// System messages become the systemInstruction, tool results are sent as
// functionResponse parts whose name is resolved from the earlier call, and
// grounding supports are reported as citations. [New] reads GEMINI_API_KEY
// and GEMINI_API_BASE_URL from the environment.
package gemini
