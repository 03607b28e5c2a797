// Package utils provides shared low-level helpers used by the provider
// clients. It covers HTTP request helpers for both synchronous and streaming
// (SSE) communication with provider APIs, best-effort JSON parsing for
// partially written documents, and small pointer and string utilities.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [DoPostStream] together with [SSEScanner] for Server-Sent Events streaming,
// [ParsePartialJSON] for snapshots that may still be incomplete, and
// [HTTPStatusError] for non-2xx responses.
package utils
