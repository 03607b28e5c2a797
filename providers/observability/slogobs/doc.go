// Package slogobs implements observability.Observer on top of log/slog.
//
// [New] builds an Observer whose output format and level come from
// UNILLM_LOG_FORMAT and UNILLM_LOG_LEVEL unless overridden with [WithFormat],
// [WithLevel], [WithOutput] or [WithLogger].
package slogobs
