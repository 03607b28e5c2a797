// Package observability defines the logging contract and attribute names used
// across unillm.
//
// Components never log through a global. They fetch the [Observer] carried by
// the request context with [ObserverFromContext] and emit structured records
// with [Attribute] values. A nil observer means "do not log"; every call site
// checks for it. The slogobs subpackage provides the log/slog implementation.
package observability
