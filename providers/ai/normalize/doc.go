// Package normalize holds the stream automaton shared by every provider.
//
// A provider adapter turns each native stream event into open/delta/close
// calls on an [Automaton] (Start, Text, ThinkingDelta, ToolStart, ToolDelta,
// ToolDone, Citation, Usage, Stop, ...). The automaton owns the accumulation
// buffers and the emission order; [Run] drives it over a native event
// iterator and applies the error contract of ai.ChunkStream.
package normalize
