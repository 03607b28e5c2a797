package normalize

import (
	"context"
	"iter"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// Adapter translates one native event into automaton signals. Returning an
// error aborts the stream through the error path.
type Adapter[E any] func(event E, automaton *Automaton) error

// Run normalizes a native event source into a canonical chunk stream.
//
// Chunks queued by the adapter are yielded after each event. When the source
// ends, Run finalizes the automaton (message_stop if the source never sent
// one, final_usage when usage was seen, then final_result). When the source
// or the adapter fails, Run yields one error chunk carrying the wrapped
// failure and then yields that same error as the iterator error; nothing
// follows. If the consumer stops early, Run stops pulling from the source.
func Run[E any](ctx context.Context, source iter.Seq2[E, error], cfg Config, adapt Adapter[E]) *ai.ChunkStream {
	return ai.NewChunkStream(func(yield func(ai.StreamChunk, error) bool) {
		automaton := New(cfg)
		observer := observability.ObserverFromContext(ctx)
		events := 0

		fail := func(err error) {
			wrapped := cfg.wrap(err)
			if observer != nil {
				observer.Error(ctx, "stream failed",
					observability.String(observability.AttrLLMProvider, string(cfg.Provider)),
					observability.Int(observability.AttrStreamEvents, events),
					observability.Error(wrapped),
				)
			}
			if !yield(ai.StreamChunk{Type: ai.ChunkError, Err: wrapped}, nil) {
				return
			}
			yield(ai.StreamChunk{}, wrapped)
		}

		for event, err := range source {
			if err != nil {
				if !automaton.drain(yield) {
					return
				}
				fail(err)
				return
			}
			events++
			if adaptErr := adapt(event, automaton); adaptErr != nil {
				if !automaton.drain(yield) {
					return
				}
				fail(adaptErr)
				return
			}
			if !automaton.drain(yield) {
				return
			}
		}

		result := automaton.Finish()
		if observer != nil {
			attrs := []observability.Attribute{
				observability.String(observability.AttrLLMProvider, string(cfg.Provider)),
				observability.String(observability.AttrLLMModel, result.Model),
				observability.String(observability.AttrLLMFinishReason, string(result.FinishReason)),
				observability.Int(observability.AttrStreamEvents, events),
			}
			if result.Usage != nil && result.Usage.TotalTokens != nil {
				attrs = append(attrs, observability.Int(observability.AttrLLMTokensTotal, *result.Usage.TotalTokens))
			}
			observer.Debug(ctx, "stream completed", attrs...)
		}
		automaton.drain(yield)
	})
}
