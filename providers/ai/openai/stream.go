package openai

import (
	"context"
	"iter"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/ai/normalize"
)

// MapStream normalizes a Chat Completions chunk sequence. Only choice 0 is
// followed. A finish_reason closes the message; a usage-only chunk after it
// still lands in final_usage.
func MapStream(ctx context.Context, source iter.Seq2[*ChatCompletionChunk, error], model string, jsonMode bool) *ai.ChunkStream {
	cfg := normalize.Config{
		Provider: ai.ProviderOpenAI,
		Model:    model,
		JSONMode: jsonMode,
		Wrap:     WrapError,
	}
	return normalize.Run(ctx, source, cfg, adaptChunk)
}

func adaptChunk(chunk *ChatCompletionChunk, automaton *normalize.Automaton) error {
	if chunk == nil {
		return nil
	}
	if chunk.Error != nil {
		return newAPIError(0, chunk.Error, nil)
	}

	automaton.Start(chunk.ID, chunk.Model)

	if fields := usageFields(chunk.Usage); fields != nil {
		automaton.Usage(fields)
	}

	for _, choice := range chunk.Choices {
		if choice.Index != 0 {
			continue
		}
		delta := choice.Delta

		automaton.ThinkingDelta(firstNonEmpty(deref(delta.ReasoningContent), deref(delta.Reasoning)))
		automaton.Text(deref(delta.Content))
		automaton.Text(deref(delta.Refusal))

		for _, part := range delta.ToolCalls {
			if part.ID != "" || part.Function.Name != "" {
				automaton.ToolStart(part.Index, part.ID, part.Function.Name)
			}
			automaton.ToolDelta(part.Index, part.Function.Arguments)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			automaton.Stop(*choice.FinishReason)
		}
	}
	return nil
}
