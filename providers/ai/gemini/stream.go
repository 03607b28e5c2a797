package gemini

import (
	"context"
	"iter"
	"strconv"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/ai/normalize"
)

// streamState numbers function calls across chunks and remembers which
// citations were already emitted; grounding metadata may be repeated.
type streamState struct {
	tools int
	cited map[string]bool
}

// MapStream normalizes a streamGenerateContent chunk sequence. Function
// calls arrive whole, so each one opens, fills and closes its tool call in a
// single step.
func MapStream(ctx context.Context, source iter.Seq2[*GenerateContentResponse, error], model string, jsonMode bool) *ai.ChunkStream {
	cfg := normalize.Config{
		Provider: ai.ProviderGemini,
		Model:    model,
		JSONMode: jsonMode,
		Wrap:     WrapError,
	}
	state := &streamState{cited: make(map[string]bool)}
	return normalize.Run(ctx, source, cfg, state.adapt)
}

func (s *streamState) adapt(chunk *GenerateContentResponse, automaton *normalize.Automaton) error {
	if chunk == nil {
		return nil
	}
	if chunk.Error != nil {
		return newAPIError(0, chunk.Error, nil)
	}

	automaton.Start(chunk.ResponseID, chunk.ModelVersion)
	automaton.Usage(usageFields(chunk.UsageMetadata))

	if len(chunk.Candidates) == 0 {
		return nil
	}
	candidate := chunk.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				index := s.tools
				s.tools++
				automaton.ToolStart(index, part.FunctionCall.ID, part.FunctionCall.Name)
				automaton.ToolDelta(index, utils.CompactJSON(part.FunctionCall.Args))
				automaton.ToolDone(index)
			case part.Text != nil && part.Thought:
				automaton.ThinkingDelta(*part.Text)
			case part.Text != nil:
				automaton.Text(*part.Text)
			}
		}
	}

	for _, citation := range citations(candidate.GroundingMetadata) {
		key := citation.SourceID + "|" + citation.Text + "|" + position(citation.StartIndex) + "|" + position(citation.EndIndex)
		if s.cited[key] {
			continue
		}
		s.cited[key] = true
		automaton.Citation(citation)
	}

	if candidate.FinishReason != "" {
		automaton.Stop(candidate.FinishReason)
	}
	return nil
}

func position(index *int) string {
	if index == nil {
		return ""
	}
	return strconv.Itoa(*index)
}
