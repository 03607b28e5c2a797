package anthropic

import (
	"context"
	"iter"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/ai/normalize"
)

// Block kinds tracked per content block index.
const (
	blockText     = "text"
	blockThinking = "thinking"
	blockToolUse  = "tool_use"
)

type blockState struct {
	kind string
	// tool is the canonical tool index: the ordinal of this block among the
	// tool_use blocks of the message.
	tool int
}

// streamState maps content block indexes to block kinds. Tool calls are
// numbered in the order their blocks start.
type streamState struct {
	blocks map[int]blockState
	tools  int
}

// MapStream normalizes a Messages API event sequence.
func MapStream(ctx context.Context, source iter.Seq2[*StreamEvent, error], model string) *ai.ChunkStream {
	cfg := normalize.Config{
		Provider: ai.ProviderAnthropic,
		Model:    model,
		Wrap:     WrapError,
	}
	state := &streamState{blocks: make(map[int]blockState)}
	return normalize.Run(ctx, source, cfg, state.adapt)
}

func (s *streamState) adapt(event *StreamEvent, automaton *normalize.Automaton) error {
	if event == nil {
		return nil
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil {
			automaton.Start(event.Message.ID, event.Message.Model)
			automaton.Usage(usageFields(event.Message.Usage))
		} else {
			automaton.Start("", "")
		}

	case "content_block_start":
		if event.ContentBlock == nil {
			return nil
		}
		block := event.ContentBlock
		switch block.Type {
		case "tool_use":
			state := blockState{kind: blockToolUse, tool: s.tools}
			s.tools++
			s.blocks[event.Index] = state
			automaton.ToolStart(state.tool, block.ID, block.Name)
		case "thinking":
			s.blocks[event.Index] = blockState{kind: blockThinking}
			automaton.ThinkingDelta(block.Thinking)
		case "text":
			s.blocks[event.Index] = blockState{kind: blockText}
			automaton.Text(block.Text)
		}

	case "content_block_delta":
		if event.Delta == nil {
			return nil
		}
		delta := event.Delta
		switch delta.Type {
		case "text_delta":
			automaton.Text(delta.Text)
		case "thinking_delta":
			automaton.ThinkingDelta(delta.Thinking)
		case "input_json_delta":
			if state, ok := s.blocks[event.Index]; ok && state.kind == blockToolUse {
				automaton.ToolDelta(state.tool, delta.PartialJSON)
			}
		case "citations_delta":
			if delta.Citation != nil {
				automaton.Citation(mapCitation(*delta.Citation))
			}
		}

	case "content_block_stop":
		switch state := s.blocks[event.Index]; state.kind {
		case blockThinking:
			automaton.ThinkingStop()
		case blockToolUse:
			automaton.ToolDone(state.tool)
		case blockText:
			automaton.CitationsDone()
		}

	case "message_delta":
		automaton.Usage(usageFields(event.Usage))
		if event.Delta != nil && event.Delta.StopReason != "" {
			automaton.Stop(event.Delta.StopReason)
		}

	case "message_stop":
		automaton.Stop("")

	case "error":
		return newAPIError(0, event.Error, nil)
	}
	return nil
}
