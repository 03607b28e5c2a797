package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/unillm/providers/ai"
)

// step is a scripted native event: it drives the automaton directly.
type step func(a *Automaton)

func source(steps []step, failAfter int, failure error) iter.Seq2[step, error] {
	return func(yield func(step, error) bool) {
		for i, s := range steps {
			if failure != nil && i == failAfter {
				yield(nil, failure)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
		if failure != nil && failAfter >= len(steps) {
			yield(nil, failure)
		}
	}
}

func apply(event step, a *Automaton) error {
	event(a)
	return nil
}

func collect(t *testing.T, stream *ai.ChunkStream) ([]ai.StreamChunk, error) {
	t.Helper()
	var chunks []ai.StreamChunk
	for chunk, err := range stream.Iter() {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func chunkTypes(chunks []ai.StreamChunk) []ai.ChunkType {
	types := make([]ai.ChunkType, len(chunks))
	for i, chunk := range chunks {
		types[i] = chunk.Type
	}
	return types
}

// assertOrdering checks the ordering invariant on a successful run.
func assertOrdering(t *testing.T, chunks []ai.StreamChunk) {
	t.Helper()
	require.NotEmpty(t, chunks)
	assert.Equal(t, ai.ChunkMessageStart, chunks[0].Type)
	assert.Equal(t, ai.ChunkFinalResult, chunks[len(chunks)-1].Type)

	starts, finals, stops := 0, 0, 0
	opened := map[int]bool{}
	for i, chunk := range chunks {
		switch chunk.Type {
		case ai.ChunkMessageStart:
			starts++
		case ai.ChunkFinalResult:
			finals++
		case ai.ChunkMessageStop:
			stops++
			for _, later := range chunks[:i] {
				assert.NotEqual(t, ai.ChunkFinalUsage, later.Type, "final_usage before message_stop")
			}
		case ai.ChunkToolCallStart:
			opened[chunk.ToolCall.Index] = true
		case ai.ChunkToolCallDelta, ai.ChunkToolCallDone:
			assert.True(t, opened[chunk.ToolCall.Index], "tool chunk for index %d before its start", chunk.ToolCall.Index)
		}
	}
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, finals)
	assert.Equal(t, 1, stops)
}

func TestRun_TextStream_EmitsOrderedChunksAndResult(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Start("msg_1", "model-x") },
		func(a *Automaton) { a.Text("Hello") },
		func(a *Automaton) { a.Text(", world") },
		func(a *Automaton) { a.Stop("stop") },
		func(a *Automaton) {
			a.Usage(map[string]any{"prompt_tokens": float64(10), "completion_tokens": float64(5)})
		},
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderOpenAI}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)

	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart, ai.ChunkContentDelta, ai.ChunkContentDelta,
		ai.ChunkMessageStop, ai.ChunkFinalUsage, ai.ChunkFinalResult,
	}, chunkTypes(chunks))

	result := chunks[len(chunks)-1].Result
	require.NotNil(t, result)
	assert.Equal(t, "Hello, world", *result.Content)
	assert.Equal(t, "model-x", result.Model)
	assert.Equal(t, "msg_1", result.ID)
	assert.Equal(t, ai.FinishReasonStop, result.FinishReason)
	require.NotNil(t, result.Usage)
	assert.Equal(t, 15, *result.Usage.TotalTokens)
}

// TestRun_ToolArgumentFragments_Concatenated reconstructs arguments from raw
// fragments without reformatting them.
func TestRun_ToolArgumentFragments_Concatenated(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Start("", "m") },
		func(a *Automaton) { a.ToolStart(0, "call_a", "add") },
		func(a *Automaton) { a.ToolDelta(0, `{"a":`) },
		func(a *Automaton) { a.ToolDelta(0, ` 1}`) },
		func(a *Automaton) { a.ToolDone(0) },
		func(a *Automaton) { a.Stop("tool_calls") },
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderOpenAI}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)

	result := chunks[len(chunks)-1].Result
	require.Len(t, result.ToolCalls, 1)
	call := result.ToolCalls[0]
	assert.Equal(t, `{"a": 1}`, call.Function.Arguments)
	assert.Equal(t, "call_a", call.ID)
	assert.Equal(t, "add", call.Function.Name)
	assert.Equal(t, ai.ToolTypeFunction, call.Type)
	assert.Nil(t, result.Content)
	assert.Equal(t, ai.FinishReasonToolCalls, result.FinishReason)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Function.Arguments), &parsed))
	assert.Equal(t, map[string]any{"a": float64(1)}, parsed)
}

// TestRun_InterleavedTools_DeltaBeforeStart buffers early fragments and keeps
// the per-index ordering.
func TestRun_InterleavedTools_DeltaBeforeStart(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.ToolDelta(1, `{"b":`) },
		func(a *Automaton) { a.ToolStart(0, "c0", "first") },
		func(a *Automaton) { a.ToolStart(1, "c1", "second") },
		func(a *Automaton) { a.ToolDelta(0, `{}`) },
		func(a *Automaton) { a.ToolDelta(1, `2}`) },
		func(a *Automaton) { a.Stop("") },
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderOpenAI, Model: "fallback"}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)

	result := chunks[len(chunks)-1].Result
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "first", result.ToolCalls[0].Function.Name)
	assert.Equal(t, "{}", result.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "second", result.ToolCalls[1].Function.Name)
	assert.Equal(t, `{"b":2}`, result.ToolCalls[1].Function.Arguments)
	assert.Equal(t, "fallback", result.Model)
	assert.Equal(t, ai.FinishReasonUnknown, result.FinishReason)

	// Both open calls are closed by Stop, in index order.
	var done []int
	for _, chunk := range chunks {
		if chunk.Type == ai.ChunkToolCallDone {
			done = append(done, chunk.ToolCall.Index)
		}
	}
	assert.Equal(t, []int{0, 1}, done)
}

func TestRun_Thinking_SeparateChannel(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Start("id", "m") },
		func(a *Automaton) { a.ThinkingDelta("let me ") },
		func(a *Automaton) { a.ThinkingDelta("think") },
		func(a *Automaton) { a.Text("answer") },
		func(a *Automaton) { a.Stop("end_turn") },
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderAnthropic}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)
	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart, ai.ChunkThinkingStart, ai.ChunkThinkingDelta, ai.ChunkThinkingDelta,
		ai.ChunkThinkingStop, ai.ChunkContentDelta, ai.ChunkMessageStop, ai.ChunkFinalResult,
	}, chunkTypes(chunks))

	result := chunks[len(chunks)-1].Result
	assert.Equal(t, "let me think", result.ThinkingSteps)
	assert.Equal(t, "answer", *result.Content)
	assert.Nil(t, result.Usage)
}

func TestRun_JSONMode_SnapshotsAndParse(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Start("id", "m") },
		func(a *Automaton) { a.Text(`{"city":`) },
		func(a *Automaton) { a.Text(`"Paris"}`) },
		func(a *Automaton) { a.Stop("stop") },
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderGemini, JSONMode: true}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)
	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart, ai.ChunkJSONDelta, ai.ChunkJSONDelta,
		ai.ChunkJSONDone, ai.ChunkMessageStop, ai.ChunkFinalResult,
	}, chunkTypes(chunks))

	assert.Equal(t, `{"city":`, chunks[1].JSON.Snapshot)
	assert.Equal(t, `{"city":"Paris"}`, chunks[2].JSON.Snapshot)
	assert.Equal(t, map[string]any{"city": "Paris"}, chunks[3].JSON.Parsed)

	result := chunks[len(chunks)-1].Result
	assert.Equal(t, `{"city":"Paris"}`, *result.Content)
	assert.Equal(t, map[string]any{"city": "Paris"}, result.ParsedContent)
}

func TestRun_Citations_DoNotTouchText(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Text("fact") },
		func(a *Automaton) { a.Citation(ai.Citation{SourceID: "doc-1", Text: "fact"}) },
		func(a *Automaton) { a.Stop("stop") },
	}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderAnthropic}, apply))
	require.NoError(t, err)
	assertOrdering(t, chunks)
	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart, ai.ChunkContentDelta, ai.ChunkCitationDelta,
		ai.ChunkCitationDone, ai.ChunkMessageStop, ai.ChunkFinalResult,
	}, chunkTypes(chunks))

	result := chunks[len(chunks)-1].Result
	assert.Equal(t, "fact", *result.Content)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "doc-1", result.Citations[0].SourceID)
}

// TestRun_SourceFailure_DualSignal: two valid events, then the error chunk,
// then the same wrapped error from the next iteration step.
func TestRun_SourceFailure_DualSignal(t *testing.T) {
	steps := []step{
		func(a *Automaton) { a.Start("id", "m") },
		func(a *Automaton) { a.Text("partial") },
		func(a *Automaton) { a.Stop("stop") },
	}
	upstream := errors.New("connection reset")

	var chunks []ai.StreamChunk
	var iterErrs []error
	for chunk, err := range Run(context.Background(), source(steps, 2, upstream), Config{Provider: ai.ProviderOpenAI}, apply).Iter() {
		if err != nil {
			iterErrs = append(iterErrs, err)
			continue
		}
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []ai.ChunkType{ai.ChunkMessageStart, ai.ChunkContentDelta, ai.ChunkError}, chunkTypes(chunks))
	require.Len(t, iterErrs, 1)

	errorChunk := chunks[2]
	assert.Same(t, errorChunk.Err, iterErrs[0])

	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, iterErrs[0], &apiErr)
	assert.Equal(t, ai.ProviderOpenAI, apiErr.Provider)
	assert.ErrorIs(t, iterErrs[0], upstream)
}

func TestRun_AdapterFailure_UsesErrorPath(t *testing.T) {
	mappingErr := ai.NewMappingError(ai.ProviderGemini, "chunk", "bad payload")
	failing := func(event step, a *Automaton) error {
		if event == nil {
			return mappingErr
		}
		event(a)
		return nil
	}
	steps := []step{func(a *Automaton) { a.Text("x") }, nil}

	chunks, err := collect(t, Run(context.Background(), source(steps, -1, nil), Config{Provider: ai.ProviderGemini}, failing))
	require.Error(t, err)
	assert.Same(t, mappingErr, err)
	assert.Equal(t, []ai.ChunkType{ai.ChunkMessageStart, ai.ChunkContentDelta, ai.ChunkError}, chunkTypes(chunks))
}

func TestRun_ConsumerBreak_StopsPullingSource(t *testing.T) {
	pulled := 0
	events := func(yield func(step, error) bool) {
		for range 10 {
			pulled++
			if !yield(func(a *Automaton) { a.Text("x") }, nil) {
				return
			}
		}
	}

	for chunk := range Run(context.Background(), events, Config{}, apply).Iter() {
		if chunk.Type == ai.ChunkContentDelta {
			break
		}
	}
	assert.Equal(t, 1, pulled)
}

func TestChunkStream_Collect(t *testing.T) {
	steps := []step{func(a *Automaton) { a.Text("ok") }}
	result, err := Run(context.Background(), source(steps, -1, nil), Config{Model: "m"}, apply).Collect()
	require.NoError(t, err)
	assert.Equal(t, "ok", *result.Content)
	assert.Equal(t, "m", result.Model)
	assert.NotEmpty(t, result.ID)

	_, err = Run(context.Background(), source(steps, 1, errors.New("boom")), Config{}, apply).Collect()
	require.Error(t, err)
}
