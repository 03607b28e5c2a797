package client

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// mockProvider records the last request and answers with fixed output.
type mockProvider struct {
	id          ai.ProviderID
	err         error
	streamErr   error
	failMidway  error
	lastRequest ai.Request
}

func (p *mockProvider) ID() ai.ProviderID             { return p.id }
func (p *mockProvider) Capabilities() ai.Capabilities { return ai.Capabilities{} }
func (p *mockProvider) WrapError(err any) error       { return ai.WrapError(p.id, err) }

func (p *mockProvider) Generate(_ context.Context, request ai.Request) (*ai.GenerateResult, error) {
	p.lastRequest = request
	if p.err != nil {
		return nil, p.err
	}
	return &ai.GenerateResult{
		ID:           "resp_1",
		Model:        request.Model,
		Content:      utils.Ptr("hello"),
		FinishReason: ai.FinishReasonStop,
		Usage:        &ai.TokenUsage{PromptTokens: utils.Ptr(3), CompletionTokens: utils.Ptr(2), TotalTokens: utils.Ptr(5)},
	}, nil
}

func (p *mockProvider) Stream(_ context.Context, request ai.Request) (*ai.ChunkStream, error) {
	p.lastRequest = request
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return ai.NewChunkStream(func(yield func(ai.StreamChunk, error) bool) {
		if !yield(ai.StreamChunk{Type: ai.ChunkMessageStart, ID: "resp_1", Model: request.Model}, nil) {
			return
		}
		if !yield(ai.StreamChunk{Type: ai.ChunkContentDelta, Delta: "hel"}, nil) {
			return
		}
		if p.failMidway != nil {
			if !yield(ai.StreamChunk{Type: ai.ChunkError, Err: p.failMidway}, nil) {
				return
			}
			yield(ai.StreamChunk{}, p.failMidway)
			return
		}
		if !yield(ai.StreamChunk{Type: ai.ChunkContentDelta, Delta: "lo"}, nil) {
			return
		}
		if !yield(ai.StreamChunk{Type: ai.ChunkMessageStop, FinishReason: ai.FinishReasonStop}, nil) {
			return
		}
		yield(ai.StreamChunk{Type: ai.ChunkFinalResult, Result: &ai.GenerateResult{
			ID: "resp_1", Model: request.Model, Content: utils.Ptr("hello"), FinishReason: ai.FinishReasonStop,
		}}, nil)
	}), nil
}

type record struct {
	level string
	msg   string
	attrs map[string]any
}

// recordingObserver keeps every record for assertions.
type recordingObserver struct {
	mu      sync.Mutex
	records []record
}

func (o *recordingObserver) add(level, msg string, attrs []observability.Attribute) {
	o.mu.Lock()
	defer o.mu.Unlock()
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		values[attr.Key] = attr.Value
	}
	o.records = append(o.records, record{level: level, msg: msg, attrs: values})
}

func (o *recordingObserver) Trace(_ context.Context, msg string, attrs ...observability.Attribute) {
	o.add("trace", msg, attrs)
}
func (o *recordingObserver) Debug(_ context.Context, msg string, attrs ...observability.Attribute) {
	o.add("debug", msg, attrs)
}
func (o *recordingObserver) Info(_ context.Context, msg string, attrs ...observability.Attribute) {
	o.add("info", msg, attrs)
}
func (o *recordingObserver) Warn(_ context.Context, msg string, attrs ...observability.Attribute) {
	o.add("warn", msg, attrs)
}
func (o *recordingObserver) Error(_ context.Context, msg string, attrs ...observability.Attribute) {
	o.add("error", msg, attrs)
}

func (o *recordingObserver) find(msg string) (record, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range o.records {
		if r.msg == msg {
			return r, true
		}
	}
	return record{}, false
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	var configErr *ai.ConfigurationError
	assert.ErrorAs(t, err, &configErr)

	_, err = New(ai.NewRegistry(), WithMiddleware(MiddlewareConfig{}))
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, configErr.Message, "index 0")
}

func TestClient_GenerateDispatchesByProvider(t *testing.T) {
	openai := &mockProvider{id: ai.ProviderOpenAI}
	gemini := &mockProvider{id: ai.ProviderGemini}
	c, err := New(ai.NewRegistry(openai, gemini), WithDefaultModel(ai.ProviderGemini, "gemini-2.0-flash"))
	require.NoError(t, err)

	result, err := c.Generate(context.Background(), ai.Request{Provider: ai.ProviderGemini})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", result.Model)
	assert.Equal(t, "gemini-2.0-flash", gemini.lastRequest.Model)
	assert.Empty(t, openai.lastRequest.Provider)

	_, err = c.Generate(context.Background(), ai.Request{Provider: ai.ProviderOpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", openai.lastRequest.Model)

	assert.Equal(t, []ai.ProviderID{ai.ProviderGemini, ai.ProviderOpenAI}, c.Providers())
}

func TestClient_UnknownOrMissingProvider(t *testing.T) {
	c, err := New(ai.NewRegistry(&mockProvider{id: ai.ProviderOpenAI}))
	require.NoError(t, err)

	var configErr *ai.ConfigurationError
	_, err = c.Generate(context.Background(), ai.Request{Provider: ai.ProviderAnthropic, Model: "m"})
	assert.ErrorAs(t, err, &configErr)

	_, err = c.Stream(context.Background(), ai.Request{Provider: ai.ProviderAnthropic, Model: "m"})
	assert.ErrorAs(t, err, &configErr)

	_, err = c.Generate(context.Background(), ai.Request{Model: "m"})
	assert.ErrorAs(t, err, &configErr)
}

func TestClient_Stream(t *testing.T) {
	c, err := New(ai.NewRegistry(&mockProvider{id: ai.ProviderAnthropic}))
	require.NoError(t, err)

	stream, err := c.Stream(context.Background(), ai.Request{Provider: ai.ProviderAnthropic, Model: "claude"})
	require.NoError(t, err)

	var types []ai.ChunkType
	for chunk, err := range stream.Iter() {
		require.NoError(t, err)
		types = append(types, chunk.Type)
	}
	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart, ai.ChunkContentDelta, ai.ChunkContentDelta, ai.ChunkMessageStop, ai.ChunkFinalResult,
	}, types)
}

func TestClient_ProviderErrorPassesThrough(t *testing.T) {
	failure := ai.NewProviderAPIError(ai.ProviderOpenAI, "overloaded")
	c, err := New(ai.NewRegistry(&mockProvider{id: ai.ProviderOpenAI, err: failure}))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), ai.Request{Provider: ai.ProviderOpenAI, Model: "m"})
	assert.Same(t, failure, err)
}
