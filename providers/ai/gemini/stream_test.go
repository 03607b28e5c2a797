package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/unillm/providers/ai"
)

func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\r\n\r\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func newTestProvider(serverURL string) *GeminiProvider {
	return New().WithBaseURL(serverURL).WithAPIKey("test-key")
}

func userRequest(text string) ai.Request {
	return ai.Request{
		Provider: ai.ProviderGemini,
		Model:    "gemini-2.5-flash",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: ai.TextContent(text)}},
		Tools:    []ai.ToolDefinition{weatherTool()},
		Settings: ai.Settings{Grounding: true},
	}
}

const completeResponse = `{
	"responseId": "resp_eq", "modelVersion": "gemini-2.5-flash",
	"candidates": [{
		"content": {"role": "model", "parts": [
			{"text": "Looking up.", "thought": true},
			{"text": "Rome: sunny. "},
			{"text": "Oslo: rain."},
			{"functionCall": {"name": "get_weather", "args": {"city": "Rome"}}},
			{"functionCall": {"name": "get_weather", "args": {"city": "Oslo"}}}
		]},
		"finishReason": "STOP",
		"groundingMetadata": {
			"groundingChunks": [{"web": {"uri": "https://w.example", "title": "w"}}],
			"groundingSupports": [{"segment": {"startIndex": 0, "endIndex": 12, "text": "Rome: sunny."}, "groundingChunkIndices": [0]}]
		}
	}],
	"usageMetadata": {"promptTokenCount": 11, "candidatesTokenCount": 9, "totalTokenCount": 20}
}`

var streamedResponse = []string{
	`{"responseId":"resp_eq","modelVersion":"gemini-2.5-flash","candidates":[{"content":{"role":"model","parts":[{"text":"Looking up.","thought":true}]}}]}`,
	`{"responseId":"resp_eq","modelVersion":"gemini-2.5-flash","candidates":[{"content":{"role":"model","parts":[{"text":"Rome: sunny. "}]}}]}`,
	`{"responseId":"resp_eq","modelVersion":"gemini-2.5-flash","candidates":[{"content":{"role":"model","parts":[{"text":"Oslo: rain."},{"functionCall":{"name":"get_weather","args":{"city":"Rome"}}}]}}],"usageMetadata":{"promptTokenCount":11}}`,
	`{"responseId":"resp_eq","modelVersion":"gemini-2.5-flash","candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_weather","args":{"city":"Oslo"}}}]},"finishReason":"STOP","groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://w.example","title":"w"}}],"groundingSupports":[{"segment":{"startIndex":0,"endIndex":12,"text":"Rome: sunny."},"groundingChunkIndices":[0]}]}}],"usageMetadata":{"promptTokenCount":11,"candidatesTokenCount":9,"totalTokenCount":20}}`,
}

func TestStreamAndGenerate_Equivalent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "test-key", request.Header.Get("x-goog-api-key"))
		assert.Empty(t, request.URL.Query().Get("key"))

		var body GenerateContentRequest
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))

		switch {
		case strings.HasSuffix(request.URL.Path, "/models/gemini-2.5-flash:generateContent"):
			writer.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(writer, completeResponse)
		case strings.HasSuffix(request.URL.Path, "/models/gemini-2.5-flash:streamGenerateContent"):
			assert.Equal(t, "sse", request.URL.Query().Get("alt"))
			writer.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range streamedResponse {
				writeSSE(writer, chunk)
			}
		default:
			t.Errorf("unexpected path %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	generated, err := provider.Generate(context.Background(), userRequest("weather?"))
	require.NoError(t, err)

	stream, err := provider.Stream(context.Background(), userRequest("weather?"))
	require.NoError(t, err)

	var (
		types []ai.ChunkType
		final *ai.GenerateResult
	)
	for chunk, err := range stream.Iter() {
		require.NoError(t, err)
		types = append(types, chunk.Type)
		if chunk.Type == ai.ChunkFinalResult {
			final = chunk.Result
		}
	}
	require.NotNil(t, final)

	assert.Equal(t, generated.ID, final.ID)
	assert.Equal(t, generated.Content, final.Content)
	assert.Equal(t, generated.ThinkingSteps, final.ThinkingSteps)
	assert.Equal(t, generated.ToolCalls, final.ToolCalls)
	assert.Equal(t, ai.FinishReasonToolCalls, final.FinishReason)
	assert.Equal(t, generated.FinishReason, final.FinishReason)
	assert.Equal(t, generated.Usage, final.Usage)
	assert.Equal(t, generated.Citations, final.Citations)

	assert.Equal(t, []ai.ChunkType{
		ai.ChunkMessageStart,
		ai.ChunkThinkingStart, ai.ChunkThinkingDelta,
		ai.ChunkThinkingStop, ai.ChunkContentDelta,
		ai.ChunkContentDelta,
		ai.ChunkToolCallStart, ai.ChunkToolCallDelta, ai.ChunkToolCallDone,
		ai.ChunkToolCallStart, ai.ChunkToolCallDelta, ai.ChunkToolCallDone,
		ai.ChunkCitationDelta,
		ai.ChunkCitationDone, ai.ChunkMessageStop,
		ai.ChunkFinalUsage, ai.ChunkFinalResult,
	}, types)
}

type fakeTransport struct {
	model  string
	chunks []*GenerateContentResponse
	err    error
}

func (f *fakeTransport) Send(_ context.Context, model string, _ *GenerateContentRequest) (*GenerateContentResponse, []byte, error) {
	f.model = model
	return &GenerateContentResponse{}, nil, f.err
}

func (f *fakeTransport) Open(_ context.Context, model string, _ *GenerateContentRequest) (iter.Seq2[*GenerateContentResponse, error], error) {
	f.model = model
	return func(yield func(*GenerateContentResponse, error) bool) {
		for _, chunk := range f.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}, nil
}

func TestStream_JSONModeSnapshots(t *testing.T) {
	first, second := `{"answer": `, `42}`
	transport := &fakeTransport{chunks: []*GenerateContentResponse{
		{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: &first}}}}}},
		{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: &second}}}, FinishReason: "STOP"}}},
	}}

	request := userRequest("answer as JSON")
	request.Model = ""
	request.Settings = ai.Settings{ResponseFormat: &ai.ResponseFormat{Type: ai.ResponseFormatJSONObject}}

	stream, err := New().WithDefaultModel("gemini-2.5-pro").WithTransport(transport).Stream(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", transport.model)

	var snapshots []string
	var final *ai.GenerateResult
	for chunk, err := range stream.Iter() {
		require.NoError(t, err)
		switch chunk.Type {
		case ai.ChunkJSONDelta, ai.ChunkJSONDone:
			snapshots = append(snapshots, chunk.JSON.Snapshot)
		case ai.ChunkFinalResult:
			final = chunk.Result
		}
	}

	assert.Equal(t, []string{`{"answer": `, `{"answer": 42}`, `{"answer": 42}`}, snapshots)
	require.NotNil(t, final)
	assert.Equal(t, "gemini-2.5-pro", final.Model)
	assert.True(t, strings.HasPrefix(final.ID, "msg_"))
	assert.Equal(t, map[string]any{"answer": 42.0}, final.ParsedContent)
}

func TestStream_ErrorChunk(t *testing.T) {
	text := "partial"
	transport := &fakeTransport{chunks: []*GenerateContentResponse{
		{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: &text}}}}}},
		{Error: &ErrorBody{Code: 503, Message: "The model is overloaded.", Status: "UNAVAILABLE"}},
	}}

	result, err := MapStream(context.Background(), mustOpen(t, transport), "gemini-2.5-flash", false).Collect()
	assert.Nil(t, result)

	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ai.ProviderGemini, apiErr.Provider)
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, "UNAVAILABLE", apiErr.ErrorCode)
}

func TestStream_ConsumerBreakStopsSource(t *testing.T) {
	text := "a"
	pulled := 0
	source := func(yield func(*GenerateContentResponse, error) bool) {
		for range 5 {
			pulled++
			chunk := &GenerateContentResponse{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: &text}}}}}}
			if !yield(chunk, nil) {
				return
			}
		}
	}

	for chunk, err := range MapStream(context.Background(), source, "gemini-2.5-flash", false).Iter() {
		require.NoError(t, err)
		if chunk.Type == ai.ChunkContentDelta {
			break
		}
	}
	assert.Equal(t, 1, pulled)
}

func TestGenerate_QuotaEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(writer, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Generate(context.Background(), userRequest("hi"))

	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.ErrorCode)
	assert.True(t, ai.IsRateLimit(err))
}

func TestProvider_MissingKey(t *testing.T) {
	_, err := New().WithAPIKey("").Stream(context.Background(), userRequest("hi"))
	var configErr *ai.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, configErr.Message, "GEMINI_API_KEY")
}

func mustOpen(t *testing.T, transport *fakeTransport) iter.Seq2[*GenerateContentResponse, error] {
	t.Helper()
	source, err := transport.Open(context.Background(), "gemini-2.5-flash", nil)
	require.NoError(t, err)
	return source
}
