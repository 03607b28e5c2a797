package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

func weatherTool() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name:        "get_weather",
		Description: "Current weather",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"city": map[string]any{"type": "string"}},
		},
	}
}

func TestMapRequest_MessagesAndTools(t *testing.T) {
	request := ai.Request{
		Provider: ai.ProviderOpenAI,
		Model:    "gpt-4o",
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: ai.TextContent("be brief")},
			{Role: ai.RoleUser, Content: ai.PartsContent(ai.TextPart("what is this?"), ai.ImagePart("image/png", "AAAA"))},
			{Role: ai.RoleAssistant, Content: ai.PartsContent(), ToolCalls: []ai.ToolCall{{
				ID: "call_1", Type: ai.ToolTypeFunction,
				Function: ai.ToolCallFunction{Name: "get_weather", Arguments: ""},
			}}},
			{Role: ai.RoleTool, ToolCallID: "call_1"},
		},
		Tools:      []ai.ToolDefinition{weatherTool()},
		ToolChoice: "get_weather",
		Settings: ai.Settings{
			MaxTokens:     utils.Ptr(64),
			Temperature:   utils.Ptr(0.2),
			StopSequences: []string{"END"},
		},
		ProviderOptions: map[string]any{"seed": float64(7), "user": "u-1"},
	}

	wire, err := MapRequest(request)
	require.NoError(t, err)

	encoded, err := json.Marshal(wire)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": [
				{"type": "text", "text": "what is this?"},
				{"type": "image_url", "image_url": {"url": "data:image/png;base64,AAAA"}}
			]},
			{"role": "assistant", "content": null, "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{}"}}
			]},
			{"role": "tool", "content": "", "tool_call_id": "call_1"}
		],
		"temperature": 0.2,
		"max_tokens": 64,
		"stop": ["END"],
		"seed": 7,
		"user": "u-1",
		"tools": [{"type": "function", "function": {
			"name": "get_weather", "description": "Current weather",
			"parameters": {"type": "object", "properties": {"city": {"type": "string"}}}
		}}],
		"tool_choice": {"type": "function", "function": {"name": "get_weather"}}
	}`, string(encoded))
}

func TestMapRequest_ToolChoiceKeywords(t *testing.T) {
	for _, choice := range []string{ai.ToolChoiceAuto, ai.ToolChoiceNone, ai.ToolChoiceRequired} {
		wire, err := MapRequest(ai.Request{
			Model:      "m",
			Messages:   []ai.Message{{Role: ai.RoleUser, Content: ai.TextContent("hi")}},
			ToolChoice: choice,
		})
		require.NoError(t, err)
		assert.Equal(t, choice, wire.ToolChoice)
	}
}

func TestMapRequest_JSONSchemaFormat(t *testing.T) {
	wire, err := MapRequest(ai.Request{
		Model:    "m",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: ai.TextContent("hi")}},
		Settings: ai.Settings{ResponseFormat: &ai.ResponseFormat{
			Type:   ai.ResponseFormatJSONSchema,
			Schema: map[string]any{"type": "object"},
			Strict: true,
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, wire.ResponseFormat)
	assert.Equal(t, "json_schema", wire.ResponseFormat.Type)
	assert.Equal(t, "response", wire.ResponseFormat.JSONSchema.Name)
	assert.True(t, wire.ResponseFormat.JSONSchema.Strict)
}

func TestMapRequest_Rejections(t *testing.T) {
	user := ai.Message{Role: ai.RoleUser, Content: ai.TextContent("hi")}

	tests := []struct {
		name    string
		request ai.Request
		check   func(t *testing.T, err error)
	}{
		{
			name:    "thinking unsupported",
			request: ai.Request{Model: "m", Messages: []ai.Message{user}, Settings: ai.Settings{Thinking: &ai.ThinkingConfig{}}},
			check: func(t *testing.T, err error) {
				var unsupported *ai.UnsupportedFeatureError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, "thinking", unsupported.Feature)
				assert.Equal(t, ai.ProviderOpenAI, unsupported.Provider)
			},
		},
		{
			name:    "grounding unsupported",
			request: ai.Request{Model: "m", Messages: []ai.Message{user}, Settings: ai.Settings{Grounding: true}},
			check: func(t *testing.T, err error) {
				var unsupported *ai.UnsupportedFeatureError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, "grounding", unsupported.Feature)
			},
		},
		{
			name: "non-object tool schema",
			request: ai.Request{Model: "m", Messages: []ai.Message{user}, Tools: []ai.ToolDefinition{
				{Name: "bad", Parameters: map[string]any{"type": "string"}},
			}},
			check: func(t *testing.T, err error) {
				var mappingErr *ai.MappingError
				require.ErrorAs(t, err, &mappingErr)
				assert.Contains(t, mappingErr.Message, `"bad"`)
			},
		},
		{
			name:    "image in system message",
			request: ai.Request{Model: "m", Messages: []ai.Message{{Role: ai.RoleSystem, Content: ai.PartsContent(ai.ImagePart("image/png", "AA"))}}},
			check: func(t *testing.T, err error) {
				var mappingErr *ai.MappingError
				require.ErrorAs(t, err, &mappingErr)
				assert.Contains(t, mappingErr.Message, "system")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := MapRequest(tt.request)
			assert.Nil(t, wire)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestMapResponse_TextToolsAndUsage(t *testing.T) {
	var response ChatCompletionResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "chatcmpl-1", "model": "gpt-4o",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": "checking",
			"tool_calls": [{"id": "call_9", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Rome\"}"}}]
		}}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`), &response))

	result := MapResponse(&response, "requested", false)
	assert.Equal(t, "chatcmpl-1", result.ID)
	assert.Equal(t, "gpt-4o", result.Model)
	assert.Equal(t, "checking", *result.Content)
	assert.Equal(t, ai.FinishReasonToolCalls, result.FinishReason)
	assert.Equal(t, []ai.ToolCall{{
		ID: "call_9", Type: ai.ToolTypeFunction,
		Function: ai.ToolCallFunction{Name: "get_weather", Arguments: `{"city":"Rome"}`},
	}}, result.ToolCalls)
	assert.Equal(t, &ai.TokenUsage{PromptTokens: utils.Ptr(10), CompletionTokens: utils.Ptr(5), TotalTokens: utils.Ptr(15)}, result.Usage)
}

func TestMapResponse_NoChoices_FallsBackToError(t *testing.T) {
	result := MapResponse(&ChatCompletionResponse{ID: "x"}, "requested", false)
	assert.Nil(t, result.Content)
	assert.Equal(t, ai.FinishReasonError, result.FinishReason)
	assert.Equal(t, "requested", result.Model)
	assert.Nil(t, result.Usage)
}

func TestMapResponse_JSONMode_SetsParsedContent(t *testing.T) {
	content := `{"ok":true}`
	response := &ChatCompletionResponse{Choices: []ChatChoice{{
		FinishReason: "stop",
		Message:      ChatResponseMessage{Content: &content},
	}}}
	result := MapResponse(response, "m", true)
	assert.Equal(t, map[string]any{"ok": true}, result.ParsedContent)
	assert.Equal(t, ai.FinishReasonStop, result.FinishReason)
}
