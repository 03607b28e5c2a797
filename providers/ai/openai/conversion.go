package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// Provider options read by MapRequest.
const (
	OptionSeed              = "seed"
	OptionUser              = "user"
	OptionParallelToolCalls = "parallel_tool_calls"
	OptionFrequencyPenalty  = "frequency_penalty"
	OptionPresencePenalty   = "presence_penalty"
)

// MapRequest converts a canonical request into a Chat Completions request.
// Validation and capability errors are returned before anything is built.
func MapRequest(request ai.Request) (*ChatCompletionRequest, error) {
	if err := ai.ValidateRequest(ai.ProviderOpenAI, capabilities, request); err != nil {
		return nil, err
	}

	wire := &ChatCompletionRequest{
		Model:            request.Model,
		Messages:         make([]ChatMessage, 0, len(request.Messages)),
		Temperature:      request.Settings.Temperature,
		TopP:             request.Settings.TopP,
		MaxTokens:        request.Settings.MaxTokens,
		Stop:             request.Settings.StopSequences,
		Seed:             ai.OptionInt(request.ProviderOptions, OptionSeed),
		User:             ai.OptionString(request.ProviderOptions, OptionUser),
		ParallelToolCall: ai.OptionBool(request.ProviderOptions, OptionParallelToolCalls),
		FrequencyPenalty: ai.OptionFloat(request.ProviderOptions, OptionFrequencyPenalty),
		PresencePenalty:  ai.OptionFloat(request.ProviderOptions, OptionPresencePenalty),
	}

	for _, message := range request.Messages {
		wire.Messages = append(wire.Messages, mapMessage(message))
	}

	for _, tool := range request.Tools {
		wire.Tools = append(wire.Tools, ChatTool{
			Type: ai.ToolTypeFunction,
			Function: ChatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	if request.ToolChoice != "" {
		wire.ToolChoice = mapToolChoice(request.ToolChoice)
	}

	if format := request.Settings.ResponseFormat; format != nil {
		wire.ResponseFormat = mapResponseFormat(format)
	}

	return wire, nil
}

func mapMessage(message ai.Message) ChatMessage {
	wire := ChatMessage{Role: string(message.Role)}

	switch message.Role {
	case ai.RoleSystem:
		wire.Content = message.Content.JoinedText()
	case ai.RoleUser:
		if parts, ok := message.Content.Parts(); ok {
			wire.Content = mapParts(parts)
		} else {
			wire.Content = message.Content.JoinedText()
		}
	case ai.RoleAssistant:
		if text := ai.AssistantText(message.Content); text != nil {
			wire.Content = *text
		}
		for _, call := range message.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, ChatToolCall{
				ID:   call.ID,
				Type: ai.ToolTypeFunction,
				Function: ChatToolCallFunction{
					Name:      call.Function.Name,
					Arguments: argumentsOrEmpty(call.Function.Arguments),
				},
			})
		}
	case ai.RoleTool:
		// Null tool content is sent as an empty string.
		wire.Content = message.Content.JoinedText()
		wire.ToolCallID = message.ToolCallID
	}

	return wire
}

func mapParts(parts []ai.ContentPart) []ContentPart {
	wire := make([]ContentPart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			wire = append(wire, ContentPart{Type: "text", Text: part.Text})
		case ai.ContentPartImage:
			wire = append(wire, ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: "data:" + part.Image.MimeType + ";base64," + part.Image.Base64Data},
			})
		}
	}
	return wire
}

func mapToolChoice(choice string) any {
	switch choice {
	case ai.ToolChoiceAuto, ai.ToolChoiceNone, ai.ToolChoiceRequired:
		return choice
	default:
		named := NamedToolChoice{Type: ai.ToolTypeFunction}
		named.Function.Name = choice
		return named
	}
}

func mapResponseFormat(format *ai.ResponseFormat) *ChatResponseFormat {
	switch format.Type {
	case ai.ResponseFormatJSONSchema:
		name := format.Name
		if name == "" {
			name = "response"
		}
		return &ChatResponseFormat{
			Type:       ai.ResponseFormatJSONSchema,
			JSONSchema: &JSONSchemaSpec{Name: name, Schema: format.Schema, Strict: format.Strict},
		}
	case ai.ResponseFormatJSONObject:
		return &ChatResponseFormat{Type: ai.ResponseFormatJSONObject}
	default:
		return nil
	}
}

// MapResponse converts a complete Chat Completions response. model is used
// when the response does not name one. A response without choices maps to
// null content with finish reason "error".
func MapResponse(response *ChatCompletionResponse, model string, jsonMode bool) *ai.GenerateResult {
	result := &ai.GenerateResult{Model: model, FinishReason: ai.FinishReasonError}
	if response == nil {
		return result
	}
	result.ID = response.ID
	if response.Model != "" {
		result.Model = response.Model
	}
	result.Usage = ai.NormalizeUsageJSON(response.Usage)

	if len(response.Choices) == 0 {
		return result
	}
	choice := response.Choices[0]
	message := choice.Message

	text := deref(message.Content)
	if text == "" {
		text = deref(message.Refusal)
	}
	result.Content = ai.ContentOrNil(text)
	result.ThinkingSteps = firstNonEmpty(deref(message.ReasoningContent), deref(message.Reasoning))

	for i, call := range message.ToolCalls {
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
			ID:   id,
			Type: ai.ToolTypeFunction,
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: argumentsOrEmpty(call.Function.Arguments),
			},
		})
	}

	result.FinishReason = ai.ResolveFinishReason(choice.FinishReason, len(result.ToolCalls) > 0)

	if jsonMode {
		if parsed, ok := utils.ParsePartialJSON(text); ok {
			result.ParsedContent = parsed
		}
	}
	return result
}

// usageFields decodes a raw usage object for the stream automaton.
func usageFields(raw json.RawMessage) map[string]any {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func argumentsOrEmpty(arguments string) string {
	if strings.TrimSpace(arguments) == "" {
		return "{}"
	}
	return arguments
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
