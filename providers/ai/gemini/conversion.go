package gemini

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
	OptionTopK             = "top_k"
	OptionSeed             = "seed"
	OptionPresencePenalty  = "presence_penalty"
	OptionFrequencyPenalty = "frequency_penalty"
)

const jsonMimeType = "application/json"

// MapRequest converts a canonical request into a generateContent body.
func MapRequest(request ai.Request) (*GenerateContentRequest, error) {
	if err := ai.ValidateRequest(ai.ProviderGemini, capabilities, request); err != nil {
		return nil, err
	}

	contents, err := mapContents(request.Messages)
	if err != nil {
		return nil, err
	}
	wire := &GenerateContentRequest{
		Contents:          contents,
		SystemInstruction: mapSystem(request.Messages),
		GenerationConfig:  mapGenerationConfig(request),
		ToolConfig:        mapToolConfig(request.ToolChoice),
	}

	if len(request.Tools) > 0 {
		declarations := make([]FunctionDeclaration, 0, len(request.Tools))
		for _, tool := range request.Tools {
			declarations = append(declarations, FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
		wire.Tools = append(wire.Tools, Tool{FunctionDeclarations: declarations})
	}
	if request.Settings.Grounding {
		wire.Tools = append(wire.Tools, Tool{GoogleSearch: &GoogleSearch{}})
	}

	return wire, nil
}

func mapSystem(messages []ai.Message) *Content {
	var prompts []string
	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			prompts = append(prompts, message.Content.JoinedText())
		}
	}
	if len(prompts) == 0 {
		return nil
	}
	return &Content{Parts: []Part{textPart(strings.Join(prompts, "\n\n"))}}
}

// mapContents converts the non-system turns. Tool results are user turns
// of functionResponse parts; consecutive results share one turn.
func mapContents(messages []ai.Message) ([]Content, error) {
	var contents []Content
	callNames := make(map[string]string)

	for i, message := range messages {
		switch message.Role {
		case ai.RoleUser:
			contents = append(contents, Content{Role: "user", Parts: userParts(message.Content)})

		case ai.RoleAssistant:
			var parts []Part
			if text := ai.AssistantText(message.Content); text != nil && *text != "" {
				parts = append(parts, textPart(*text))
			}
			for _, call := range message.ToolCalls {
				callNames[call.ID] = call.Function.Name
				parts = append(parts, Part{FunctionCall: &FunctionCall{
					Name: call.Function.Name,
					Args: functionArgs(call.Function.Arguments),
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, Content{Role: "model", Parts: parts})
			}

		case ai.RoleTool:
			name, ok := callNames[message.ToolCallID]
			if !ok {
				return nil, ai.NewMappingError(ai.ProviderGemini, fmt.Sprintf("messages[%d]", i),
					fmt.Sprintf("no earlier tool call with id %q", message.ToolCallID))
			}
			part := Part{FunctionResponse: &FunctionResponse{
				Name:     name,
				Response: functionResponse(message.Content.JoinedText()),
			}}
			if last := len(contents) - 1; last >= 0 && isFunctionResponseTurn(contents[last]) {
				contents[last].Parts = append(contents[last].Parts, part)
			} else {
				contents = append(contents, Content{Role: "user", Parts: []Part{part}})
			}
		}
	}
	return contents, nil
}

func userParts(content ai.MessageContent) []Part {
	parts, ok := content.Parts()
	if !ok {
		text, _ := content.Text()
		return []Part{textPart(text)}
	}
	wire := make([]Part, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			wire = append(wire, textPart(part.Text))
		case ai.ContentPartImage:
			wire = append(wire, Part{InlineData: &InlineData{MimeType: part.Image.MimeType, Data: part.Image.Base64Data}})
		}
	}
	return wire
}

func textPart(text string) Part {
	return Part{Text: &text}
}

func isFunctionResponseTurn(content Content) bool {
	if content.Role != "user" || len(content.Parts) == 0 {
		return false
	}
	for _, part := range content.Parts {
		if part.FunctionResponse == nil {
			return false
		}
	}
	return true
}

func functionArgs(arguments string) json.RawMessage {
	if !json.Valid([]byte(arguments)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(utils.CompactJSON([]byte(arguments)))
}

// functionResponse passes JSON objects through and wraps anything else as
// {"result": <text>}.
func functionResponse(text string) json.RawMessage {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	raw, _ := json.Marshal(map[string]string{"result": text})
	return raw
}

func mapGenerationConfig(request ai.Request) *GenerationConfig {
	settings := request.Settings
	config := GenerationConfig{
		Temperature:      settings.Temperature,
		TopP:             settings.TopP,
		TopK:             ai.OptionInt(request.ProviderOptions, OptionTopK),
		MaxOutputTokens:  settings.MaxTokens,
		StopSequences:    settings.StopSequences,
		Seed:             ai.OptionInt(request.ProviderOptions, OptionSeed),
		PresencePenalty:  ai.OptionFloat(request.ProviderOptions, OptionPresencePenalty),
		FrequencyPenalty: ai.OptionFloat(request.ProviderOptions, OptionFrequencyPenalty),
	}
	if settings.JSONMode() {
		config.ResponseMimeType = jsonMimeType
		if settings.ResponseFormat.Type == ai.ResponseFormatJSONSchema {
			config.ResponseSchema = settings.ResponseFormat.Schema
		}
	}
	if thinking := settings.Thinking; thinking != nil {
		config.ThinkingConfig = &ThinkingConfig{IncludeThoughts: true}
		if thinking.BudgetTokens > 0 {
			config.ThinkingConfig.ThinkingBudget = utils.Ptr(thinking.BudgetTokens)
		}
	}

	if config.isZero() {
		return nil
	}
	return &config
}

func (c GenerationConfig) isZero() bool {
	return c.Temperature == nil && c.TopP == nil && c.TopK == nil && c.MaxOutputTokens == nil &&
		len(c.StopSequences) == 0 && c.ResponseMimeType == "" && c.ResponseSchema == nil &&
		c.ThinkingConfig == nil && c.PresencePenalty == nil && c.FrequencyPenalty == nil && c.Seed == nil
}

func mapToolConfig(choice string) *ToolConfig {
	var calling FunctionCallingConfig
	switch choice {
	case "":
		return nil
	case ai.ToolChoiceAuto:
		calling.Mode = "AUTO"
	case ai.ToolChoiceNone:
		calling.Mode = "NONE"
	case ai.ToolChoiceRequired:
		calling.Mode = "ANY"
	default:
		calling.Mode = "ANY"
		calling.AllowedFunctionNames = []string{choice}
	}
	return &ToolConfig{FunctionCallingConfig: &calling}
}

// MapResponse converts a complete response. Only the first candidate is
// read; text parts are concatenated without a separator and thought parts go
// to ThinkingSteps. A response without candidates maps to null content with
// finish reason "error".
func MapResponse(response *GenerateContentResponse, model string, jsonMode bool) *ai.GenerateResult {
	result := &ai.GenerateResult{Model: model, FinishReason: ai.FinishReasonError}
	if response == nil {
		return result
	}
	result.ID = response.ResponseID
	if response.ModelVersion != "" {
		result.Model = response.ModelVersion
	}
	result.Usage = ai.NormalizeUsageJSON(response.UsageMetadata)

	if len(response.Candidates) == 0 {
		return result
	}
	candidate := response.Candidates[0]

	var text, thinking strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				result.ToolCalls = append(result.ToolCalls, mapFunctionCall(*part.FunctionCall, len(result.ToolCalls)))
			case part.Text != nil && part.Thought:
				thinking.WriteString(*part.Text)
			case part.Text != nil:
				text.WriteString(*part.Text)
			}
		}
	}

	result.Content = ai.ContentOrNil(text.String())
	result.ThinkingSteps = thinking.String()
	result.Citations = citations(candidate.GroundingMetadata)
	result.FinishReason = ai.ResolveFinishReason(candidate.FinishReason, len(result.ToolCalls) > 0)

	if jsonMode {
		if parsed, ok := utils.ParsePartialJSON(text.String()); ok {
			result.ParsedContent = parsed
		}
	}
	return result
}

// mapFunctionCall keeps the call id when the model sent one and otherwise
// names the call after its position.
func mapFunctionCall(call FunctionCall, index int) ai.ToolCall {
	id := call.ID
	if id == "" {
		id = fmt.Sprintf("call_%d", index)
	}
	return ai.ToolCall{
		ID:   id,
		Type: ai.ToolTypeFunction,
		Function: ai.ToolCallFunction{
			Name:      call.Name,
			Arguments: utils.CompactJSON(call.Args),
		},
	}
}

// citations produces one citation per (support, source) pair.
func citations(metadata *GroundingMetadata) []ai.Citation {
	if metadata == nil {
		return nil
	}
	var cited []ai.Citation
	for _, support := range metadata.GroundingSupports {
		for _, chunkIndex := range support.GroundingChunkIndices {
			if chunkIndex < 0 || chunkIndex >= len(metadata.GroundingChunks) {
				continue
			}
			web := metadata.GroundingChunks[chunkIndex].Web
			if web == nil {
				continue
			}
			citation := ai.Citation{SourceID: web.URI, URL: web.URI, Title: web.Title}
			if segment := support.Segment; segment != nil {
				citation.Text = segment.Text
				citation.StartIndex = segment.StartIndex
				citation.EndIndex = segment.EndIndex
			}
			cited = append(cited, citation)
		}
	}
	return cited
}

// usageFields decodes usageMetadata for the stream automaton.
func usageFields(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}
