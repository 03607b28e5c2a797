package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// defaultMaxTokens is sent when the request sets no limit; the API requires
// max_tokens on every call.
const defaultMaxTokens = 4096

// Provider options read by MapRequest.
const (
	OptionTopK          = "top_k"
	OptionUserID        = "user_id"
	OptionPromptCaching = "prompt_caching"
)

// MapRequest converts a canonical request into a Messages API request.
func MapRequest(request ai.Request) (*MessagesRequest, error) {
	if err := ai.ValidateRequest(ai.ProviderAnthropic, capabilities, request); err != nil {
		return nil, err
	}

	caching := utils.Deref(ai.OptionBool(request.ProviderOptions, OptionPromptCaching))

	wire := &MessagesRequest{
		Model:         request.Model,
		MaxTokens:     defaultMaxTokens,
		Temperature:   request.Settings.Temperature,
		TopP:          request.Settings.TopP,
		TopK:          ai.OptionInt(request.ProviderOptions, OptionTopK),
		StopSequences: request.Settings.StopSequences,
	}
	if maxTokens := request.Settings.MaxTokens; maxTokens != nil && *maxTokens > 0 {
		wire.MaxTokens = *maxTokens
	}
	if thinking := request.Settings.Thinking; thinking != nil {
		wire.Thinking = &ThinkingConfig{Type: "enabled", BudgetTokens: thinking.BudgetTokens}
	}
	if userID := ai.OptionString(request.ProviderOptions, OptionUserID); userID != "" {
		wire.Metadata = &Metadata{UserID: userID}
	}

	system, err := mapSystem(request.Messages, caching)
	if err != nil {
		return nil, err
	}
	wire.System = system
	wire.Messages = mapMessages(request.Messages)

	for _, tool := range request.Tools {
		wire.Tools = append(wire.Tools, Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}
	if caching && len(wire.Tools) > 0 {
		wire.Tools[len(wire.Tools)-1].CacheControl = &CacheControl{Type: "ephemeral"}
	}

	if request.ToolChoice != "" {
		wire.ToolChoice = mapToolChoice(request.ToolChoice)
	}

	return wire, nil
}

// mapSystem joins every system message with a blank line. With prompt
// caching the prompt is sent as a single cached text block.
func mapSystem(messages []ai.Message, caching bool) (json.RawMessage, error) {
	var prompts []string
	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			prompts = append(prompts, message.Content.JoinedText())
		}
	}
	if len(prompts) == 0 {
		return nil, nil
	}
	prompt := strings.Join(prompts, "\n\n")

	var value any = prompt
	if caching {
		value = []ContentBlock{{Type: "text", Text: &prompt, CacheControl: &CacheControl{Type: "ephemeral"}}}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal system prompt: %w", err)
	}
	return raw, nil
}

// mapMessages converts the non-system turns. Consecutive tool messages are
// merged into one user turn of tool_result blocks, since the API rejects two
// user turns in a row. Assistant turns with neither text nor tool calls are
// dropped because an empty content array is invalid.
func mapMessages(messages []ai.Message) []Message {
	var wire []Message

	for _, message := range messages {
		switch message.Role {
		case ai.RoleUser:
			wire = append(wire, Message{Role: "user", Content: userBlocks(message.Content)})

		case ai.RoleAssistant:
			var blocks []ContentBlock
			if text := ai.AssistantText(message.Content); text != nil && *text != "" {
				blocks = append(blocks, textBlock(*text))
			}
			for _, call := range message.ToolCalls {
				blocks = append(blocks, ContentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Function.Name,
					Input: toolInput(call.Function.Arguments),
				})
			}
			if len(blocks) > 0 {
				wire = append(wire, Message{Role: "assistant", Content: blocks})
			}

		case ai.RoleTool:
			result := message.Content.JoinedText()
			block := ContentBlock{Type: "tool_result", ToolUseID: message.ToolCallID, Content: &result}
			if last := len(wire) - 1; last >= 0 && isToolResultTurn(wire[last]) {
				wire[last].Content = append(wire[last].Content, block)
			} else {
				wire = append(wire, Message{Role: "user", Content: []ContentBlock{block}})
			}
		}
	}
	return wire
}

func userBlocks(content ai.MessageContent) []ContentBlock {
	parts, ok := content.Parts()
	if !ok {
		text, _ := content.Text()
		return []ContentBlock{textBlock(text)}
	}
	blocks := make([]ContentBlock, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			blocks = append(blocks, textBlock(part.Text))
		case ai.ContentPartImage:
			blocks = append(blocks, ContentBlock{
				Type:   "image",
				Source: &ImageSource{Type: "base64", MediaType: part.Image.MimeType, Data: part.Image.Base64Data},
			})
		}
	}
	return blocks
}

func textBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: &text}
}

func isToolResultTurn(message Message) bool {
	if message.Role != "user" || len(message.Content) == 0 {
		return false
	}
	for _, block := range message.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// toolInput turns raw arguments into the object the API expects. Arguments
// that are empty or not valid JSON are sent as an empty object.
func toolInput(arguments string) json.RawMessage {
	if !json.Valid([]byte(arguments)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(utils.CompactJSON([]byte(arguments)))
}

func mapToolChoice(choice string) *ToolChoice {
	switch choice {
	case ai.ToolChoiceAuto:
		return &ToolChoice{Type: "auto"}
	case ai.ToolChoiceRequired:
		return &ToolChoice{Type: "any"}
	case ai.ToolChoiceNone:
		return &ToolChoice{Type: "none"}
	default:
		return &ToolChoice{Type: "tool", Name: choice}
	}
}

// MapResponse converts a complete message. Text blocks are concatenated
// without a separator, thinking blocks go to ThinkingSteps and tool_use
// inputs become compact JSON arguments.
func MapResponse(response *MessagesResponse, model string) *ai.GenerateResult {
	result := &ai.GenerateResult{Model: model, FinishReason: ai.FinishReasonError}
	if response == nil {
		return result
	}
	result.ID = response.ID
	if response.Model != "" {
		result.Model = response.Model
	}
	result.Usage = ai.NormalizeUsageJSON(response.Usage)

	var text, thinking strings.Builder
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
			for _, citation := range block.Citations {
				result.Citations = append(result.Citations, mapCitation(citation))
			}
		case "thinking":
			thinking.WriteString(block.Thinking)
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: ai.ToolTypeFunction,
				Function: ai.ToolCallFunction{
					Name:      block.Name,
					Arguments: utils.CompactJSON(block.Input),
				},
			})
		}
	}

	result.Content = ai.ContentOrNil(text.String())
	result.ThinkingSteps = thinking.String()
	result.FinishReason = ai.ResolveFinishReason(response.StopReason, len(result.ToolCalls) > 0)
	return result
}

// mapCitation names the source by URL when there is one, otherwise by
// document index.
func mapCitation(citation TextCitation) ai.Citation {
	mapped := ai.Citation{
		SourceID:   citation.URL,
		URL:        citation.URL,
		Title:      citation.Title,
		Text:       citation.CitedText,
		StartIndex: citation.StartCharIndex,
		EndIndex:   citation.EndCharIndex,
	}
	if mapped.Title == "" {
		mapped.Title = citation.DocumentTitle
	}
	if mapped.SourceID == "" && citation.DocumentIndex != nil {
		mapped.SourceID = fmt.Sprintf("document_%d", *citation.DocumentIndex)
	}
	if mapped.SourceID == "" {
		mapped.SourceID = citation.Type
	}
	return mapped
}

// usageFields decodes a raw usage object for the stream automaton.
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
