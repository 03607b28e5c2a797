package ai

import "fmt"

// ValidateMessages applies the role and content rules shared by every
// provider. It runs before any wire mapping, so violations never reach the
// network.
//
//   - only system, user, assistant and tool are accepted;
//   - user content must not be null or an empty part list ("" is allowed);
//   - system content must not be null, "" or an empty part list;
//   - assistant content may be null;
//   - tool messages need a ToolCallID and text (or null) content;
//   - image parts are only valid in user messages.
func ValidateMessages(provider ProviderID, messages []Message) error {
	for i, message := range messages {
		where := fmt.Sprintf("messages[%d]", i)
		content := message.Content
		parts, isParts := content.Parts()

		switch message.Role {
		case RoleSystem:
			if content.IsEmpty() {
				return NewMappingError(provider, where, "system message requires non-empty content")
			}
		case RoleUser:
			if content.IsNull() || (isParts && len(parts) == 0) {
				return NewMappingError(provider, where, "user message requires content")
			}
		case RoleAssistant:
		case RoleTool:
			if message.ToolCallID == "" {
				return NewMappingError(provider, where, "tool message requires a toolCallId")
			}
			if isParts {
				return NewMappingError(provider, where, "tool message content must be a string")
			}
		default:
			return NewMappingError(provider, where, fmt.Sprintf("Unsupported role %q", message.Role))
		}

		if message.Role != RoleUser && content.HasImage() {
			return NewMappingError(provider, where, fmt.Sprintf("image parts are not allowed in %s messages", message.Role))
		}
		for j, part := range parts {
			if err := validatePart(provider, fmt.Sprintf("%s.content[%d]", where, j), part); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePart(provider ProviderID, where string, part ContentPart) error {
	switch part.Type {
	case ContentPartText:
		return nil
	case ContentPartImage:
		if part.Image == nil || part.Image.Base64Data == "" {
			return NewMappingError(provider, where, "image part requires base64 data")
		}
		return nil
	default:
		return NewMappingError(provider, where, fmt.Sprintf("unsupported content part type %q", part.Type))
	}
}

// ValidateToolSchemas checks every tool has a name and, when strict is set,
// that its parameters are an object schema with top-level type "object".
func ValidateToolSchemas(provider ProviderID, tools []ToolDefinition, strict bool) error {
	for i, tool := range tools {
		if tool.Name == "" {
			return NewMappingError(provider, fmt.Sprintf("tools[%d]", i), "tool requires a name")
		}
		if !strict {
			continue
		}
		if typ, _ := tool.Parameters["type"].(string); typ != "object" {
			return NewMappingError(provider, fmt.Sprintf("tools[%d]", i),
				fmt.Sprintf("tool %q parameters must be a JSON Schema with top-level type \"object\"", tool.Name))
		}
	}
	return nil
}

// CheckCapabilities rejects settings the provider cannot honour.
func CheckCapabilities(provider ProviderID, capabilities Capabilities, settings Settings) error {
	if settings.Thinking != nil && !capabilities.Thinking {
		return NewUnsupportedFeatureError(provider, "thinking")
	}
	if settings.Grounding && !capabilities.Grounding {
		return NewUnsupportedFeatureError(provider, "grounding")
	}
	if settings.JSONMode() && !capabilities.JSONMode {
		return NewUnsupportedFeatureError(provider, "json response format")
	}
	return nil
}

// ValidateRequest runs the capability check and both validators in the order
// providers use: capabilities, messages, tools.
func ValidateRequest(provider ProviderID, capabilities Capabilities, request Request) error {
	if err := CheckCapabilities(provider, capabilities, request.Settings); err != nil {
		return err
	}
	if err := ValidateMessages(provider, request.Messages); err != nil {
		return err
	}
	return ValidateToolSchemas(provider, request.Tools, capabilities.StrictToolSchema)
}

// AssistantText returns the text of an assistant message, or nil when the
// message has no text (null content or an empty part list).
func AssistantText(content MessageContent) *string {
	if content.IsNull() {
		return nil
	}
	if parts, ok := content.Parts(); ok && len(parts) == 0 {
		return nil
	}
	text := content.JoinedText()
	return &text
}
