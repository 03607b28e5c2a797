package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessages_RoleContentGrid(t *testing.T) {
	image := ImagePart("image/png", "aGVsbG8=")

	tests := []struct {
		name    string
		message Message
		wantErr bool
	}{
		{"system text", Message{Role: RoleSystem, Content: TextContent("be brief")}, false},
		{"system null", Message{Role: RoleSystem, Content: NullContent()}, true},
		{"system empty string", Message{Role: RoleSystem, Content: TextContent("")}, true},
		{"system empty parts", Message{Role: RoleSystem, Content: PartsContent()}, true},
		{"system image", Message{Role: RoleSystem, Content: PartsContent(image)}, true},
		{"user empty string", Message{Role: RoleUser, Content: TextContent("")}, false},
		{"user null", Message{Role: RoleUser, Content: NullContent()}, true},
		{"user empty parts", Message{Role: RoleUser, Content: PartsContent()}, true},
		{"user image", Message{Role: RoleUser, Content: PartsContent(TextPart("what is this"), image)}, false},
		{"assistant null", Message{Role: RoleAssistant, Content: NullContent()}, false},
		{"assistant image", Message{Role: RoleAssistant, Content: PartsContent(image)}, true},
		{"tool empty string", Message{Role: RoleTool, Content: TextContent(""), ToolCallID: "call_1"}, false},
		{"tool without call id", Message{Role: RoleTool, Content: TextContent("42")}, true},
		{"tool parts", Message{Role: RoleTool, Content: PartsContent(TextPart("42")), ToolCallID: "call_1"}, true},
		{"unknown role", Message{Role: "developer", Content: TextContent("hi")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessages(ProviderOpenAI, []Message{tt.message})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var mappingErr *MappingError
			require.ErrorAs(t, err, &mappingErr)
			assert.Equal(t, ProviderOpenAI, mappingErr.Provider)
			assert.Equal(t, "messages[0]", mappingErr.Context)
		})
	}
}

func TestValidateMessages_UnsupportedRoleMessage(t *testing.T) {
	err := ValidateMessages(ProviderGemini, []Message{{Role: "function", Content: TextContent("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported role")
}

func TestValidateMessages_ImageWithoutData(t *testing.T) {
	err := ValidateMessages(ProviderAnthropic, []Message{{
		Role:    RoleUser,
		Content: PartsContent(ContentPart{Type: ContentPartImage, Image: &ImageData{MimeType: "image/png"}}),
	}})
	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "messages[0].content[0]", mappingErr.Context)
}

func TestValidateToolSchemas(t *testing.T) {
	objectTool := ToolDefinition{Name: "lookup", Parameters: map[string]any{"type": "object"}}
	looseTool := ToolDefinition{Name: "loose", Parameters: map[string]any{"type": "string"}}

	assert.NoError(t, ValidateToolSchemas(ProviderOpenAI, []ToolDefinition{objectTool}, true))
	assert.NoError(t, ValidateToolSchemas(ProviderOpenAI, []ToolDefinition{looseTool}, false))

	err := ValidateToolSchemas(ProviderOpenAI, []ToolDefinition{objectTool, looseTool}, true)
	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "tools[1]", mappingErr.Context)

	err = ValidateToolSchemas(ProviderOpenAI, []ToolDefinition{{}}, false)
	require.ErrorAs(t, err, &mappingErr)
	assert.Contains(t, mappingErr.Message, "name")
}

func TestCheckCapabilities(t *testing.T) {
	none := Capabilities{}

	err := CheckCapabilities(ProviderOpenAI, none, Settings{Thinking: &ThinkingConfig{BudgetTokens: 1024}})
	var unsupported *UnsupportedFeatureError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "thinking", unsupported.Feature)

	err = CheckCapabilities(ProviderOpenAI, none, Settings{Grounding: true})
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "grounding", unsupported.Feature)

	err = CheckCapabilities(ProviderAnthropic, none, Settings{ResponseFormat: &ResponseFormat{Type: ResponseFormatJSONObject}})
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ProviderAnthropic, unsupported.Provider)

	all := Capabilities{Thinking: true, Grounding: true, JSONMode: true}
	assert.NoError(t, CheckCapabilities(ProviderGemini, all, Settings{
		Thinking:       &ThinkingConfig{BudgetTokens: 1024},
		Grounding:      true,
		ResponseFormat: &ResponseFormat{Type: ResponseFormatJSONObject},
	}))
}

func TestAssistantText(t *testing.T) {
	assert.Nil(t, AssistantText(NullContent()))
	assert.Nil(t, AssistantText(PartsContent()))
	assert.Equal(t, "", *AssistantText(TextContent("")))
	assert.Equal(t, "ab", *AssistantText(PartsContent(TextPart("a"), TextPart("b"))))
}
