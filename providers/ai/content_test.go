package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContent_JSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		isNull  bool
		isText  bool
		isParts bool
	}{
		{"null", `null`, true, false, false},
		{"empty string", `""`, false, true, false},
		{"empty parts", `[]`, false, false, true},
		{"parts", `[{"type":"text","text":"hi"}]`, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var content MessageContent
			require.NoError(t, json.Unmarshal([]byte(tt.json), &content))

			_, isText := content.Text()
			_, isParts := content.Parts()
			assert.Equal(t, tt.isNull, content.IsNull())
			assert.Equal(t, tt.isText, isText)
			assert.Equal(t, tt.isParts, isParts)

			encoded, err := json.Marshal(content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(encoded))
		})
	}
}

func TestMessageContent_RejectsObjects(t *testing.T) {
	var content MessageContent
	assert.Error(t, json.Unmarshal([]byte(`{"text":"hi"}`), &content))
}

func TestMessageContent_MessageField(t *testing.T) {
	var message Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":null,"toolCalls":[{"id":"c1","type":"function","function":{"name":"f","arguments":"{}"}}]}`), &message))
	assert.True(t, message.Content.IsNull())
	require.Len(t, message.ToolCalls, 1)

	require.NoError(t, json.Unmarshal([]byte(`{"role":"user"}`), &message))
	assert.True(t, message.Content.IsNull())
}

func TestMessageContent_Helpers(t *testing.T) {
	content := PartsContent(TextPart("a"), ImagePart("image/png", "eA=="), TextPart("b"))
	assert.True(t, content.HasImage())
	assert.Equal(t, "ab", content.JoinedText())
	assert.False(t, content.IsEmpty())

	assert.True(t, TextContent("").IsEmpty())
	assert.True(t, NullContent().IsEmpty())
	assert.Equal(t, "x", TextContent("x").JoinedText())
}

func TestContentOrNil(t *testing.T) {
	assert.Nil(t, ContentOrNil(""))
	assert.Equal(t, "hi", *ContentOrNil("hi"))

	var result *GenerateResult
	assert.Empty(t, result.ContentText())
}
