package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type contentKind uint8

const (
	contentNull contentKind = iota
	contentText
	contentParts
)

// MessageContent is the three-state content of a message: null, a string, or
// a list of parts. The zero value is null. An empty string and an empty part
// list are distinct from null.
type MessageContent struct {
	kind  contentKind
	text  string
	parts []ContentPart
}

// NullContent returns null content.
func NullContent() MessageContent {
	return MessageContent{}
}

// TextContent returns string content.
func TextContent(text string) MessageContent {
	return MessageContent{kind: contentText, text: text}
}

// PartsContent returns part-list content. Called without arguments it yields
// an empty (non-null) list.
func PartsContent(parts ...ContentPart) MessageContent {
	if parts == nil {
		parts = []ContentPart{}
	}
	return MessageContent{kind: contentParts, parts: parts}
}

// IsNull reports whether the content is null.
func (c MessageContent) IsNull() bool {
	return c.kind == contentNull
}

// Text returns the string content and whether the content is a string.
func (c MessageContent) Text() (string, bool) {
	return c.text, c.kind == contentText
}

// Parts returns the part list and whether the content is a part list.
func (c MessageContent) Parts() ([]ContentPart, bool) {
	return c.parts, c.kind == contentParts
}

// IsEmpty reports whether the content is null, "" or an empty part list.
func (c MessageContent) IsEmpty() bool {
	switch c.kind {
	case contentText:
		return c.text == ""
	case contentParts:
		return len(c.parts) == 0
	default:
		return true
	}
}

// HasImage reports whether any part is an image.
func (c MessageContent) HasImage() bool {
	for _, part := range c.parts {
		if part.Type == ContentPartImage {
			return true
		}
	}
	return false
}

// JoinedText concatenates the string content or every text part.
func (c MessageContent) JoinedText() string {
	switch c.kind {
	case contentText:
		return c.text
	case contentParts:
		var builder strings.Builder
		for _, part := range c.parts {
			if part.Type == ContentPartText {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	default:
		return ""
	}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case contentText:
		return json.Marshal(c.text)
	case contentParts:
		return json.Marshal(c.parts)
	default:
		return []byte("null"), nil
	}
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*c = NullContent()
	case trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = TextContent(text)
	case trimmed[0] == '[':
		var parts []ContentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
	default:
		return fmt.Errorf("message content must be null, a string or an array, got %s", string(trimmed[:1]))
	}
	return nil
}

// ContentPartType discriminates [ContentPart].
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
)

// ContentPart is either a text segment or an inline image.
type ContentPart struct {
	Type  ContentPartType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Image *ImageData      `json:"image,omitempty"`
}

// ImageData is a base64-encoded image with its MIME type.
type ImageData struct {
	MimeType   string `json:"mimeType"`
	Base64Data string `json:"base64Data"`
}

// TextPart builds a text part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartText, Text: text}
}

// ImagePart builds an image part.
func ImagePart(mimeType, base64Data string) ContentPart {
	return ContentPart{Type: ContentPartImage, Image: &ImageData{MimeType: mimeType, Base64Data: base64Data}}
}
