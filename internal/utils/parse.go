package utils

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParsePartialJSON parses a JSON document that may still be incomplete, such
// as a snapshot taken mid-stream. Well-formed input is decoded directly;
// otherwise the text is repaired with jsonrepair and decoded again.
//
// The boolean is false when nothing usable could be recovered. Callers treat
// that as "no parse yet", never as an error.
func ParsePartialJSON(content string) (any, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, false
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value, true
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, false
	}
	return value, true
}

// CompactJSON re-encodes raw JSON without insignificant whitespace, keeping
// key order. Input that is not valid JSON is returned trimmed but otherwise
// unchanged; empty or null input becomes "{}".
func CompactJSON(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
