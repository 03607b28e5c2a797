package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is used by TruncateString when maxLen is not positive.
const DefaultMaxStringLength = 500

// JSONToString returns the JSON encoding of object, pretty-printed when indent
// is true. Marshal failures are rendered as a JSON error object so the result
// is always safe to log.
func JSONToString(object any, indent ...bool) string {
	var (
		encoded []byte
		err     error
	)
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, "failed to marshal to JSON: "+err.Error())
	}
	return string(encoded)
}

// TruncateString shortens s to at most maxLen bytes and records the original
// length in a suffix.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
