package ai

// Typed readers for Request.ProviderOptions. Values decoded from JSON arrive
// as float64; values set in Go may be any numeric kind. A missing key or a
// value of the wrong type yields nil.

// OptionInt reads an integer option.
func OptionInt(options map[string]any, key string) *int {
	if count, ok := toCount(options[key]); ok {
		return &count
	}
	return nil
}

// OptionFloat reads a floating-point option.
func OptionFloat(options map[string]any, key string) *float64 {
	var value float64
	switch v := options[key].(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	default:
		return nil
	}
	return &value
}

// OptionBool reads a boolean option.
func OptionBool(options map[string]any, key string) *bool {
	if value, ok := options[key].(bool); ok {
		return &value
	}
	return nil
}

// OptionString reads a string option; empty strings are returned as "".
func OptionString(options map[string]any, key string) string {
	value, _ := options[key].(string)
	return value
}
