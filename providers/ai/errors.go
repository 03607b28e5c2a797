package ai

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// Error is implemented by the four canonical error kinds only.
type Error interface {
	error
	// Name is the kind name, e.g. "ProviderAPIError".
	Name() string
	// CreatedAt is when the error was constructed.
	CreatedAt() time.Time
	canonical()
}

// ConfigurationError reports missing or invalid setup, such as an absent
// credential or an unresolvable default model.
type ConfigurationError struct {
	Message   string
	Timestamp time.Time
	Cause     error
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Timestamp: now(), Cause: cause}
}

func (e *ConfigurationError) Error() string        { return "configuration error: " + e.Message }
func (e *ConfigurationError) Name() string         { return "ConfigurationError" }
func (e *ConfigurationError) CreatedAt() time.Time { return e.Timestamp }
func (e *ConfigurationError) Unwrap() error        { return e.Cause }
func (e *ConfigurationError) canonical()           {}

func (e *ConfigurationError) Format(s fmt.State, verb rune) {
	formatCanonical(s, verb, e.Error(), e.Cause)
}

// UnsupportedFeatureError reports a capability the target provider cannot
// perform.
type UnsupportedFeatureError struct {
	Provider  ProviderID
	Feature   string
	Message   string
	Timestamp time.Time
}

// NewUnsupportedFeatureError builds an UnsupportedFeatureError.
func NewUnsupportedFeatureError(provider ProviderID, feature string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{
		Provider:  provider,
		Feature:   feature,
		Message:   fmt.Sprintf("provider %q does not support %s", provider, feature),
		Timestamp: now(),
	}
}

func (e *UnsupportedFeatureError) Error() string        { return "unsupported feature: " + e.Message }
func (e *UnsupportedFeatureError) Name() string         { return "UnsupportedFeatureError" }
func (e *UnsupportedFeatureError) CreatedAt() time.Time { return e.Timestamp }
func (e *UnsupportedFeatureError) canonical()           {}

// ProviderAPIError reports a failure of the backend service itself. Each of
// StatusCode, ErrorCode and ErrorType is optional. Underlying keeps the
// original value whatever its type; Cause is set when that value is an error.
type ProviderAPIError struct {
	Provider   ProviderID
	StatusCode int
	ErrorCode  string
	ErrorType  string
	Message    string
	Underlying any
	Cause      error
	Timestamp  time.Time
}

// NewProviderAPIError builds a ProviderAPIError carrying only a message.
func NewProviderAPIError(provider ProviderID, message string) *ProviderAPIError {
	return &ProviderAPIError{Provider: provider, Message: message, Timestamp: now()}
}

func (e *ProviderAPIError) Error() string {
	var b strings.Builder
	b.WriteString("provider error")
	if e.Provider != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Provider))
		b.WriteString(")")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " http %d", e.StatusCode)
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	var tags []string
	if e.ErrorType != "" {
		tags = append(tags, "type="+e.ErrorType)
	}
	if e.ErrorCode != "" {
		tags = append(tags, "code="+e.ErrorCode)
	}
	if len(tags) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("]")
	}
	return b.String()
}

func (e *ProviderAPIError) Name() string         { return "ProviderAPIError" }
func (e *ProviderAPIError) CreatedAt() time.Time { return e.Timestamp }
func (e *ProviderAPIError) Unwrap() error        { return e.Cause }
func (e *ProviderAPIError) canonical()           {}

func (e *ProviderAPIError) Format(s fmt.State, verb rune) {
	cause := e.Cause
	if cause == nil && e.Underlying != nil {
		cause = fmt.Errorf("%v", e.Underlying)
	}
	formatCanonical(s, verb, e.Error(), cause)
}

// MappingError reports that the canonical/wire translation could not be
// completed: a bad role or content shape, a malformed tool schema, or an
// unparsable payload. Context locates the offending element.
type MappingError struct {
	Provider  ProviderID
	Context   string
	Message   string
	Cause     error
	Timestamp time.Time
}

// NewMappingError builds a MappingError.
func NewMappingError(provider ProviderID, context, message string) *MappingError {
	return &MappingError{Provider: provider, Context: context, Message: message, Timestamp: now()}
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("mapping error")
	if e.Provider != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Provider))
		b.WriteString(")")
	}
	if e.Context != "" {
		b.WriteString(" at ")
		b.WriteString(e.Context)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *MappingError) Name() string         { return "MappingError" }
func (e *MappingError) CreatedAt() time.Time { return e.Timestamp }
func (e *MappingError) Unwrap() error        { return e.Cause }
func (e *MappingError) canonical()           {}

func (e *MappingError) Format(s fmt.State, verb rune) {
	formatCanonical(s, verb, e.Error(), e.Cause)
}

// formatCanonical prints the message, and with %+v appends the cause chain.
func formatCanonical(s fmt.State, verb rune, message string, cause error) {
	switch verb {
	case 'v':
		_, _ = io.WriteString(s, message)
		if s.Flag('+') && cause != nil {
			_, _ = fmt.Fprintf(s, "\ncaused by: %+v", cause)
		}
	case 's':
		_, _ = io.WriteString(s, message)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", message)
	}
}

// statusCoder, errorCoder and errorTyper are the optional inspection hooks
// WrapError looks for on native errors.
type statusCoder interface{ HTTPStatus() int }
type errorCoder interface{ ErrorCode() string }
type errorTyper interface{ ErrorType() string }

// WrapError folds any failure into a canonical error.
//
// A canonical error, or an error chain containing one, is returned as is.
// Errors exposing HTTPStatus, ErrorCode or ErrorType (each optional) and maps
// with status/statusCode/code/type keys become a ProviderAPIError carrying
// those fields. Anything else becomes a ProviderAPIError with only a message.
// The original value is always kept in Underlying.
func WrapError(provider ProviderID, err any) error {
	switch value := err.(type) {
	case nil:
		return nil
	case Error:
		return value
	case error:
		var canonicalErr Error
		if errors.As(value, &canonicalErr) {
			return canonicalErr
		}
		return wrapNativeError(provider, value)
	case map[string]any:
		return wrapMap(provider, value)
	case string:
		wrapped := NewProviderAPIError(provider, value)
		wrapped.Underlying = value
		return wrapped
	default:
		wrapped := NewProviderAPIError(provider, fmt.Sprintf("%v", value))
		wrapped.Underlying = value
		return wrapped
	}
}

func wrapNativeError(provider ProviderID, err error) *ProviderAPIError {
	wrapped := NewProviderAPIError(provider, err.Error())
	wrapped.Underlying = err
	wrapped.Cause = err

	var status statusCoder
	if errors.As(err, &status) {
		wrapped.StatusCode = status.HTTPStatus()
	}
	var code errorCoder
	if errors.As(err, &code) {
		wrapped.ErrorCode = code.ErrorCode()
	}
	var typ errorTyper
	if errors.As(err, &typ) {
		wrapped.ErrorType = typ.ErrorType()
	}
	return wrapped
}

func wrapMap(provider ProviderID, fields map[string]any) *ProviderAPIError {
	message, _ := fields["message"].(string)
	if message == "" {
		message = fmt.Sprintf("%v", fields)
	}
	wrapped := NewProviderAPIError(provider, message)
	wrapped.Underlying = fields

	for _, key := range []string{"status", "statusCode", "status_code"} {
		if status, ok := toCount(fields[key]); ok {
			wrapped.StatusCode = status
			break
		}
	}
	switch code := fields["code"].(type) {
	case string:
		wrapped.ErrorCode = code
	case nil:
	default:
		if n, ok := toCount(code); ok {
			wrapped.ErrorCode = strconv.Itoa(n)
			if wrapped.StatusCode == 0 && n >= 100 && n < 600 {
				wrapped.StatusCode = n
			}
		}
	}
	if typ, ok := fields["type"].(string); ok {
		wrapped.ErrorType = typ
	}
	return wrapped
}

// IsRateLimit reports whether err is a ProviderAPIError signalling rate
// limiting or quota exhaustion.
func IsRateLimit(err error) bool {
	var apiErr *ProviderAPIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	for _, tag := range []string{apiErr.ErrorCode, apiErr.ErrorType} {
		switch strings.ToLower(tag) {
		case "rate_limit", "rate_limit_exceeded", "rate_limit_error", "resource_exhausted":
			return true
		}
	}
	return false
}

// HTTPStatusFor suggests the HTTP status an outer layer should answer with.
func HTTPStatusFor(err error) int {
	var (
		configErr      *ConfigurationError
		unsupportedErr *UnsupportedFeatureError
		mappingErr     *MappingError
		apiErr         *ProviderAPIError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &unsupportedErr), errors.As(err, &mappingErr):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case IsRateLimit(err):
		return http.StatusTooManyRequests
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 600 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
