package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// APIError is a decoded Anthropic error. The API reports a type
// (rate_limit_error, overloaded_error, ...) but no separate code.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	RequestID  string
	cause      error
}

func newAPIError(status int, body *ErrorBody, cause error) *APIError {
	apiErr := &APIError{StatusCode: status, cause: cause}
	if body != nil {
		apiErr.Type = body.Type
		apiErr.Message = body.Message
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("anthropic: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic: %s: %s", e.Type, e.Message)
}

func (e *APIError) HTTPStatus() int   { return e.StatusCode }
func (e *APIError) ErrorType() string { return e.Type }
func (e *APIError) Unwrap() error     { return e.cause }

// WrapError folds any failure into a canonical error, decoding the Anthropic
// error envelope from non-2xx bodies first.
func WrapError(err any) error {
	if nativeErr, ok := err.(error); ok {
		var statusErr *utils.HTTPStatusError
		if errors.As(nativeErr, &statusErr) {
			var envelope ErrorEnvelope
			if json.Unmarshal(statusErr.Body, &envelope) == nil && envelope.Error != nil {
				apiErr := newAPIError(statusErr.StatusCode, envelope.Error, statusErr)
				apiErr.RequestID = envelope.RequestID
				return ai.WrapError(ai.ProviderAnthropic, apiErr)
			}
		}
	}
	return ai.WrapError(ai.ProviderAnthropic, err)
}
