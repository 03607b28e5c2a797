package gemini

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// APIError is a decoded Gemini error. Status (RESOURCE_EXHAUSTED,
// INVALID_ARGUMENT, ...) is reported as the error code.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	cause      error
}

func newAPIError(status int, body *ErrorBody, cause error) *APIError {
	apiErr := &APIError{StatusCode: status, cause: cause}
	if body != nil {
		apiErr.Status = body.Status
		apiErr.Message = body.Message
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = body.Code
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (e *APIError) HTTPStatus() int   { return e.StatusCode }
func (e *APIError) ErrorCode() string { return e.Status }
func (e *APIError) Unwrap() error     { return e.cause }

// WrapError folds any failure into a canonical error, decoding the Gemini
// error envelope from non-2xx bodies first. The API answers some failures
// with a JSON array holding one envelope; both shapes are accepted.
func WrapError(err any) error {
	if nativeErr, ok := err.(error); ok {
		var statusErr *utils.HTTPStatusError
		if errors.As(nativeErr, &statusErr) {
			if body := decodeEnvelope(statusErr.Body); body != nil {
				return ai.WrapError(ai.ProviderGemini, newAPIError(statusErr.StatusCode, body, statusErr))
			}
		}
	}
	return ai.WrapError(ai.ProviderGemini, err)
}

func decodeEnvelope(body []byte) *ErrorBody {
	var envelope ErrorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		return envelope.Error
	}
	var envelopes []ErrorEnvelope
	if json.Unmarshal(body, &envelopes) == nil && len(envelopes) > 0 && envelopes[0].Error != nil {
		return envelopes[0].Error
	}
	return nil
}
