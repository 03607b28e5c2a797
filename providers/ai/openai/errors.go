package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// APIError is a decoded OpenAI error envelope. It exposes the inspection
// methods ai.WrapError looks for.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	Param      string
	cause      error
}

func newAPIError(status int, body *ErrorBody, cause error) *APIError {
	apiErr := &APIError{StatusCode: status, cause: cause}
	if body != nil {
		apiErr.Message = body.Message
		apiErr.Type = body.Type
		apiErr.Param = body.Param
		apiErr.Code = decodeCode(body.Code)
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
	}
	return "openai: " + e.Message
}

func (e *APIError) HTTPStatus() int   { return e.StatusCode }
func (e *APIError) ErrorCode() string { return e.Code }
func (e *APIError) ErrorType() string { return e.Type }
func (e *APIError) Unwrap() error     { return e.cause }

// WrapError folds any failure into a canonical error, decoding the OpenAI
// error envelope from non-2xx bodies first.
func WrapError(err any) error {
	if nativeErr, ok := err.(error); ok {
		var statusErr *utils.HTTPStatusError
		if errors.As(nativeErr, &statusErr) {
			if body := decodeEnvelope(statusErr.Body); body != nil {
				return ai.WrapError(ai.ProviderOpenAI, newAPIError(statusErr.StatusCode, body, statusErr))
			}
		}
	}
	return ai.WrapError(ai.ProviderOpenAI, err)
}

func decodeEnvelope(body []byte) *ErrorBody {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil
	}
	return envelope.Error
}

// decodeCode accepts a string, a number or null.
func decodeCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if n, convErr := number.Int64(); convErr == nil {
			return strconv.FormatInt(n, 10)
		}
		return number.String()
	}
	return string(raw)
}
