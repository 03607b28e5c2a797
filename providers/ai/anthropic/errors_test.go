package anthropic

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

func TestWrapError(t *testing.T) {
	statusErr := &utils.HTTPStatusError{
		StatusCode: 529,
		Body:       []byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`),
	}

	err := WrapError(statusErr)

	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 529, apiErr.StatusCode)
	assert.Equal(t, "overloaded_error", apiErr.ErrorType)
	assert.ErrorIs(t, err, statusErr)
	assert.Equal(t, 529, ai.HTTPStatusFor(err))

	assert.Same(t, err, WrapError(err))
}

func TestWrapError_UndecodableBody(t *testing.T) {
	statusErr := &utils.HTTPStatusError{StatusCode: http.StatusBadGateway, Body: []byte("<html>bad gateway</html>")}

	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, WrapError(statusErr), &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.ErrorType)
}

func TestWrapError_Plain(t *testing.T) {
	var apiErr *ai.ProviderAPIError
	require.ErrorAs(t, WrapError(errors.New("EOF")), &apiErr)
	assert.Equal(t, ai.ProviderAnthropic, apiErr.Provider)
	assert.Nil(t, WrapError(nil))
}
