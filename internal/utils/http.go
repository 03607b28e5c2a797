package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/unillm/providers/observability"
)

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is a single extra header applied to an outgoing request.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPStatusError is returned when a provider answers with a non-2xx status.
// Body holds the (size-capped) response body so provider packages can decode
// their own error envelope from it.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("non-2xx status %d", e.StatusCode)
	}
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(string(e.Body), 500))
}

// HTTPStatus reports the response status code. The canonical error wrapper
// looks for this method when folding transport failures.
func (e *HTTPStatusError) HTTPStatus() int {
	return e.StatusCode
}

// newHTTPStatusError drains the body of a failed response into an HTTPStatusError.
func newHTTPStatusError(response *http.Response) error {
	statusErr := &HTTPStatusError{
		StatusCode: response.StatusCode,
		Status:     response.Status,
	}
	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if readErr != nil {
		return fmt.Errorf("%w (failed to read body: %v)", statusErr, readErr)
	}
	statusErr.Body = body
	return statusErr
}

// newJSONRequest builds a POST request carrying body as JSON plus the
// authorization and custom headers.
func newJSONRequest(ctx context.Context, url string, apiKey string, body any, headers []HeaderOption) (*http.Request, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	// Custom headers may override Authorization.
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	return req, len(jsonBody), nil
}

// DoPostSync performs a synchronous HTTP POST request with a JSON body and
// decodes the response into OutputStruct.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are propagated wrapped with %w
//   - Non-2xx responses return an [*HTTPStatusError] carrying the body
//   - Response body close errors are logged but don't override primary errors
//   - JSON decoding errors include a response preview for debugging
//
// The raw body is returned alongside the decoded value so mappers can keep it
// as the canonical RawResponse.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*OutputStruct, []byte, error) {
	observer := observability.ObserverFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, bodySize, err := newJSONRequest(ctx, url, apiKey, body, headers)
	if err != nil {
		return nil, nil, err
	}

	if observer != nil {
		observer.Trace(ctx, "http request prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
		)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if observer != nil {
			observer.Debug(ctx, "http request failed",
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, requestDuration),
			)
		}
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, nil, newHTTPStatusError(res)
	}

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if observer != nil {
		observer.Trace(ctx, "http response received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return nil, respBody, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return &resStruct, respBody, nil
}

// DoPostStream performs an HTTP POST request and returns the raw response with
// body left open for SSE reading. The caller is responsible for closing the
// response body when done reading. On error paths the body is read and closed
// before returning.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	observer := observability.ObserverFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, bodySize, err := newJSONRequest(ctx, url, apiKey, body, headers)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	if observer != nil {
		observer.Trace(ctx, "http stream request prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
		)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if observer != nil {
			observer.Debug(ctx, "http stream request failed",
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, requestDuration),
			)
		}
		return nil, fmt.Errorf("error sending stream request: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		return nil, newHTTPStatusError(response)
	}

	if observer != nil {
		observer.Trace(ctx, "http stream started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
	}

	return response, nil
}

// CloseWithLog closes closer and logs, rather than returns, any failure.
func CloseWithLog(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
