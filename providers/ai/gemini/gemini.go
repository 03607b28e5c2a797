package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Transport executes wire requests for model. Send returns the decoded
// response and its raw body; Open returns the decoded chunk sequence of a
// streaming call.
type Transport interface {
	Send(ctx context.Context, model string, request *GenerateContentRequest) (*GenerateContentResponse, []byte, error)
	Open(ctx context.Context, model string, request *GenerateContentRequest) (iter.Seq2[*GenerateContentResponse, error], error)
}

// GeminiProvider implements [ai.Provider] for the Gemini API.
type GeminiProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
	transport    Transport
}

var _ ai.Provider = (*GeminiProvider)(nil)

// New creates a provider from the environment:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: base URL (optional, defaults to Google's API)
func New() *GeminiProvider {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GeminiProvider{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *GeminiProvider) WithAPIKey(apiKey string) *GeminiProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *GeminiProvider) WithBaseURL(baseURL string) *GeminiProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) *GeminiProvider {
	p.client = httpClient
	return p
}

// WithDefaultModel sets the model used when a request names none.
func (p *GeminiProvider) WithDefaultModel(model string) *GeminiProvider {
	p.defaultModel = model
	return p
}

// WithTransport replaces the HTTP transport.
func (p *GeminiProvider) WithTransport(transport Transport) *GeminiProvider {
	p.transport = transport
	return p
}

func (p *GeminiProvider) ID() ai.ProviderID             { return ai.ProviderGemini }
func (p *GeminiProvider) Capabilities() ai.Capabilities { return capabilities }
func (p *GeminiProvider) WrapError(err any) error       { return WrapError(err) }

func (p *GeminiProvider) currentTransport() Transport {
	if p.transport != nil {
		return p.transport
	}
	return &httpTransport{apiKey: p.apiKey, baseURL: p.baseURL, client: p.client}
}

func (p *GeminiProvider) prepare(ctx context.Context, request ai.Request, stream bool) (string, *GenerateContentRequest, error) {
	model := request.Model
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return "", nil, ai.NewConfigurationError("no model given and no default model configured for gemini", nil)
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "gemini provider preparing request",
			observability.String(observability.AttrLLMProvider, string(ai.ProviderGemini)),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, model),
			observability.Bool(observability.AttrLLMStreaming, stream),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	wire, err := MapRequest(request)
	if err != nil {
		return "", nil, err
	}
	return model, wire, nil
}

// Generate performs a non-streaming call.
func (p *GeminiProvider) Generate(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
	model, wire, err := p.prepare(ctx, request, false)
	if err != nil {
		return nil, err
	}

	response, raw, err := p.currentTransport().Send(ctx, model, wire)
	if err != nil {
		return nil, WrapError(err)
	}

	result := MapResponse(response, model, request.Settings.JSONMode())
	result.RawResponse = raw
	return result, nil
}

// Stream performs a streaming call.
func (p *GeminiProvider) Stream(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
	model, wire, err := p.prepare(ctx, request, true)
	if err != nil {
		return nil, err
	}

	source, err := p.currentTransport().Open(ctx, model, wire)
	if err != nil {
		return nil, WrapError(err)
	}
	return MapStream(ctx, source, model, request.Settings.JSONMode()), nil
}

// httpTransport authenticates with the x-goog-api-key header so the key
// never appears in URLs or logs.
type httpTransport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (t *httpTransport) endpoint(model, method string) string {
	return t.baseURL + "/models/" + url.PathEscape(model) + ":" + method
}

func (t *httpTransport) headers() ([]utils.HeaderOption, error) {
	if t.apiKey == "" {
		return nil, ai.NewConfigurationError("GEMINI_API_KEY is not set", nil)
	}
	return []utils.HeaderOption{{Key: "x-goog-api-key", Value: t.apiKey}}, nil
}

func (t *httpTransport) Send(ctx context.Context, model string, request *GenerateContentRequest) (*GenerateContentResponse, []byte, error) {
	headers, err := t.headers()
	if err != nil {
		return nil, nil, err
	}
	return utils.DoPostSync[GenerateContentResponse](ctx, t.client, t.endpoint(model, "generateContent"), "", request, headers...)
}

func (t *httpTransport) Open(ctx context.Context, model string, request *GenerateContentRequest) (iter.Seq2[*GenerateContentResponse, error], error) {
	headers, err := t.headers()
	if err != nil {
		return nil, err
	}
	response, err := utils.DoPostStream(ctx, t.client, t.endpoint(model, "streamGenerateContent")+"?alt=sse", "", request, headers...)
	if err != nil {
		return nil, err
	}

	return func(yield func(*GenerateContentResponse, error) bool) {
		defer utils.CloseWithLog(response.Body)

		scanner := utils.NewSSEScanner(response.Body)
		for {
			event, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}

			var chunk GenerateContentResponse
			if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
				mappingErr := ai.NewMappingError(ai.ProviderGemini, "stream chunk", "unparsable chunk: "+utils.TruncateString(event.Data, 200))
				mappingErr.Cause = err
				yield(nil, mappingErr)
				return
			}
			if !yield(&chunk, nil) {
				return
			}
		}
	}, nil
}
