package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"os"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

const (
	// defaultBaseURL is the OpenAI API base; override it for compatible servers.
	defaultBaseURL = "https://api.openai.com/v1"

	chatCompletionsEndpoint = "/chat/completions"
)

// Transport executes wire requests. Send returns the decoded response and its
// raw body; Open returns the decoded chunk sequence of a streaming call. The
// iterator must release its resources when the consumer stops.
type Transport interface {
	Send(ctx context.Context, request *ChatCompletionRequest) (*ChatCompletionResponse, []byte, error)
	Open(ctx context.Context, request *ChatCompletionRequest) (iter.Seq2[*ChatCompletionChunk, error], error)
}

// OpenAIProvider implements [ai.Provider] for the Chat Completions API.
type OpenAIProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
	transport    Transport
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// New returns a provider configured from OPENAI_API_KEY and
// OPENAI_API_BASE_URL.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey overrides the API key.
func (p *OpenAIProvider) WithAPIKey(apiKey string) *OpenAIProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL.
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the HTTP client of the default transport.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	p.client = httpClient
	return p
}

// WithDefaultModel sets the model used when a request names none.
func (p *OpenAIProvider) WithDefaultModel(model string) *OpenAIProvider {
	p.defaultModel = model
	return p
}

// WithTransport replaces the HTTP transport, typically with a test double.
func (p *OpenAIProvider) WithTransport(transport Transport) *OpenAIProvider {
	p.transport = transport
	return p
}

func (p *OpenAIProvider) ID() ai.ProviderID             { return ai.ProviderOpenAI }
func (p *OpenAIProvider) Capabilities() ai.Capabilities { return capabilities }
func (p *OpenAIProvider) WrapError(err any) error       { return WrapError(err) }

func (p *OpenAIProvider) currentTransport() Transport {
	if p.transport != nil {
		return p.transport
	}
	return &httpTransport{apiKey: p.apiKey, baseURL: p.baseURL, client: p.client}
}

func (p *OpenAIProvider) prepare(ctx context.Context, request ai.Request, stream bool) (*ChatCompletionRequest, error) {
	if request.Model == "" {
		request.Model = p.defaultModel
	}
	if request.Model == "" {
		return nil, ai.NewConfigurationError("no model given and no default model configured for openai", nil)
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "openai provider preparing request",
			observability.String(observability.AttrLLMProvider, string(ai.ProviderOpenAI)),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Bool(observability.AttrLLMStreaming, stream),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	wire, err := MapRequest(request)
	if err != nil {
		return nil, err
	}
	if stream {
		wire.Stream = true
		wire.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return wire, nil
}

// Generate performs a non-streaming call.
func (p *OpenAIProvider) Generate(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
	wire, err := p.prepare(ctx, request, false)
	if err != nil {
		return nil, err
	}

	response, raw, err := p.currentTransport().Send(ctx, wire)
	if err != nil {
		return nil, WrapError(err)
	}

	result := MapResponse(response, wire.Model, request.Settings.JSONMode())
	result.RawResponse = raw
	return result, nil
}

// Stream performs a streaming call.
func (p *OpenAIProvider) Stream(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
	wire, err := p.prepare(ctx, request, true)
	if err != nil {
		return nil, err
	}

	source, err := p.currentTransport().Open(ctx, wire)
	if err != nil {
		return nil, WrapError(err)
	}
	return MapStream(ctx, source, wire.Model, request.Settings.JSONMode()), nil
}

// httpTransport talks to the API over HTTP with Bearer authentication.
type httpTransport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (t *httpTransport) checkKey() error {
	if t.apiKey == "" {
		return ai.NewConfigurationError("OPENAI_API_KEY is not set", nil)
	}
	return nil
}

func (t *httpTransport) Send(ctx context.Context, request *ChatCompletionRequest) (*ChatCompletionResponse, []byte, error) {
	if err := t.checkKey(); err != nil {
		return nil, nil, err
	}
	return utils.DoPostSync[ChatCompletionResponse](ctx, t.client, t.baseURL+chatCompletionsEndpoint, t.apiKey, request)
}

func (t *httpTransport) Open(ctx context.Context, request *ChatCompletionRequest) (iter.Seq2[*ChatCompletionChunk, error], error) {
	if err := t.checkKey(); err != nil {
		return nil, err
	}
	response, err := utils.DoPostStream(ctx, t.client, t.baseURL+chatCompletionsEndpoint, t.apiKey, request)
	if err != nil {
		return nil, err
	}

	return func(yield func(*ChatCompletionChunk, error) bool) {
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

			var chunk ChatCompletionChunk
			if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
				mappingErr := ai.NewMappingError(ai.ProviderOpenAI, "stream chunk", "unparsable chunk: "+utils.TruncateString(event.Data, 200))
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
