package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com"
	messagesEndpoint = "/v1/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"
)

// Transport executes wire requests. Send returns the decoded response and its
// raw body; Open returns the decoded event sequence of a streaming call.
type Transport interface {
	Send(ctx context.Context, request *MessagesRequest) (*MessagesResponse, []byte, error)
	Open(ctx context.Context, request *MessagesRequest) (iter.Seq2[*StreamEvent, error], error)
}

// AnthropicProvider implements [ai.Provider] for the Messages API.
type AnthropicProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
	transport    Transport
}

var _ ai.Provider = (*AnthropicProvider)(nil)

// New returns a provider configured from ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *AnthropicProvider) WithAPIKey(apiKey string) *AnthropicProvider {
	p.apiKey = apiKey
	return p
}

func (p *AnthropicProvider) WithBaseURL(baseURL string) *AnthropicProvider {
	p.baseURL = baseURL
	return p
}

func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) *AnthropicProvider {
	p.client = httpClient
	return p
}

func (p *AnthropicProvider) WithDefaultModel(model string) *AnthropicProvider {
	p.defaultModel = model
	return p
}

func (p *AnthropicProvider) WithTransport(transport Transport) *AnthropicProvider {
	p.transport = transport
	return p
}

func (p *AnthropicProvider) ID() ai.ProviderID             { return ai.ProviderAnthropic }
func (p *AnthropicProvider) Capabilities() ai.Capabilities { return capabilities }
func (p *AnthropicProvider) WrapError(err any) error       { return WrapError(err) }

func (p *AnthropicProvider) currentTransport() Transport {
	if p.transport != nil {
		return p.transport
	}
	return &httpTransport{apiKey: p.apiKey, baseURL: p.baseURL, client: p.client}
}

func (p *AnthropicProvider) prepare(ctx context.Context, request ai.Request, stream bool) (*MessagesRequest, error) {
	if request.Model == "" {
		request.Model = p.defaultModel
	}
	if request.Model == "" {
		return nil, ai.NewConfigurationError("no model given and no default model configured for anthropic", nil)
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "anthropic provider preparing request",
			observability.String(observability.AttrLLMProvider, string(ai.ProviderAnthropic)),
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
	wire.Stream = stream
	return wire, nil
}

// Generate performs a non-streaming call.
func (p *AnthropicProvider) Generate(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
	wire, err := p.prepare(ctx, request, false)
	if err != nil {
		return nil, err
	}

	response, raw, err := p.currentTransport().Send(ctx, wire)
	if err != nil {
		return nil, WrapError(err)
	}

	result := MapResponse(response, wire.Model)
	result.RawResponse = raw
	return result, nil
}

// Stream performs a streaming call.
func (p *AnthropicProvider) Stream(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
	wire, err := p.prepare(ctx, request, true)
	if err != nil {
		return nil, err
	}

	source, err := p.currentTransport().Open(ctx, wire)
	if err != nil {
		return nil, WrapError(err)
	}
	return MapStream(ctx, source, wire.Model), nil
}

// httpTransport authenticates with x-api-key rather than a Bearer token.
type httpTransport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (t *httpTransport) headers() ([]utils.HeaderOption, error) {
	if t.apiKey == "" {
		return nil, ai.NewConfigurationError("ANTHROPIC_API_KEY is not set", nil)
	}
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: t.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}, nil
}

func (t *httpTransport) Send(ctx context.Context, request *MessagesRequest) (*MessagesResponse, []byte, error) {
	headers, err := t.headers()
	if err != nil {
		return nil, nil, err
	}
	return utils.DoPostSync[MessagesResponse](ctx, t.client, t.baseURL+messagesEndpoint, "", request, headers...)
}

func (t *httpTransport) Open(ctx context.Context, request *MessagesRequest) (iter.Seq2[*StreamEvent, error], error) {
	headers, err := t.headers()
	if err != nil {
		return nil, err
	}
	response, err := utils.DoPostStream(ctx, t.client, t.baseURL+messagesEndpoint, "", request, headers...)
	if err != nil {
		return nil, err
	}

	return func(yield func(*StreamEvent, error) bool) {
		defer utils.CloseWithLog(response.Body)

		scanner := utils.NewSSEScanner(response.Body)
		for {
			sse, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}

			var event StreamEvent
			if err := json.Unmarshal([]byte(sse.Data), &event); err != nil {
				mappingErr := ai.NewMappingError(ai.ProviderAnthropic, "stream event", "unparsable event: "+utils.TruncateString(sse.Data, 200))
				mappingErr.Cause = err
				yield(nil, mappingErr)
				return
			}
			if event.Type == "" {
				event.Type = sse.Event
			}
			if !yield(&event, nil) {
				return
			}
		}
	}, nil
}
