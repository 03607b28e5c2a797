package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/unillm/internal/metrics"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// Client routes canonical requests to registered providers. A Client is
// immutable after New and safe for concurrent use.
type Client struct {
	registry      *ai.Registry
	defaultModels map[ai.ProviderID]string
	observer      observability.Observer
	metrics       *metrics.Metrics
	middlewares   []MiddlewareConfig

	generate GenerateFunc
	stream   StreamFunc
}

// Option configures a Client.
type Option func(*Client)

// WithObserver enables structured logging of every call. The observability
// middleware becomes the outermost entry of the chain.
func WithObserver(observer observability.Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithMetrics records request, error, token and chunk metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithMiddleware appends middlewares to the chain, outermost first.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// WithDefaultModel sets the model used for provider when a request names
// none. It takes precedence over the provider's own default.
func WithDefaultModel(provider ai.ProviderID, model string) Option {
	return func(c *Client) {
		c.defaultModels[provider] = model
	}
}

// New builds a Client over registry.
func New(registry *ai.Registry, opts ...Option) (*Client, error) {
	if registry == nil {
		return nil, ai.NewConfigurationError("client requires a provider registry", nil)
	}

	c := &Client{
		registry:      registry,
		defaultModels: map[ai.ProviderID]string{},
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, middleware := range c.middlewares {
		if middleware.Generate == nil {
			return nil, ai.NewConfigurationError(fmt.Sprintf("middleware at index %d has a nil Generate function", i), nil)
		}
	}

	// Observability first so it sees the outcome of every other middleware,
	// metrics right after it.
	var chain []MiddlewareConfig
	if c.observer != nil {
		chain = append(chain, NewObservabilityMiddleware(c.observer))
	}
	if c.metrics != nil {
		chain = append(chain, NewMetricsMiddleware(c.metrics))
	}
	chain = append(chain, c.middlewares...)

	c.generate = buildGenerateChain(c.registry, chain)
	c.stream = buildStreamChain(c.registry, chain)
	return c, nil
}

// Providers lists the registered provider identities.
func (c *Client) Providers() []ai.ProviderID {
	return c.registry.IDs()
}

// Generate performs one non-streaming call through the chain.
func (c *Client) Generate(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
	request, err := c.resolve(request)
	if err != nil {
		return nil, err
	}
	return c.generate(ctx, request)
}

// Stream opens one streaming call through the chain. The returned stream must
// be drained or abandoned by breaking out of the range loop.
func (c *Client) Stream(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
	request, err := c.resolve(request)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, request)
}

func (c *Client) resolve(request ai.Request) (ai.Request, error) {
	if request.Provider == "" {
		return request, ai.NewConfigurationError("request names no provider", nil)
	}
	if request.Model == "" {
		request.Model = c.defaultModels[request.Provider]
	}
	return request, nil
}

// errorKind names the canonical kind of err, or "unknown".
func errorKind(err error) string {
	var canonical ai.Error
	if errors.As(err, &canonical) {
		return canonical.Name()
	}
	return "unknown"
}
