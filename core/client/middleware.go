package client

import (
	"context"

	"github.com/leofalp/unillm/providers/ai"
)

// GenerateFunc performs one non-streaming call. It is the base unit threaded
// through the generate middleware chain.
type GenerateFunc func(ctx context.Context, request ai.Request) (*ai.GenerateResult, error)

// StreamFunc opens one streaming call. It is the base unit threaded through
// the stream middleware chain.
type StreamFunc func(ctx context.Context, request ai.Request) (*ai.ChunkStream, error)

// Middleware wraps the next GenerateFunc in the chain. The first middleware
// passed to [WithMiddleware] is the outermost wrapper.
type Middleware func(next GenerateFunc) GenerateFunc

// StreamMiddleware is the streaming counterpart of Middleware. It may wrap
// the returned ChunkStream to observe chunks as the caller drains them.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a generate middleware with its optional streaming
// counterpart. Generate is required; a nil Stream means streaming calls
// bypass this entry.
type MiddlewareConfig struct {
	Generate Middleware
	Stream   StreamMiddleware
}

// buildGenerateChain wraps the registry dispatch with middlewares, applied in
// reverse so that middlewares[0] runs first.
func buildGenerateChain(registry *ai.Registry, middlewares []MiddlewareConfig) GenerateFunc {
	var chain GenerateFunc = func(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
		provider, err := registry.Lookup(request.Provider)
		if err != nil {
			return nil, err
		}
		return provider.Generate(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Generate(chain)
	}
	return chain
}

// buildStreamChain is the streaming counterpart of buildGenerateChain. Entries
// with a nil Stream are skipped.
func buildStreamChain(registry *ai.Registry, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
		provider, err := registry.Lookup(request.Provider)
		if err != nil {
			return nil, err
		}
		return provider.Stream(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}
