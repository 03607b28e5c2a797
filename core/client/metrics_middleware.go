package client

import (
	"context"
	"time"

	"github.com/leofalp/unillm/internal/metrics"
	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// NewMetricsMiddleware records call counts, latency, token usage and stream
// chunk counts on m.
func NewMetricsMiddleware(m *metrics.Metrics) MiddlewareConfig {
	return MiddlewareConfig{
		Generate: func(next GenerateFunc) GenerateFunc {
			return func(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
				timer := utils.NewTimer()
				result, err := next(ctx, request)
				elapsed := timer.Stop()
				if err != nil {
					m.ObserveError(string(request.Provider), metrics.ModeGenerate, errorKind(err), elapsed)
					return nil, err
				}
				observeResult(m, request.Provider, metrics.ModeGenerate, result, elapsed)
				return result, nil
			}
		},
		Stream: func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
				provider := string(request.Provider)
				timer := utils.NewTimer()
				stream, err := next(ctx, request)
				if err != nil {
					m.ObserveError(provider, metrics.ModeStream, errorKind(err), timer.Stop())
					return nil, err
				}

				return ai.NewChunkStream(func(yield func(ai.StreamChunk, error) bool) {
					for chunk, err := range stream.Iter() {
						if err == nil {
							m.ObserveChunk(provider, string(chunk.Type))
							switch chunk.Type {
							case ai.ChunkError:
								m.ObserveError(provider, metrics.ModeStream, errorKind(chunk.Err), timer.Stop())
							case ai.ChunkFinalResult:
								observeResult(m, request.Provider, metrics.ModeStream, chunk.Result, timer.Stop())
							}
						}
						if !yield(chunk, err) {
							return
						}
					}
				}), nil
			}
		},
	}
}

func observeResult(m *metrics.Metrics, provider ai.ProviderID, mode string, result *ai.GenerateResult, elapsed time.Duration) {
	m.ObserveRequest(string(provider), mode, string(result.FinishReason), elapsed)
	if result.Usage != nil {
		m.ObserveTokens(string(provider), utils.Deref(result.Usage.PromptTokens), utils.Deref(result.Usage.CompletionTokens))
	}
}
