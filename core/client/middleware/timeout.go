package middleware

import (
	"context"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

// NewTimeoutMiddleware enforces a deadline on generate and stream calls.
//
// For Generate the context is canceled as soon as the provider returns. For
// Stream the deadline covers the whole stream: cancel runs when the stream is
// drained, fails, or the caller breaks out of the range loop. A shorter
// deadline already on the caller's context still wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Generate: buildGenerateTimeout(timeout),
		Stream:   buildStreamTimeout(timeout),
	}
}

func buildGenerateTimeout(timeout time.Duration) client.Middleware {
	return func(next client.GenerateFunc) client.GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				cancel()
				return nil, err
			}
			return wrapStreamWithCancel(stream, cancel), nil
		}
	}
}

// wrapStreamWithCancel calls cancel once the stream ends, fails or is
// abandoned.
func wrapStreamWithCancel(stream *ai.ChunkStream, cancel context.CancelFunc) *ai.ChunkStream {
	return ai.NewChunkStream(func(yield func(ai.StreamChunk, error) bool) {
		defer cancel()

		for chunk, err := range stream.Iter() {
			if !yield(chunk, err) {
				return
			}
			if err != nil || chunk.Type == ai.ChunkFinalResult {
				return
			}
		}
	})
}
