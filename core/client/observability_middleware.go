package client

import (
	"context"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// NewObservabilityMiddleware logs the start and outcome of every call. The
// observer is also attached to the context so providers and the stream
// normalizer can emit their own records.
//
// For streams the outcome is recorded when the final_result or error chunk
// passes through, or when the caller abandons the iteration.
func NewObservabilityMiddleware(observer observability.Observer) MiddlewareConfig {
	return MiddlewareConfig{
		Generate: buildObsGenerate(observer),
		Stream:   buildObsStream(observer),
	}
}

func buildObsGenerate(observer observability.Observer) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.GenerateResult, error) {
			ctx = observability.ContextWithObserver(ctx, observer)
			observer.Debug(ctx, "llm generate", requestAttrs(request, false)...)

			timer := utils.NewTimer()
			result, err := next(ctx, request)
			timer.Stop()

			if err != nil {
				recordObsFailure(ctx, observer, request, err, timer, false)
				return nil, err
			}
			recordObsSuccess(ctx, observer, request, result, timer, false)
			return result, nil
		}
	}
}

func buildObsStream(observer observability.Observer) StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.Request) (*ai.ChunkStream, error) {
			ctx = observability.ContextWithObserver(ctx, observer)
			observer.Debug(ctx, "llm stream", requestAttrs(request, true)...)

			timer := utils.NewTimer()
			stream, err := next(ctx, request)
			if err != nil {
				timer.Stop()
				recordObsFailure(ctx, observer, request, err, timer, true)
				return nil, err
			}
			return wrapStreamWithObservability(ctx, stream, observer, request, timer), nil
		}
	}
}

// wrapStreamWithObservability passes every chunk through unchanged and
// records the outcome once.
func wrapStreamWithObservability(
	ctx context.Context,
	stream *ai.ChunkStream,
	observer observability.Observer,
	request ai.Request,
	timer *utils.Timer,
) *ai.ChunkStream {
	return ai.NewChunkStream(func(yield func(ai.StreamChunk, error) bool) {
		recorded := false
		chunks := 0
		defer func() {
			if recorded {
				return
			}
			timer.Stop()
			observer.Info(ctx, "llm stream abandoned",
				observability.String(observability.AttrLLMProvider, string(request.Provider)),
				observability.String(observability.AttrLLMModel, request.Model),
				observability.Int(observability.AttrStreamEvents, chunks),
				observability.Duration(observability.AttrDuration, timer.GetDuration()),
			)
		}()

		for chunk, err := range stream.Iter() {
			chunks++
			if !recorded {
				switch {
				case err != nil:
					timer.Stop()
					recordObsFailure(ctx, observer, request, err, timer, true)
					recorded = true
				case chunk.Type == ai.ChunkError:
					timer.Stop()
					recordObsFailure(ctx, observer, request, chunk.Err, timer, true)
					recorded = true
				case chunk.Type == ai.ChunkFinalResult:
					timer.Stop()
					recordObsSuccess(ctx, observer, request, chunk.Result, timer, true)
					recorded = true
				}
			}
			if !yield(chunk, err) {
				return
			}
		}
	})
}

func requestAttrs(request ai.Request, streaming bool) []observability.Attribute {
	return []observability.Attribute{
		observability.String(observability.AttrLLMProvider, string(request.Provider)),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Bool(observability.AttrLLMStreaming, streaming),
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
	}
}

func recordObsFailure(ctx context.Context, observer observability.Observer, request ai.Request, err error, timer *utils.Timer, streaming bool) {
	observer.Error(ctx, "llm call failed",
		observability.String(observability.AttrLLMProvider, string(request.Provider)),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Bool(observability.AttrLLMStreaming, streaming),
		observability.String(observability.AttrErrorKind, errorKind(err)),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, timer.GetDuration()),
	)
}

func recordObsSuccess(ctx context.Context, observer observability.Observer, request ai.Request, result *ai.GenerateResult, timer *utils.Timer, streaming bool) {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMProvider, string(request.Provider)),
		observability.String(observability.AttrLLMModel, result.Model),
		observability.Bool(observability.AttrLLMStreaming, streaming),
		observability.String(observability.AttrLLMFinishReason, string(result.FinishReason)),
		observability.Duration(observability.AttrDuration, timer.GetDuration()),
		observability.Int("tool_calls", len(result.ToolCalls)),
	}
	if result.ID != "" {
		attrs = append(attrs, observability.String(observability.AttrLLMResponseID, result.ID))
	}
	if usage := result.Usage; usage != nil {
		attrs = append(attrs,
			observability.Int(observability.AttrLLMTokensPrompt, utils.Deref(usage.PromptTokens)),
			observability.Int(observability.AttrLLMTokensCompletion, utils.Deref(usage.CompletionTokens)),
			observability.Int(observability.AttrLLMTokensTotal, utils.Deref(usage.TotalTokens)),
		)
	}
	if result.Content != nil {
		attrs = append(attrs, observability.String("response", utils.TruncateString(*result.Content, 100)))
	}
	observer.Info(ctx, "llm call completed", attrs...)
}
