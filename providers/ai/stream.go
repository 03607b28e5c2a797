package ai

import "iter"

// ChunkStream is an ordered sequence of canonical chunks for one response.
//
// On success the sequence starts with message_start and ends with
// final_result. On failure the last chunk is an error chunk, and the
// iteration step right after it yields the same error as its second value,
// so a range loop that ignores chunk types still sees the failure.
//
// A stream must be consumed (fully, or until the caller breaks) to release
// the underlying connection.
type ChunkStream struct {
	iterator iter.Seq2[StreamChunk, error]
}

// NewChunkStream wraps an iterator obeying the contract above.
func NewChunkStream(iterator iter.Seq2[StreamChunk, error]) *ChunkStream {
	return &ChunkStream{iterator: iterator}
}

// Iter returns the underlying iterator.
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil {
//	        return err
//	    }
//	    if chunk.Type == ai.ChunkContentDelta {
//	        fmt.Print(chunk.Delta)
//	    }
//	}
func (s *ChunkStream) Iter() iter.Seq2[StreamChunk, error] {
	return s.iterator
}

// Collect drains the stream and returns the final result.
func (s *ChunkStream) Collect() (*GenerateResult, error) {
	var (
		result   *GenerateResult
		chunkErr error
	)
	for chunk, err := range s.iterator {
		if err != nil {
			return nil, err
		}
		switch chunk.Type {
		case ChunkFinalResult:
			result = chunk.Result
		case ChunkError:
			chunkErr = chunk.Err
		}
	}
	if chunkErr != nil {
		return nil, chunkErr
	}
	if result == nil {
		return nil, NewMappingError("", "stream", "stream ended without a final result")
	}
	return result, nil
}
