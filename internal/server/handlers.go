package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// maxRequestBodySize caps request bodies at 8 MB.
const maxRequestBodySize = 8 << 20

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Message  string `json:"message"`
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Provider string `json:"provider,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// streamEvent is the SSE data payload for one chunk. Error chunks carry the
// error as an errorPayload since StreamChunk.Err does not serialize.
type streamEvent struct {
	ai.StreamChunk
	Error *errorPayload `json:"error,omitempty"`
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.generator.Providers()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidRequest(err))
		return
	}

	result, err := s.generator.Generate(r.Context(), request)
	if err != nil {
		s.options.Observer.Warn(r.Context(), "generate request failed", observability.Error(err))
		writeError(w, ai.HTTPStatusFor(err), toPayload(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidRequest(err))
		return
	}

	stream, err := s.generator.Stream(r.Context(), request)
	if err != nil {
		s.options.Observer.Warn(r.Context(), "stream request failed", observability.Error(err))
		writeError(w, ai.HTTPStatusFor(err), toPayload(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for chunk, err := range stream.Iter() {
		if err != nil {
			// The error chunk preceding this value was already written.
			break
		}
		event := streamEvent{StreamChunk: chunk}
		if chunk.Type == ai.ChunkError {
			payload := toPayload(chunk.Err)
			event.Error = &payload
		}
		if writeErr := writeSSE(w, string(chunk.Type), event); writeErr != nil {
			s.options.Observer.Debug(r.Context(), "stream client went away", observability.Error(writeErr))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func readRequest(r *http.Request) (ai.Request, error) {
	var request ai.Request
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := decoder.Decode(&request); err != nil {
		return ai.Request{}, fmt.Errorf("decode request body: %w", err)
	}
	return request, nil
}

func writeSSE(w io.Writer, name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}

func writeJSON(w http.ResponseWriter, status int, val any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(val)
}

func writeError(w http.ResponseWriter, status int, payload errorPayload) {
	writeJSON(w, status, errorBody{Error: payload})
}

func invalidRequest(err error) errorPayload {
	return errorPayload{Message: err.Error(), Type: "invalid_request"}
}

// toPayload renders err with its canonical kind as the type.
func toPayload(err error) errorPayload {
	payload := errorPayload{Message: err.Error(), Type: "unknown"}

	var canonical ai.Error
	if errors.As(err, &canonical) {
		payload.Type = canonical.Name()
	}
	var apiErr *ai.ProviderAPIError
	if errors.As(err, &apiErr) {
		payload.Message = apiErr.Message
		payload.Code = apiErr.ErrorCode
		payload.Provider = string(apiErr.Provider)
		payload.Status = apiErr.StatusCode
	}
	return payload
}
