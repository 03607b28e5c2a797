// Package server exposes the client over HTTP: JSON generation, canonical
// chunk streaming over SSE, provider listing and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/leofalp/unillm/internal/metrics"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// Generator is the subset of *client.Client the handlers need.
type Generator interface {
	Generate(ctx context.Context, request ai.Request) (*ai.GenerateResult, error)
	Stream(ctx context.Context, request ai.Request) (*ai.ChunkStream, error)
	Providers() []ai.ProviderID
}

// Options configures optional server features.
type Options struct {
	AllowedOrigins []string
	// Metrics, when set, is served on /metrics.
	Metrics  *metrics.Metrics
	Observer observability.Observer
}

type Server struct {
	generator Generator
	options   Options
}

func New(generator Generator, options Options) *Server {
	if options.Observer == nil {
		options.Observer = observability.Nop{}
	}
	if len(options.AllowedOrigins) == 0 {
		options.AllowedOrigins = []string{"*"}
	}
	return &Server{generator: generator, options: options}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.options.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.options.Metrics != nil {
		r.Mount("/metrics", s.options.Metrics.Handler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/providers", s.handleProviders)
		v1.Post("/generate", s.handleGenerate)
		v1.Post("/stream", s.handleStream)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.options.Observer.Info(ctx, "http server listening", observability.String("http.addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
