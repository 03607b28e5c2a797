package ai

import (
	"context"
	"slices"
	"sync"
)

// ProviderID is the capability-tagged identity used for dispatch.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
)

// Capabilities lists the optional features a provider supports.
type Capabilities struct {
	Thinking  bool
	Grounding bool
	JSONMode  bool
	// StrictToolSchema rejects tools whose parameters are not an object schema.
	StrictToolSchema bool
}

// Provider is implemented once per vendor. Generate and Stream validate and
// map the request before any network call, and every error they return or
// yield is already canonical.
type Provider interface {
	ID() ProviderID
	Capabilities() Capabilities

	// Generate performs one non-streaming call.
	Generate(ctx context.Context, request Request) (*GenerateResult, error)

	// Stream opens a streaming call. Failures before the first event are
	// returned directly; later failures follow the error chunk contract of
	// [ChunkStream].
	Stream(ctx context.Context, request Request) (*ChunkStream, error)

	// WrapError folds a native failure into a canonical error.
	WrapError(err any) error
}

// Registry maps provider identities to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderID]Provider
}

// NewRegistry returns a registry holding providers.
func NewRegistry(providers ...Provider) *Registry {
	registry := &Registry{providers: make(map[ProviderID]Provider, len(providers))}
	for _, provider := range providers {
		registry.Register(provider)
	}
	return registry
}

// Register adds or replaces the provider for its ID.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Lookup returns the provider for id or a ConfigurationError.
func (r *Registry) Lookup(id ProviderID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[id]
	if !ok {
		return nil, NewConfigurationError("unknown provider "+string(id), nil)
	}
	return provider, nil
}

// IDs returns the registered identities in sorted order.
func (r *Registry) IDs() []ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
