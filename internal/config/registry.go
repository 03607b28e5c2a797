package config

import (
	"slices"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/ai/anthropic"
	"github.com/leofalp/unillm/providers/ai/gemini"
	"github.com/leofalp/unillm/providers/ai/openai"
)

// Registry builds a provider registry from the enabled providers. Values left
// empty keep each provider's environment-derived defaults.
func (c Config) Registry() *ai.Registry {
	registry := ai.NewRegistry()
	for name, settings := range c.Providers {
		if settings.Disabled {
			continue
		}
		apiKey := settings.ResolveAPIKey()

		switch ai.ProviderID(name) {
		case ai.ProviderOpenAI:
			provider := openai.New()
			if apiKey != "" {
				provider = provider.WithAPIKey(apiKey)
			}
			if settings.BaseURL != "" {
				provider = provider.WithBaseURL(settings.BaseURL)
			}
			if settings.DefaultModel != "" {
				provider = provider.WithDefaultModel(settings.DefaultModel)
			}
			registry.Register(provider)
		case ai.ProviderAnthropic:
			provider := anthropic.New()
			if apiKey != "" {
				provider = provider.WithAPIKey(apiKey)
			}
			if settings.BaseURL != "" {
				provider = provider.WithBaseURL(settings.BaseURL)
			}
			if settings.DefaultModel != "" {
				provider = provider.WithDefaultModel(settings.DefaultModel)
			}
			registry.Register(provider)
		case ai.ProviderGemini:
			provider := gemini.New()
			if apiKey != "" {
				provider = provider.WithAPIKey(apiKey)
			}
			if settings.BaseURL != "" {
				provider = provider.WithBaseURL(settings.BaseURL)
			}
			if settings.DefaultModel != "" {
				provider = provider.WithDefaultModel(settings.DefaultModel)
			}
			registry.Register(provider)
		}
	}
	return registry
}

// ProviderNames returns the enabled provider names in sorted order.
func (c Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name, settings := range c.Providers {
		if !settings.Disabled {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
