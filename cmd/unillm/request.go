package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// requestFlags are shared by generate and stream.
type requestFlags struct {
	provider       string
	model          string
	system         string
	maxTokens      int
	temperature    float64
	jsonMode       bool
	thinkingBudget int
	grounding      bool
	output         string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.provider, "provider", "p", string(ai.ProviderOpenAI), "provider: openai, anthropic, gemini")
	fs.StringVarP(&f.model, "model", "m", "", "model name (default: the provider's default model)")
	fs.StringVarP(&f.system, "system", "s", "", "system prompt")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "maximum tokens to generate")
	fs.Float64Var(&f.temperature, "temperature", -1, "sampling temperature (unset when negative)")
	fs.BoolVar(&f.jsonMode, "json", false, "ask for a single JSON object")
	fs.IntVar(&f.thinkingBudget, "thinking-budget", 0, "enable the reasoning channel with this token budget")
	fs.BoolVar(&f.grounding, "grounding", false, "enable search grounding")
	fs.StringVarP(&f.output, "output", "o", "text", "output format: text, json")
}

func (f *requestFlags) build(args []string) (ai.Request, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return ai.Request{}, fmt.Errorf("a prompt is required")
	}
	if f.output != "text" && f.output != "json" {
		return ai.Request{}, fmt.Errorf("unknown output format %q", f.output)
	}

	request := ai.Request{
		Provider: ai.ProviderID(f.provider),
		Model:    f.model,
	}
	if f.system != "" {
		request.Messages = append(request.Messages, ai.Message{Role: ai.RoleSystem, Content: ai.TextContent(f.system)})
	}
	request.Messages = append(request.Messages, ai.Message{Role: ai.RoleUser, Content: ai.TextContent(prompt)})

	if f.maxTokens > 0 {
		request.Settings.MaxTokens = utils.Ptr(f.maxTokens)
	}
	if f.temperature >= 0 {
		request.Settings.Temperature = utils.Ptr(f.temperature)
	}
	if f.jsonMode {
		request.Settings.ResponseFormat = &ai.ResponseFormat{Type: ai.ResponseFormatJSONObject}
	}
	if f.thinkingBudget > 0 {
		request.Settings.Thinking = &ai.ThinkingConfig{BudgetTokens: f.thinkingBudget}
	}
	request.Settings.Grounding = f.grounding
	return request, nil
}
