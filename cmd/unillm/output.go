package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/gosuri/uitable"

	"github.com/leofalp/unillm/providers/ai"
)

// printSummary writes the result metadata as an aligned table.
func printSummary(w io.Writer, result *ai.GenerateResult) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Separator = " "
	table.RightAlign(0)

	if result.ID != "" {
		table.AddRow("id:", result.ID)
	}
	table.AddRow("model:", result.Model)
	table.AddRow("finish:", string(result.FinishReason))
	if usage := result.Usage; usage != nil {
		table.AddRow("prompt tokens:", count(usage.PromptTokens))
		table.AddRow("completion tokens:", count(usage.CompletionTokens))
		table.AddRow("total tokens:", count(usage.TotalTokens))
		if usage.CachedContentTokenCount != nil {
			table.AddRow("cached tokens:", count(usage.CachedContentTokenCount))
		}
	}
	for _, call := range result.ToolCalls {
		table.AddRow("tool call:", call.Function.Name+" "+call.Function.Arguments)
	}
	for _, citation := range result.Citations {
		table.AddRow("citation:", citation.SourceID+" "+citation.Title)
	}
	fmt.Fprintln(w, table)
}

func count(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
