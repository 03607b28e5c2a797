package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List enabled providers and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := a.deps.newRegistry(a.cfg)

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("PROVIDER", "DEFAULT MODEL", "THINKING", "GROUNDING", "JSON MODE", "STRICT TOOLS")
			for _, id := range registry.IDs() {
				provider, err := registry.Lookup(id)
				if err != nil {
					return err
				}
				caps := provider.Capabilities()
				model := a.cfg.Providers[string(id)].DefaultModel
				if model == "" {
					model = "-"
				}
				table.AddRow(string(id), model, yesNo(caps.Thinking), yesNo(caps.Grounding), yesNo(caps.JSONMode), yesNo(caps.StrictToolSchema))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
