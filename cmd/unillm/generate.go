package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Send one non-streaming request and print the result",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := flags.build(args)
			if err != nil {
				return err
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}

			result, err := c.Generate(cmd.Context(), request)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.output == "json" {
				return printJSON(out, result)
			}
			if result.ThinkingSteps != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "[thinking]\n%s\n\n", result.ThinkingSteps)
			}
			if result.Content != nil {
				fmt.Fprintln(out, *result.Content)
			}
			fmt.Fprintln(out)
			printSummary(out, result)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
