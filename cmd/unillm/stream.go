package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/unillm/providers/ai"
)

func newStreamCmd(a *app) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "stream [prompt...]",
		Short: "Stream a response, printing text as it arrives",
		Long: "Stream a response. With --output json every canonical chunk is printed " +
			"as one JSON line; otherwise text deltas go to stdout and thinking to stderr.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := flags.build(args)
			if err != nil {
				return err
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}

			stream, err := c.Stream(cmd.Context(), request)
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			var result *ai.GenerateResult
			for chunk, err := range stream.Iter() {
				if err != nil {
					return err
				}
				if flags.output == "json" {
					if chunk.Type != ai.ChunkError {
						if err := printJSONLine(out, chunk); err != nil {
							return err
						}
					}
					continue
				}
				switch chunk.Type {
				case ai.ChunkContentDelta:
					fmt.Fprint(out, chunk.Delta)
				case ai.ChunkThinkingDelta:
					fmt.Fprint(errOut, chunk.Delta)
				case ai.ChunkThinkingStop:
					fmt.Fprintln(errOut)
				case ai.ChunkFinalResult:
					result = chunk.Result
				}
			}

			if result != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out)
				printSummary(out, result)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
