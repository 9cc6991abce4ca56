package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCombineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "combine [destination target | document]",
		Short: "Rebuild a source file from its stanza fragments",
		Long: "Decode the fragments listed in a stanza directory's manifest, in manifest\n" +
			"order, into a single file. The target is replaced atomically.\n\n" +
			"With two arguments the stanza directory and target are given explicitly; with\n" +
			"one argument a configured document is rebuilt into its source path; with none\n" +
			"every configured document is rebuilt.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := ctx.resolveJobs(args, true)
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var failed int
			for _, job := range jobs {
				outcome, err := runner.Combine(cmd.Context(), job)
				if err != nil {
					failed++
					fmt.Fprintln(out, renderStatusLine(job.Label(), statusError, err.Error(), colorize))
					continue
				}
				result := outcome.Result
				fmt.Fprintln(out, renderStatusLine(job.Label(), statusOK,
					fmt.Sprintf("%d fragments, %s written to %s",
						len(result.Fragments), humanize.IBytes(uint64(result.Bytes)), result.Target),
					colorize))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d combines failed", failed, len(jobs))
			}
			return nil
		},
	}
}
