package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stanza/internal/workflow"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "extract [source destination | document]",
		Short: "Split a source file into stanza fragments",
		Long: "Split a monolithic source into one fragment per heading plus a manifest.\n\n" +
			"With two arguments the source and destination are given explicitly; with one\n" +
			"argument a configured document is used; with none every configured document\n" +
			"is extracted.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := ctx.resolveJobs(args, false)
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
				outcome, err := runner.Extract(cmd.Context(), job, workflow.ExtractOptions{Prune: prune})
				if err != nil {
					failed++
					fmt.Fprintln(out, renderStatusLine(job.Label(), statusError, err.Error(), colorize))
					continue
				}
				printExtractOutcome(cmd, job, outcome, colorize)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d extractions failed", failed, len(jobs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Delete fragments that the new heading layout no longer produces")
	return cmd
}

func printExtractOutcome(cmd *cobra.Command, job workflow.Job, outcome workflow.ExtractOutcome, colorize bool) {
	out := cmd.OutOrStdout()
	removed := outcome.Result.Removed()
	summary := fmt.Sprintf("%d fragments", len(outcome.Result.Fragments))
	if len(removed) > 0 {
		summary += fmt.Sprintf(", %d removed", len(removed))
	}
	kind := statusOK
	if len(removed) > len(outcome.Pruned) {
		kind = statusWarn
		summary += " (run with --prune to delete stale fragments)"
	}
	fmt.Fprintln(out, renderStatusLine(job.Label(), kind, summary, colorize))

	pruned := make(map[string]struct{}, len(outcome.Pruned))
	for _, path := range outcome.Pruned {
		pruned[path] = struct{}{}
	}
	for _, change := range outcome.Result.Changes {
		_, wasPruned := pruned[change.Path]
		fmt.Fprintln(out, renderChange(change, job.Destination, wasPruned, colorize))
	}
}
