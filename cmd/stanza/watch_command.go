package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stanza/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration
	var prune bool

	cmd := &cobra.Command{
		Use:   "watch [source destination | document]",
		Short: "Re-extract sources whenever they change",
		Long: "Extract each document once, then again every time its source file settles\n" +
			"after a change. Failed extractions are reported and the watch continues.\n" +
			"Stop with Ctrl+C.",
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

			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			return runner.Watch(signalCtx, jobs, workflow.WatchOptions{
				Debounce: debounce,
				Extract:  workflow.ExtractOptions{Prune: prune},
				OnExtract: func(job workflow.Job, outcome workflow.ExtractOutcome, err error) {
					if err != nil {
						fmt.Fprintln(out, renderStatusLine(job.Label(), statusError, err.Error(), colorize))
						return
					}
					printExtractOutcome(cmd, job, outcome, colorize)
				},
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", workflow.DefaultDebounce, "Quiet period after a change before re-extracting")
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete fragments that the new heading layout no longer produces")
	return cmd
}
