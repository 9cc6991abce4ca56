package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stanza/internal/syncstate"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [destination | document]",
		Short: "List recent extract and combine runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := ctx.requireIndex()
			if err != nil {
				return err
			}
			var destination string
			if len(args) == 1 {
				jobs, err := ctx.resolveDestinations(args)
				if err != nil {
					return err
				}
				destination = jobs[0].Destination
			}

			runs, err := index.Runs(cmd.Context(), destination, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					textColumn("Started"),
					textColumn("Operation"),
					textColumn("Directory"),
					numericColumn("Fragments"),
					numericColumn("Removed"),
					numericColumn("Took"),
					textColumn("Result"),
				},
				historyRows(runs),
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func historyRows(runs []syncstate.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		took := "-"
		if run.Finished() {
			took = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		result := "ok"
		switch {
		case run.Failed():
			result = run.ErrorKind
		case !run.Finished():
			result = "unfinished"
		}
		removed := strconv.Itoa(run.Removed)
		if run.Operation == syncstate.OperationCombine {
			removed = "-"
		}
		rows = append(rows, []string{
			humanize.Time(run.StartedAt),
			string(run.Operation),
			filepath.Base(run.Destination),
			strconv.Itoa(run.Fragments),
			removed,
			took,
			result,
		})
	}
	return rows
}
