package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stanza/internal/stanza"
	"stanza/internal/syncstate"
	"stanza/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [destination | document]",
		Short: "Show the fragments of stanza directories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			jobs, err := ctx.resolveDestinations(args)
			if err != nil {
				return err
			}
			index, err := ctx.ensureIndex()
			if err != nil {
				return fmt.Errorf("open sync index: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			format := stanzaFormat(cfg)
			for i, job := range jobs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				writeStatus(cmd.Context(), out, job, format, index, colorize)
			}
			return nil
		},
	}
}

func writeStatus(ctx context.Context, out io.Writer, job workflow.Job, format stanza.Format, index *syncstate.Store, colorize bool) {
	for _, line := range renderSectionHeader(job.Label(), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Directory", statusInfo, job.Destination, colorize))

	names, err := stanza.ReadManifest(job.Destination, format)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, renderStatusLine("Manifest", statusWarn, "not extracted yet", colorize))
		} else {
			fmt.Fprintln(out, renderStatusLine("Manifest", statusError, err.Error(), colorize))
		}
		return
	}

	rows, missing, untracked, total := fragmentRows(job.Destination, format, names)
	switch {
	case missing > 0:
		fmt.Fprintln(out, renderStatusLine("Manifest", statusError,
			fmt.Sprintf("%d fragments, %d missing", len(names), missing), colorize))
	case untracked > 0:
		fmt.Fprintln(out, renderStatusLine("Manifest", statusWarn,
			fmt.Sprintf("%d fragments, %d untracked files", len(names), untracked), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Manifest", statusOK, fmt.Sprintf("%d fragments", len(names)), colorize))
	}

	if job.Source != "" {
		fmt.Fprintln(out, sourceStatusLine(job, format, colorize))
	}
	if index != nil {
		if runs, err := index.Runs(ctx, job.Destination, 1); err == nil && len(runs) > 0 {
			fmt.Fprintln(out, lastRunLine(runs[0], colorize))
		}
	}

	fmt.Fprintln(out, renderTable(
		[]column{numericColumn("#"), textColumn("Fragment"), numericColumn("Size"), textColumn("State")},
		rows,
		[]string{"", "Total", humanize.IBytes(total), ""},
	))
}

// fragmentRows lists manifest entries in order, then files carrying the
// fragment extension that the manifest does not mention. The total counts
// manifest entries only.
func fragmentRows(dir string, format stanza.Format, names []string) (rows [][]string, missing, untracked int, total uint64) {
	rows = make([][]string, 0, len(names))
	listed := make(map[string]struct{}, len(names))
	for i, name := range names {
		listed[name] = struct{}{}
		size, state := "-", "present"
		if info, err := os.Stat(filepath.Join(dir, name)); err != nil {
			state = "missing"
			missing++
		} else {
			size = humanize.IBytes(uint64(info.Size()))
			total += uint64(info.Size())
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), name, size, state})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return rows, missing, 0, total
	}
	var extra []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, format.Extension) {
			continue
		}
		if _, ok := listed[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		size := "-"
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
			size = humanize.IBytes(uint64(info.Size()))
		}
		rows = append(rows, []string{"-", name, size, "untracked"})
	}
	return rows, missing, len(extra), total
}

func sourceStatusLine(job workflow.Job, format stanza.Format, colorize bool) string {
	source, err := os.Stat(job.Source)
	if err != nil {
		return renderStatusLine("Source", statusWarn, "missing; run combine to rebuild it", colorize)
	}
	manifest, err := os.Stat(filepath.Join(job.Destination, format.ManifestName))
	if err != nil {
		return renderStatusLine("Source", statusInfo, job.Source, colorize)
	}
	if source.ModTime().After(manifest.ModTime()) {
		return renderStatusLine("Source", statusWarn,
			fmt.Sprintf("changed %s, after the last extraction", humanize.Time(source.ModTime())), colorize)
	}
	return renderStatusLine("Source", statusOK, "unchanged since the last extraction", colorize)
}

func lastRunLine(run syncstate.Run, colorize bool) string {
	when := humanize.Time(run.StartedAt)
	switch {
	case run.Failed():
		return renderStatusLine("Last run", statusError,
			fmt.Sprintf("%s %s failed: %s", run.Operation, when, run.ErrorKind), colorize)
	case !run.Finished():
		return renderStatusLine("Last run", statusWarn,
			fmt.Sprintf("%s started %s did not finish", run.Operation, when), colorize)
	default:
		return renderStatusLine("Last run", statusOK, fmt.Sprintf("%s %s", run.Operation, when), colorize)
	}
}
