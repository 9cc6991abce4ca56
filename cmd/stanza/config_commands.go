package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stanza/internal/config"
	"stanza/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx), newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, err := os.Stat(target)
				switch {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Add [[documents]] entries to extract and combine without arguments.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// initTarget resolves the --path flag, defaulting to the per-user config.
func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(strings.TrimSpace(*ctx.configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			writeConfigReport(out, cfg, path, exists, shouldColorize(out))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func writeConfigReport(out io.Writer, cfg *config.Config, path string, exists bool, colorize bool) {
	if exists {
		fmt.Fprintln(out, renderStatusLine("Config", statusOK, path, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Config", statusWarn, path+" not found; defaults used", colorize))
	}
	if err := fileutil.CheckDirectoryAccess(cfg.Paths.StateDir); err != nil {
		fmt.Fprintln(out, renderStatusLine("State", statusError, err.Error(), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("State", statusOK, cfg.Paths.StateDir, colorize))
	}
	if cfg.Index.Enabled {
		fmt.Fprintln(out, renderStatusLine("Sync index", statusInfo, cfg.Index.Path, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Sync index", statusInfo, "disabled", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Documents", statusInfo, fmt.Sprintf("%d configured", len(cfg.Documents)), colorize))
	for _, doc := range cfg.Documents {
		if err := fileutil.CheckDirectoryAccess(filepath.Dir(doc.Destination)); err != nil {
			fmt.Fprintln(out, renderStatusLine(doc.Name, statusError, "destination "+err.Error(), colorize))
			continue
		}
		if _, err := os.Stat(doc.Source); err != nil {
			fmt.Fprintln(out, renderStatusLine(doc.Name, statusWarn,
				fmt.Sprintf("source %s missing; combine rebuilds it", doc.Source), colorize))
			continue
		}
		fmt.Fprintln(out, renderStatusLine(doc.Name, statusOK,
			fmt.Sprintf("%s -> %s", doc.Source, doc.Destination), colorize))
	}
}
