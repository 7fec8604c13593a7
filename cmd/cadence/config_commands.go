package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath()
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, cfg)
			}

			rows := [][]string{
				{"Library dir", cfg.Paths.LibraryDir},
				{"Log dir", cfg.Paths.LogDir},
				{"Database", cfg.DatabasePath()},
				{"Log level", cfg.Logging.Level},
				{"MusicBrainz", yesNo(cfg.MusicBrainz.Enabled)},
				{"iTunes", yesNo(cfg.ITunes.Enabled)},
				{"Auto-resolve threshold", fmt.Sprintf("%.2f", cfg.Consensus.AutoResolveThreshold)},
				{"Solo auto-resolve score", fmt.Sprintf("%.2f", cfg.Consensus.SoloAutoResolveScore)},
				{"Review threshold", fmt.Sprintf("%.2f", cfg.Consensus.ReviewThreshold)},
				{"Enrichment threshold", fmt.Sprintf("%.2f", cfg.Consensus.EnrichmentThreshold)},
				{"Search limit", fmt.Sprintf("%d", cfg.Consensus.SearchLimit)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil, isTerminal(out)))
			return nil
		},
	}
}
