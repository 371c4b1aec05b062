package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"traceloom/internal/config"
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
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			cmd.Printf("Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Destination path (defaults to the standard config location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")

	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Show the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			flagPath := ""
			if ctx.configFlag != nil {
				flagPath = *ctx.configFlag
			}
			cfg, path, found, err := config.Load(flagPath)
			if err != nil {
				return err
			}
			source := path
			if !found {
				source = "built-in defaults (no config file found, would use " + path + ")"
			}
			cmd.Printf("Configuration source: %s\n\n", source)

			llm := cfg.GetLLM()
			apiKey := "(not set)"
			if llm.APIKey != "" {
				apiKey = "(set)"
			}
			rows := [][]string{
				{"results_dir", cfg.Paths.ResultsDir},
				{"data_dir", cfg.Paths.DataDir},
				{"log_dir", filepath.Clean(cfg.Paths.LogDir)},
				{"llm.model", llm.Model},
				{"llm.text_model", llm.TextModel},
				{"llm.api_key", apiKey},
				{"batch.max_workers", fmt.Sprintf("%d", cfg.Batch.MaxWorkers)},
				{"batch.item_timeout_seconds", fmt.Sprintf("%d", cfg.Batch.ItemTimeoutSeconds)},
				{"batch.strict_ledger", fmt.Sprintf("%t", cfg.Batch.StrictLedger)},
				{"pipeline.max_strategies", fmt.Sprintf("%d", cfg.Pipeline.MaxStrategies)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			cmd.Println(renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	return cmd
}
