// Package cli provides the command-line interface for tabledoc.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabledoc/internal/cli/commands"
	"github.com/leapstack-labs/tabledoc/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabledoc",
		Short: "tabledoc - Warehouse dataset documentation generator",
		Long: `tabledoc generates Markdown documentation pages for tabular datasets
hosted in a cloud data warehouse.

It reads JSON configuration describing dataset membership, grouping
columns, and join groups, queries the warehouse for schemas and row
statistics, computes join coverage, and writes one page per dataset
plus an index.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tabledoc.yaml)")
	rootCmd.PersistentFlags().String("project-id", "", "Cloud project ID used to query tables")
	rootCmd.PersistentFlags().StringSlice("dataset-config", nil, "JSON dataset configuration file (repeatable)")
	rootCmd.PersistentFlags().String("output-dir", config.DefaultOutputDir, "Output directory for generated pages")
	rootCmd.PersistentFlags().StringSlice("formats", nil, "Extra output formats converted via pandoc (e.g. pdf)")
	rootCmd.PersistentFlags().String("warehouse", config.DefaultWarehouse, "Warehouse backend (bigquery|duckdb|postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "Connection string for database/sql warehouse backends")
	rootCmd.PersistentFlags().Int("concurrency", config.DefaultConcurrency, "Parallel join-statistics queries")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
