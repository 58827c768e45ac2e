package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabledoc/internal/cli/config"
	"github.com/leapstack-labs/tabledoc/internal/engine"
	"github.com/leapstack-labs/tabledoc/internal/manifest"
	"github.com/leapstack-labs/tabledoc/internal/render"
	"github.com/leapstack-labs/tabledoc/internal/warehouse"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate documentation pages for all configured datasets",
		Long: `Run the full documentation pipeline: discover tables, load schemas
and statistics, compute join coverage, and render Markdown pages.`,
		Example: `  # Document BigQuery datasets
  tabledoc generate --project-id my-project --dataset-config public.json --output-dir ../tables

  # Also produce PDFs via pandoc
  tabledoc generate --project-id my-project --dataset-config public.json --formats pdf

  # Document a local DuckDB warehouse
  tabledoc generate --warehouse duckdb --dsn warehouse.db --dataset-config local.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd)
		},
	}
}

func runGenerate(cmd *cobra.Command) error {
	cfg := config.GetCurrentConfig()
	logger := config.GetLogger(cmd.Context())
	ctx := cmd.Context()

	if len(cfg.Configs) == 0 {
		return fmt.Errorf("at least one --dataset-config file is required")
	}

	m, err := manifest.Load(cfg.Configs...)
	if err != nil {
		return err
	}

	gw, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	eng, err := engine.New(engine.Config{
		Gateway:     gw,
		Manifest:    m,
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	cat, err := eng.Generate(ctx)
	if err != nil {
		return err
	}

	renderer, err := render.NewRenderer(cfg.OutputDir, logger)
	if err != nil {
		return err
	}
	paths, err := renderer.WriteAll(cat)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := renderer.Convert(ctx, path, cfg.Formats); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages to %s\n", len(paths), cfg.OutputDir)
	return nil
}

// openGateway builds the warehouse gateway for the configured backend.
func openGateway(cfg *config.Config) (warehouse.Gateway, error) {
	switch cfg.Warehouse.Type {
	case "bigquery":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("--project-id is required for the bigquery warehouse")
		}
		return warehouse.NewBigQuery(cfg.ProjectID), nil
	case "duckdb", "postgres":
		if cfg.Warehouse.DSN == "" {
			return nil, fmt.Errorf("--dsn is required for the %s warehouse", cfg.Warehouse.Type)
		}
		return warehouse.OpenSQL(cfg.Warehouse.Type, cfg.Warehouse.DSN)
	default:
		return nil, fmt.Errorf("unsupported warehouse type: %s", cfg.Warehouse.Type)
	}
}
