// Package config provides configuration management for the tabledoc CLI.
// Values merge from defaults, an optional tabledoc.yaml, TABLEDOC_*
// environment variables, and command-line flags, in rising precedence.
package config

// Defaults applied when neither file, env, nor flags set a value.
const (
	DefaultOutputDir   = "docs"
	DefaultWarehouse   = "bigquery"
	DefaultConcurrency = 1
)

// WarehouseConfig selects and parameterizes the warehouse backend.
type WarehouseConfig struct {
	// Type is bigquery, duckdb, or postgres
	Type string `koanf:"type"`
	// DSN is the connection string for database/sql backends
	DSN string `koanf:"dsn"`
}

// Config is the resolved CLI configuration.
type Config struct {
	// ProjectID is the cloud project used for BigQuery access
	ProjectID string `koanf:"project_id"`

	// Configs lists the JSON dataset configuration fragments, merged in order
	Configs []string `koanf:"configs"`

	// OutputDir receives the rendered pages
	OutputDir string `koanf:"output_dir"`

	// Formats lists extra output formats converted via pandoc (e.g. pdf)
	Formats []string `koanf:"formats"`

	Warehouse WarehouseConfig `koanf:"warehouse"`

	// Concurrency bounds parallel join-statistics queries
	Concurrency int `koanf:"concurrency"`

	Verbose bool `koanf:"verbose"`
}
