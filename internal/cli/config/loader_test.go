package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-id", "", "")
	flags.StringSlice("dataset-config", nil, "")
	flags.String("output-dir", DefaultOutputDir, "")
	flags.String("warehouse", DefaultWarehouse, "")
	flags.String("dsn", "", "")
	flags.Int("concurrency", DefaultConcurrency, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", newTestFlags())
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultWarehouse, cfg.Warehouse.Type)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.ProjectID)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabledoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project_id: file-project
output_dir: pages
warehouse:
  type: duckdb
  dsn: warehouse.db
concurrency: 4
`), 0o644))

	cfg, err := LoadConfig(path, newTestFlags())
	require.NoError(t, err)

	assert.Equal(t, "file-project", cfg.ProjectID)
	assert.Equal(t, "pages", cfg.OutputDir)
	assert.Equal(t, "duckdb", cfg.Warehouse.Type)
	assert.Equal(t, "warehouse.db", cfg.Warehouse.DSN)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabledoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: file-project\n"), 0o644))
	t.Setenv("TABLEDOC_PROJECT_ID", "env-project")

	cfg, err := LoadConfig(path, newTestFlags())
	require.NoError(t, err)
	assert.Equal(t, "env-project", cfg.ProjectID)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabledoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: file-project\noutput_dir: pages\n"), 0o644))
	t.Setenv("TABLEDOC_PROJECT_ID", "env-project")

	flags := newTestFlags()
	require.NoError(t, flags.Set("project-id", "flag-project"))
	require.NoError(t, flags.Set("dataset-config", "public.json"))
	require.NoError(t, flags.Set("dataset-config", "uspto.json"))
	require.NoError(t, flags.Set("warehouse", "postgres"))
	require.NoError(t, flags.Set("dsn", "postgres://localhost/db"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "flag-project", cfg.ProjectID)
	assert.Equal(t, []string{"public.json", "uspto.json"}, cfg.Configs)
	assert.Equal(t, "postgres", cfg.Warehouse.Type)
	assert.Equal(t, "postgres://localhost/db", cfg.Warehouse.DSN)
	// unchanged flags do not mask file values
	assert.Equal(t, "pages", cfg.OutputDir)
}

func TestLoadConfig_MissingFileIgnored(t *testing.T) {
	cfg, err := LoadConfig("", newTestFlags())
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabledoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: [unterminated"), 0o644))

	_, err := LoadConfig(path, newTestFlags())
	require.Error(t, err)
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "configs", flagKey("dataset-config"))
	assert.Equal(t, "warehouse.type", flagKey("warehouse"))
	assert.Equal(t, "warehouse.dsn", flagKey("dsn"))
	assert.Equal(t, "project_id", flagKey("project-id"))
	assert.Equal(t, "output_dir", flagKey("output-dir"))
}
