// Package engine runs the documentation pipeline: table discovery, schema
// and statistics loading, and join resolution. Phases run strictly in
// order and build up a single catalog that the renderer consumes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/tabledoc/internal/catalog"
	"github.com/leapstack-labs/tabledoc/internal/manifest"
	"github.com/leapstack-labs/tabledoc/internal/warehouse"
)

// Engine orchestrates one documentation run.
type Engine struct {
	gw       warehouse.Gateway
	manifest *manifest.Manifest
	logger   *slog.Logger

	// concurrency bounds parallel join-pair queries; 1 means sequential
	concurrency int
}

// Config holds engine configuration.
type Config struct {
	// Gateway is the warehouse client
	Gateway warehouse.Gateway
	// Manifest is the merged dataset configuration
	Manifest *manifest.Manifest
	// Logger is the structured logger (discard if nil)
	Logger *slog.Logger
	// Concurrency bounds parallel join queries (default 1)
	Concurrency int
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("engine requires a warehouse gateway")
	}
	if cfg.Manifest == nil {
		return nil, fmt.Errorf("engine requires a manifest")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Engine{
		gw:          cfg.Gateway,
		manifest:    cfg.Manifest,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Generate executes the full pipeline and returns the populated catalog.
// Any warehouse or configuration failure aborts the run; there is no
// partial result.
func (e *Engine) Generate(ctx context.Context) (*catalog.Catalog, error) {
	runID := uuid.NewString()[:8]
	logger := e.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("starting documentation run",
		"datasets", len(e.manifest.Tables),
		"join_groups", len(e.manifest.Joins),
		"dialect", e.gw.Dialect())

	cat := catalog.New()

	if err := e.discoverTables(ctx, cat, logger); err != nil {
		return nil, fmt.Errorf("table discovery failed: %w", err)
	}

	cat.MarkOldVersions()

	if err := e.loadSchemas(ctx, cat, logger); err != nil {
		return nil, fmt.Errorf("schema loading failed: %w", err)
	}

	if err := e.resolveJoins(ctx, cat, logger); err != nil {
		return nil, fmt.Errorf("join resolution failed: %w", err)
	}

	logger.Info("documentation run completed",
		"tables", len(cat.Tables()),
		"duration_ms", time.Since(start).Milliseconds())

	return cat, nil
}
