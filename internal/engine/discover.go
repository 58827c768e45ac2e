package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/leapstack-labs/tabledoc/internal/catalog"
	"github.com/leapstack-labs/tabledoc/internal/warehouse"
)

// patternRegexp converts a "*"-wildcard pattern into a prefix-anchored
// regular expression. Matching is prefix-only, not full-string.
func patternRegexp(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^" + strings.ReplaceAll(pattern, "*", ".*"))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	return re, nil
}

// discoverTables lists every physical dataset named in the manifest and
// adds the tables matching each configured pattern to their logical
// dataset, in configuration order.
func (e *Engine) discoverTables(ctx context.Context, cat *catalog.Catalog, logger *slog.Logger) error {
	// Dataset metadata and listings are fetched once per physical dataset.
	metaCache := make(map[string]*warehouse.DatasetMeta)
	listCache := make(map[string][]string)

	for _, name := range e.manifest.DatasetNames {
		ds := cat.Dataset(name)

		for _, pattern := range e.manifest.Tables[name] {
			datasetID, tablePattern, ok := strings.Cut(pattern, ".")
			if !ok {
				return fmt.Errorf("table pattern %q is not dataset.table qualified", pattern)
			}

			meta, ok := metaCache[datasetID]
			if !ok {
				var err error
				if meta, err = e.gw.DescribeDataset(ctx, datasetID); err != nil {
					return err
				}
				metaCache[datasetID] = meta
			}

			ids, ok := listCache[datasetID]
			if !ok {
				var err error
				logger.Info("listing dataset", "dataset", datasetID)
				if ids, err = e.gw.ListTables(ctx, datasetID); err != nil {
					return err
				}
				listCache[datasetID] = ids
			}

			re, err := patternRegexp(tablePattern)
			if err != nil {
				return err
			}

			for _, id := range ids {
				if !re.MatchString(id) {
					continue
				}
				table := &catalog.Table{
					Name:               datasetID + "." + id,
					Dataset:            ds,
					DatasetDescription: meta.Description,
				}
				ds.Tables = append(ds.Tables, table)
				logger.Debug("discovered table", "dataset", name, "table", table.Name)
			}
		}
	}
	return nil
}
