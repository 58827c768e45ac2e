package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/leapstack-labs/tabledoc/internal/catalog"
	"github.com/leapstack-labs/tabledoc/internal/warehouse"
)

// loadSchemas fetches schema and metadata for every current table and,
// where a group-by column is configured, the per-group row counts. Old
// table versions are listed but skipped.
func (e *Engine) loadSchemas(ctx context.Context, cat *catalog.Catalog, logger *slog.Logger) error {
	for _, ds := range cat.Datasets {
		for _, table := range ds.Tables {
			if table.OldVersion {
				logger.Info("skipping old table version", "table", table.Name, "version", table.Version)
				continue
			}

			logger.Info("loading table", "table", table.Name)
			meta, err := e.gw.DescribeTable(ctx, table.Name)
			if err != nil {
				return err
			}

			table.Fields = flattenFields(table, "", meta.Fields)
			table.Description = meta.Description
			table.NumRows = meta.NumRows
			table.NumBytes = meta.NumBytes
			table.LastUpdated = millisToDate(meta.LastModifiedMillis)
			if ds.LastUpdated == "" || ds.LastUpdated < table.LastUpdated {
				ds.LastUpdated = table.LastUpdated
			}

			if column, ok := e.manifest.Groups[table.Name]; ok {
				if err := e.loadGroupStats(ctx, table, column, logger); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// flattenFields converts a nested schema into dot-qualified fields in
// depth-first declaration order: a record "a" with children "b" and "c"
// yields the sequence a, a.b, a.c.
func flattenFields(table *catalog.Table, parent string, schema []warehouse.SchemaField) []*catalog.Field {
	var fields []*catalog.Field
	for _, sf := range schema {
		name := sf.Name
		if parent != "" {
			name = parent + "." + sf.Name
		}
		fields = append(fields, &catalog.Field{
			Name:        name,
			Table:       table,
			Description: sf.Description,
			Type:        sf.Type,
			Mode:        sf.Mode,
		})
		if len(sf.Fields) > 0 {
			fields = append(fields, flattenFields(table, name, sf.Fields)...)
		}
	}
	return fields
}

// millisToDate converts a millisecond epoch timestamp to a UTC calendar
// date string.
func millisToDate(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}

// loadGroupStats runs the grouped count query for a table and records one
// GroupStat per group value. These are self statistics: counts only, no
// percentages or samples.
func (e *Engine) loadGroupStats(ctx context.Context, table *catalog.Table, column string, logger *slog.Logger) error {
	query := buildGroupCountSQL(e.gw.Dialect(), table.Name, column)
	logger.Debug("computing group statistics", "table", table.Name, "column", column)

	rows, err := e.gw.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("group statistics for %s: %w", table.Name, err)
	}

	table.GroupStats = make(map[string]*catalog.GroupStat, len(rows))
	for _, row := range rows {
		count, err := rowInt64(row["cnt"])
		if err != nil {
			return fmt.Errorf("group statistics for %s: %w", table.Name, err)
		}
		key := rowString(row["grouped"])
		table.GroupStats[key] = &catalog.GroupStat{Key: key, Rows: count}
		table.GroupKeys = append(table.GroupKeys, key)
	}
	return nil
}

// rowString renders a query result value as a string. NULL becomes "".
func rowString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// rowInt64 coerces a query result value to int64. Counts arrive as JSON
// strings from the bq tool and as native integers from SQL drivers.
func rowInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", val)
		}
		return n, nil
	case []byte:
		return rowInt64(string(val))
	case nil:
		return 0, fmt.Errorf("expected integer, got NULL")
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// rowStrings coerces a query result value to a list of strings. Sample
// aggregates arrive as JSON arrays from the bq tool.
func rowStrings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, rowString(item))
		}
		return out
	default:
		return []string{rowString(val)}
	}
}
