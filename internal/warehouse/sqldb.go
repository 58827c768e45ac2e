package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	// database/sql drivers for the supported local warehouse backends.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
)

// sqlDrivers maps warehouse type to database/sql driver name.
var sqlDrivers = map[string]string{
	"duckdb":   "duckdb",
	"postgres": "pgx",
}

// SQLGateway serves the Gateway contract over any database/sql warehouse.
// It is used for DuckDB and Postgres backends where table metadata comes
// from information_schema rather than a vendor CLI.
type SQLGateway struct {
	db      *sql.DB
	dialect string
}

// OpenSQL connects to a database/sql warehouse of the given type.
func OpenSQL(warehouseType, dsn string) (*SQLGateway, error) {
	driver, ok := sqlDrivers[warehouseType]
	if !ok {
		return nil, fmt.Errorf("unsupported warehouse type: %s", warehouseType)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s warehouse: %w", warehouseType, err)
	}
	return &SQLGateway{db: db, dialect: warehouseType}, nil
}

// NewSQLGateway wraps an existing connection. Used by tests.
func NewSQLGateway(db *sql.DB, dialect string) *SQLGateway {
	return &SQLGateway{db: db, dialect: dialect}
}

// ListTables lists table names in a schema via information_schema.
func (g *SQLGateway) ListTables(ctx context.Context, dataset string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`,
		dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", dataset, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
		if len(names) >= listLimit {
			break
		}
	}
	return names, rows.Err()
}

// DescribeDataset returns empty metadata; information_schema carries no
// schema-level descriptions.
func (g *SQLGateway) DescribeDataset(_ context.Context, _ string) (*DatasetMeta, error) {
	return &DatasetMeta{}, nil
}

// DescribeTable fetches the column schema and a row count for a table
// qualified as "schema.table". Relational backends have flat schemas, so
// no nested fields are returned.
func (g *SQLGateway) DescribeTable(ctx context.Context, table string) (*TableMeta, error) {
	schemaName, tableName, err := splitQualified(table)
	if err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
		schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	meta := &TableMeta{}
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		mode := "REQUIRED"
		if nullable == "YES" {
			mode = "NULLABLE"
		}
		meta.Fields = append(meta.Fields, SchemaField{Name: name, Type: dataType, Mode: mode})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := g.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.%s`, schemaName, tableName))
	if err := row.Scan(&meta.NumRows); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return meta, nil
}

func splitQualified(table string) (schemaName, tableName string, err error) {
	for i := range table {
		if table[i] == '.' {
			return table[:i], table[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("table %q is not schema-qualified", table)
}

// Query runs a statement and materializes every row into a Row map,
// converting []byte values to strings for readability.
func (g *SQLGateway) Query(ctx context.Context, sqlText string) ([]Row, error) {
	rows, err := g.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []Row
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Dialect returns the configured warehouse type.
func (g *SQLGateway) Dialect() string { return g.dialect }

// Close closes the underlying connection pool.
func (g *SQLGateway) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}
