// Package warehouse provides the gateway to the cloud data warehouse:
// listing tables, fetching table and dataset metadata, and running ad-hoc
// SQL queries. The engine depends only on the Gateway interface.
package warehouse

import "context"

// listLimit caps how many tables a single dataset listing returns.
const listLimit = 100000

// SchemaField is one field of a table schema. Nested record fields carry
// their children in Fields; the engine flattens them into dotted names.
type SchemaField struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        string        `json:"type"`
	Mode        string        `json:"mode"`
	Fields      []SchemaField `json:"fields"`
}

// DatasetMeta is the metadata of a physical warehouse dataset.
type DatasetMeta struct {
	Description string
}

// TableMeta is the metadata of a single table.
type TableMeta struct {
	Description string

	// Fields is the declared schema, possibly nested
	Fields []SchemaField

	// LastModifiedMillis is a millisecond epoch timestamp
	LastModifiedMillis int64

	NumRows  int64
	NumBytes int64
}

// Row is one structured result row from a query.
type Row map[string]any

// Gateway is the warehouse client contract. All calls are synchronous
// blocking round trips; any failure is surfaced to the caller and aborts
// the run.
type Gateway interface {
	// ListTables returns the table IDs (unqualified) of a dataset.
	ListTables(ctx context.Context, dataset string) ([]string, error)

	// DescribeDataset fetches dataset-level metadata.
	DescribeDataset(ctx context.Context, dataset string) (*DatasetMeta, error)

	// DescribeTable fetches schema and metadata for a qualified table.
	DescribeTable(ctx context.Context, table string) (*TableMeta, error)

	// Query runs a SQL statement and returns all result rows.
	Query(ctx context.Context, sql string) ([]Row, error)

	// Dialect names the SQL dialect spoken by this warehouse, used to
	// pick dialect-specific expressions when building queries.
	Dialect() string

	// Close releases any held resources.
	Close() error
}
