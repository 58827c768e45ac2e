// Package catalog holds the documentation object graph: datasets, tables,
// fields, and the join statistics computed between them. The graph is built
// up monotonically by the engine phases and then handed to the renderer.
package catalog

// Dataset is a named logical grouping of warehouse tables, as declared in
// configuration. It may span multiple physical warehouse datasets.
type Dataset struct {
	// Name is the logical dataset name from configuration
	Name string

	// LastUpdated is the most recent table update date (YYYY-MM-DD)
	LastUpdated string

	// Tables in discovery order
	Tables []*Table
}

// Table is a single warehouse table, qualified as "dataset_id.table_id".
type Table struct {
	// Name is the qualified table name
	Name string

	// Version is the trailing version token, if the name carries one
	Version string

	// OldVersion marks tables superseded by a newer member of their
	// version family. Old tables are listed but carry no schema or stats.
	OldVersion bool

	// Dataset is a back-reference to the owning logical dataset
	Dataset *Dataset

	// Description is the table's own description
	Description string

	// DatasetDescription is the physical warehouse dataset's description
	DatasetDescription string

	// Fields in schema declaration order, nested fields flattened
	Fields []*Field

	// LastUpdated is the table's last-modified date (YYYY-MM-DD)
	LastUpdated string

	// NumRows and NumBytes come from table metadata
	NumRows  int64
	NumBytes int64

	// GroupStats holds per-group row counts when a group-by column is
	// configured for this table. Keys iterate in GroupKeys order.
	GroupStats map[string]*GroupStat
	GroupKeys  []string

	// FromJoins are joins where this table is the "from" side. Tables
	// only track outgoing joins.
	FromJoins []*Join
}

// Field is a single (possibly dot-qualified) column of a table.
type Field struct {
	// Name is the dotted field name, e.g. "address.city"
	Name string

	// Table is a back-reference to the owning table
	Table *Table

	Description string
	Type        string
	Mode        string

	// FromJoins are joins where this field is the source
	FromJoins []*Join

	// ToJoins are joins where this field is the target
	ToJoins []*Join
}

// Join is one computed join between two fields. Several joins may share a
// name: the name identifies the join group, not the pair.
type Join struct {
	// Name is the join-group name from configuration
	Name string

	FromField *Field
	ToField   *Field

	// Stats holds per-bucket coverage, keyed by group value or "all".
	// Keys iterate in BucketKeys order.
	Stats      map[string]*JoinStat
	BucketKeys []string

	// SQL is the literal query text used to compute the statistics
	SQL string

	// Percent and NumRows aggregate coverage across all buckets:
	// summed matched rows over summed total rows.
	Percent float64
	NumRows int64
}

// JoinStat is join coverage for a single bucket.
type JoinStat struct {
	// Key is the group value, or "all" for the ungrouped bucket
	Key string

	// Percent of "from" rows that found a match in this bucket
	Percent float64

	// NumRows is the matched row count
	NumRows int64

	// SampleValues holds up to 5 matching values for inspection
	SampleValues []string
}

// GroupStat is a per-group row count for a table's own rows. Unlike
// JoinStat it carries no percentage or samples.
type GroupStat struct {
	Key  string
	Rows int64
}

// Catalog is the root of the object graph for one generation run.
type Catalog struct {
	// Datasets in configuration order
	Datasets []*Dataset

	byName map[string]*Dataset
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{byName: make(map[string]*Dataset)}
}

// Dataset returns the dataset with the given logical name, creating it on
// first use so configuration order is preserved.
func (c *Catalog) Dataset(name string) *Dataset {
	if ds, ok := c.byName[name]; ok {
		return ds
	}
	ds := &Dataset{Name: name}
	c.byName[name] = ds
	c.Datasets = append(c.Datasets, ds)
	return ds
}

// FindField locates a field by qualified table name and column name
// anywhere in the catalog. Returns nil if no such field exists.
func (c *Catalog) FindField(table, column string) *Field {
	for _, ds := range c.Datasets {
		for _, t := range ds.Tables {
			if t.Name != table {
				continue
			}
			for _, f := range t.Fields {
				if f.Name == column {
					return f
				}
			}
		}
	}
	return nil
}

// Tables returns all tables across all datasets in catalog order.
func (c *Catalog) Tables() []*Table {
	var tables []*Table
	for _, ds := range c.Datasets {
		tables = append(tables, ds.Tables...)
	}
	return tables
}
