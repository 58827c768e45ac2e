package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_DatasetPreservesOrder(t *testing.T) {
	c := New()
	c.Dataset("beta")
	c.Dataset("alpha")
	c.Dataset("beta")

	require.Len(t, c.Datasets, 2)
	assert.Equal(t, "beta", c.Datasets[0].Name)
	assert.Equal(t, "alpha", c.Datasets[1].Name)
	assert.Same(t, c.Datasets[0], c.Dataset("beta"))
}

func TestCatalog_FindField(t *testing.T) {
	c := New()
	ds := c.Dataset("main")
	users := &Table{Name: "ds.users", Dataset: ds}
	users.Fields = []*Field{
		{Name: "id", Table: users},
		{Name: "address.city", Table: users},
	}
	ds.Tables = append(ds.Tables, users)

	f := c.FindField("ds.users", "address.city")
	require.NotNil(t, f)
	assert.Same(t, users, f.Table)

	assert.Nil(t, c.FindField("ds.users", "missing"))
	assert.Nil(t, c.FindField("ds.orders", "id"))
}

func TestCatalog_TablesAcrossDatasets(t *testing.T) {
	c := New()
	a := c.Dataset("a")
	a.Tables = append(a.Tables, &Table{Name: "x.one", Dataset: a})
	b := c.Dataset("b")
	b.Tables = append(b.Tables, &Table{Name: "y.two", Dataset: b}, &Table{Name: "y.three", Dataset: b})

	tables := c.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, "x.one", tables[0].Name)
	assert.Equal(t, "y.two", tables[1].Name)
	assert.Equal(t, "y.three", tables[2].Name)
}
