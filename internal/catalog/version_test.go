package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(names ...string) *Catalog {
	c := New()
	ds := c.Dataset("main")
	for _, name := range names {
		ds.Tables = append(ds.Tables, &Table{Name: name, Dataset: ds})
	}
	return c
}

func tableByName(t *testing.T, c *Catalog, name string) *Table {
	t.Helper()
	for _, tbl := range c.Tables() {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("table %s not in catalog", name)
	return nil
}

func TestMarkOldVersions_LatestWins(t *testing.T) {
	c := newTestCatalog("trials_1", "trials_2")
	c.MarkOldVersions()

	assert.True(t, tableByName(t, c, "trials_1").OldVersion)
	assert.False(t, tableByName(t, c, "trials_2").OldVersion)
}

func TestMarkOldVersions_LexicographicOrder(t *testing.T) {
	// Versions compare as strings, so 2 beats 10.
	c := newTestCatalog("trials_1", "trials_2", "trials_10")
	c.MarkOldVersions()

	assert.True(t, tableByName(t, c, "trials_1").OldVersion)
	assert.False(t, tableByName(t, c, "trials_2").OldVersion)
	assert.True(t, tableByName(t, c, "trials_10").OldVersion)
}

func TestMarkOldVersions_UnversionedNeverOld(t *testing.T) {
	c := newTestCatalog("patents")
	c.MarkOldVersions()

	assert.False(t, tableByName(t, c, "patents").OldVersion)
}

func TestMarkOldVersions_UnversionedBeatsVersionedSiblings(t *testing.T) {
	tests := []struct {
		name   string
		tables []string
	}{
		{"base first", []string{"patents", "patents_1", "patents_2"}},
		{"base last", []string{"patents_1", "patents_2", "patents"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCatalog(tt.tables...)
			c.MarkOldVersions()

			assert.False(t, tableByName(t, c, "patents").OldVersion)
			assert.True(t, tableByName(t, c, "patents_1").OldVersion)
			assert.True(t, tableByName(t, c, "patents_2").OldVersion)
		})
	}
}

func TestMarkOldVersions_SetsVersionToken(t *testing.T) {
	c := newTestCatalog("trials_2024b", "trials_2024c")
	c.MarkOldVersions()

	assert.Equal(t, "2024b", tableByName(t, c, "trials_2024b").Version)
	assert.Equal(t, "2024c", tableByName(t, c, "trials_2024c").Version)
}

func TestMarkOldVersions_IndependentFamilies(t *testing.T) {
	c := newTestCatalog("a_1", "a_2", "b_1", "c")
	c.MarkOldVersions()

	assert.True(t, tableByName(t, c, "a_1").OldVersion)
	assert.False(t, tableByName(t, c, "a_2").OldVersion)
	assert.False(t, tableByName(t, c, "b_1").OldVersion)
	assert.False(t, tableByName(t, c, "c").OldVersion)
}

func TestVersionPattern_GreedyBase(t *testing.T) {
	// The base captures as much as possible: the last underscore before a
	// digit run splits the name.
	m := versionPattern.FindStringSubmatch("assignee_disambiguated_2")
	require.NotNil(t, m)
	assert.Equal(t, "assignee_disambiguated", m[1])
	assert.Equal(t, "2", m[2])
}

func TestVersionPattern_NoMatch(t *testing.T) {
	for _, name := range []string{"patents", "patents_", "patents_v2", "_1"} {
		assert.Nil(t, versionPattern.FindStringSubmatch(name), "name %q", name)
	}
}
