package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGroupCountSQL(t *testing.T) {
	got := buildGroupCountSQL("bigquery", "patents.publications", "country_code")
	assert.Equal(t,
		"SELECT COUNT(*) AS cnt, country_code AS grouped FROM `patents.publications` GROUP BY 2 ORDER BY 1",
		got)

	got = buildGroupCountSQL("duckdb", "patents.publications", "country_code")
	assert.Equal(t,
		"SELECT COUNT(*) AS cnt, country_code AS grouped FROM patents.publications GROUP BY 2 ORDER BY 1",
		got)
}

func TestSQLName_LegacyColon(t *testing.T) {
	assert.Equal(t, "project.dataset.table", sqlName("project:dataset.table"))
}

func TestBuildJoinSQL_BigQueryUngrouped(t *testing.T) {
	got := buildJoinSQL("bigquery", "patents.publications", "number", "trials.studies", "nct_id", "")

	want := "#standardSQL\n" +
		"SELECT\n" +
		"  COUNT(*) AS cnt,\n" +
		"  COUNT(second.second_column) AS second_cnt,\n" +
		"  ARRAY_AGG(first.number IGNORE NULLS ORDER BY RAND() LIMIT 5) AS sample_value\n" +
		"FROM `patents.publications` AS first\n" +
		"LEFT JOIN (\n" +
		"  SELECT nct_id AS second_column, COUNT(*) AS cnt\n" +
		"  FROM `trials.studies`\n" +
		"  GROUP BY 1\n" +
		") AS second ON first.number = second.second_column"
	assert.Equal(t, want, got)
}

func TestBuildJoinSQL_Grouped(t *testing.T) {
	got := buildJoinSQL("bigquery", "patents.publications", "number", "trials.studies", "nct_id", "country_code")

	assert.Contains(t, got, "  first.country_code AS grouped,\n")
	assert.Contains(t, got, "GROUP BY 3")
}

func TestBuildJoinSQL_Dialects(t *testing.T) {
	tests := []struct {
		dialect string
		sample  string
	}{
		{"duckdb", "(list(DISTINCT first.number) FILTER (WHERE first.number IS NOT NULL))[1:5] AS sample_value"},
		{"postgres", "(ARRAY_AGG(first.number) FILTER (WHERE first.number IS NOT NULL))[1:5] AS sample_value"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			got := buildJoinSQL(tt.dialect, "a.from_t", "number", "b.to_t", "id", "")
			assert.NotContains(t, got, "#standardSQL")
			assert.NotContains(t, got, "`")
			assert.Contains(t, got, tt.sample)
			assert.Contains(t, got, "FROM a.from_t AS first")
		})
	}
}
