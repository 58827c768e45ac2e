package engine

import (
	"fmt"
	"strings"
)

// sqlName normalizes a table reference for use in SQL. Legacy
// "project:dataset.table" spellings become dot-separated.
func sqlName(table string) string {
	return strings.ReplaceAll(table, ":", ".")
}

// quoteTable quotes a table reference for the dialect. BigQuery requires
// backticks around qualified names; the other backends take them bare.
func quoteTable(dialect, table string) string {
	if dialect == "bigquery" {
		return "`" + sqlName(table) + "`"
	}
	return sqlName(table)
}

// buildGroupCountSQL returns the grouped row-count query for a table's
// configured group-by column.
func buildGroupCountSQL(dialect, table, column string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) AS cnt, %s AS grouped FROM %s GROUP BY 2 ORDER BY 1",
		column, quoteTable(dialect, table))
}

// sampleExpr returns the dialect-specific expression collecting up to 5
// non-null sample values of the join column.
func sampleExpr(dialect, column string) string {
	switch dialect {
	case "duckdb":
		return fmt.Sprintf(
			"(list(DISTINCT first.%s) FILTER (WHERE first.%s IS NOT NULL))[1:5] AS sample_value",
			column, column)
	case "postgres":
		return fmt.Sprintf(
			"(ARRAY_AGG(first.%s) FILTER (WHERE first.%s IS NOT NULL))[1:5] AS sample_value",
			column, column)
	default: // bigquery
		return fmt.Sprintf(
			"ARRAY_AGG(first.%s IGNORE NULLS ORDER BY RAND() LIMIT 5) AS sample_value",
			column)
	}
}

// buildJoinSQL builds the left-join counting query for one join pair. For
// every row of the "from" table it determines whether a matching "to" row
// exists; with a group-by column the counts are bucketed per group value.
func buildJoinSQL(dialect, fromTable, fromColumn, toTable, toColumn, groupBy string) string {
	var b strings.Builder
	if dialect == "bigquery" {
		b.WriteString("#standardSQL\n")
	}

	b.WriteString("SELECT\n")
	b.WriteString("  COUNT(*) AS cnt,\n")
	b.WriteString("  COUNT(second.second_column) AS second_cnt,\n")
	if groupBy != "" {
		fmt.Fprintf(&b, "  first.%s AS grouped,\n", groupBy)
	}
	fmt.Fprintf(&b, "  %s\n", sampleExpr(dialect, fromColumn))
	fmt.Fprintf(&b, "FROM %s AS first\n", quoteTable(dialect, fromTable))
	b.WriteString("LEFT JOIN (\n")
	fmt.Fprintf(&b, "  SELECT %s AS second_column, COUNT(*) AS cnt\n", toColumn)
	fmt.Fprintf(&b, "  FROM %s\n", quoteTable(dialect, toTable))
	b.WriteString("  GROUP BY 1\n")
	fmt.Fprintf(&b, ") AS second ON first.%s = second.second_column", fromColumn)
	if groupBy != "" {
		b.WriteString("\nGROUP BY 3")
	}
	return b.String()
}
