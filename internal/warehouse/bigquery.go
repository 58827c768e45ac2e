package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// BigQueryClient talks to BigQuery through the bq command-line tool with
// prettyjson output, the same surface the documentation job has always
// used in CI images.
type BigQueryClient struct {
	projectID string

	// run executes a bq invocation and returns stdout. Overridable in
	// tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewBigQuery creates a client scoped to the given project.
func NewBigQuery(projectID string) *BigQueryClient {
	c := &BigQueryClient{projectID: projectID}
	c.run = c.runCommand
	return c
}

func (c *BigQueryClient) runCommand(ctx context.Context, args ...string) ([]byte, error) {
	argv := append([]string{"--format=prettyjson", "--project_id", c.projectID}, args...)
	cmd := exec.CommandContext(ctx, "bq", argv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("bq %s failed: %w: %s", args[0], err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// bqTableEntry is one entry of a "bq ls" listing.
type bqTableEntry struct {
	TableReference struct {
		TableID string `json:"tableId"`
	} `json:"tableReference"`
}

// bqDatasetInfo is the subset of "bq show <dataset>" output we use.
type bqDatasetInfo struct {
	Description string `json:"description"`
}

// bqTableInfo is the subset of "bq show <table>" output we use. Numeric
// metadata arrives as JSON strings.
type bqTableInfo struct {
	Description string `json:"description"`
	Schema      struct {
		Fields []SchemaField `json:"fields"`
	} `json:"schema"`
	LastModifiedTime string `json:"lastModifiedTime"`
	NumRows          string `json:"numRows"`
	NumBytes         string `json:"numBytes"`
}

// ListTables lists the table IDs of a dataset.
func (c *BigQueryClient) ListTables(ctx context.Context, dataset string) ([]string, error) {
	out, err := c.run(ctx, "ls", "-n", strconv.Itoa(listLimit), dataset)
	if err != nil {
		return nil, err
	}
	return decodeTableListing(out)
}

func decodeTableListing(data []byte) ([]string, error) {
	var entries []bqTableEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode table listing: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.TableReference.TableID)
	}
	return ids, nil
}

// DescribeDataset fetches dataset metadata.
func (c *BigQueryClient) DescribeDataset(ctx context.Context, dataset string) (*DatasetMeta, error) {
	out, err := c.run(ctx, "show", dataset)
	if err != nil {
		return nil, err
	}
	var info bqDatasetInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", dataset, err)
	}
	return &DatasetMeta{Description: info.Description}, nil
}

// DescribeTable fetches schema and metadata for a qualified table.
func (c *BigQueryClient) DescribeTable(ctx context.Context, table string) (*TableMeta, error) {
	out, err := c.run(ctx, "show", table)
	if err != nil {
		return nil, err
	}
	return decodeTableInfo(table, out)
}

func decodeTableInfo(table string, data []byte) (*TableMeta, error) {
	var info bqTableInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", table, err)
	}

	meta := &TableMeta{
		Description: info.Description,
		Fields:      info.Schema.Fields,
	}

	var err error
	if meta.LastModifiedMillis, err = parseMetaInt(info.LastModifiedTime); err != nil {
		return nil, fmt.Errorf("table %s: bad lastModifiedTime: %w", table, err)
	}
	if meta.NumRows, err = parseMetaInt(info.NumRows); err != nil {
		return nil, fmt.Errorf("table %s: bad numRows: %w", table, err)
	}
	if meta.NumBytes, err = parseMetaInt(info.NumBytes); err != nil {
		return nil, fmt.Errorf("table %s: bad numBytes: %w", table, err)
	}
	return meta, nil
}

func parseMetaInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// Query runs a standard SQL statement and returns the decoded rows.
func (c *BigQueryClient) Query(ctx context.Context, sql string) ([]Row, error) {
	out, err := c.run(ctx, "query", "--use_legacy_sql=false", sql)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	return rows, nil
}

// Dialect returns "bigquery".
func (c *BigQueryClient) Dialect() string { return "bigquery" }

// Close is a no-op; the bq tool holds no persistent connection.
func (c *BigQueryClient) Close() error { return nil }
