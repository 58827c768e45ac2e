package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFragment(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_SingleFile(t *testing.T) {
	path := writeFragment(t, "public.json", `{
		"tables": {"public": ["patents.publications", "trials.*"]},
		"groups": {"patents.publications": "country_code"},
		"joins": {"pubnum": ["+patents.publications|number", "trials.studies|nct_id"]}
	}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"patents.publications", "trials.*"}, m.Tables["public"])
	assert.Equal(t, "country_code", m.Groups["patents.publications"])
	assert.Equal(t, []string{"+patents.publications|number", "trials.studies|nct_id"}, m.Joins["pubnum"])
	assert.Equal(t, []string{"public"}, m.DatasetNames)
	assert.Equal(t, []string{"pubnum"}, m.JoinNames)
}

func TestLoad_MergeRules(t *testing.T) {
	first := writeFragment(t, "first.json", `{
		"tables": {"public": ["patents.publications"]},
		"groups": {"patents.publications": "country_code"},
		"joins": {"pubnum": ["+patents.publications|number"]}
	}`)
	second := writeFragment(t, "second.json", `{
		"tables": {"public": ["trials.studies"], "internal": ["lab.results"]},
		"groups": {"patents.publications": "kind_code"},
		"joins": {"pubnum": ["trials.studies|nct_id"]}
	}`)

	m, err := Load(first, second)
	require.NoError(t, err)

	// tables and joins append per key, groups overwrite
	assert.Equal(t, []string{"patents.publications", "trials.studies"}, m.Tables["public"])
	assert.Equal(t, []string{"lab.results"}, m.Tables["internal"])
	assert.Equal(t, "kind_code", m.Groups["patents.publications"])
	assert.Equal(t, []string{"+patents.publications|number", "trials.studies|nct_id"}, m.Joins["pubnum"])

	// iteration names are sorted
	assert.Equal(t, []string{"internal", "public"}, m.DatasetNames)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFragment(t, "bad.json", `{"tables": {"public": ["a.b"],}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref      string
		table    string
		column   string
		required bool
		wantErr  bool
	}{
		{ref: "patents.publications|number", table: "patents.publications", column: "number"},
		{ref: "+patents.publications|number", table: "patents.publications", column: "number", required: true},
		{ref: "trials.*|nct*", table: "trials.*", column: "nct*"},
		{ref: "no-separator", wantErr: true},
		{ref: "|column", wantErr: true},
		{ref: "table|", wantErr: true},
		{ref: "+", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			table, column, required, err := SplitRef(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.table, table)
			assert.Equal(t, tt.column, column)
			assert.Equal(t, tt.required, required)
		})
	}
}
