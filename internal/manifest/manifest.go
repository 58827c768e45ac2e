// Package manifest loads and merges the JSON configuration fragments that
// describe which tables belong to which logical dataset, which tables get
// grouped statistics, and which columns participate in join groups.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// RequiredMarker prefixes a join reference that must participate in
// pairing even when the other side is unmarked.
const RequiredMarker = "+"

// fragment is the shape of a single JSON configuration file.
type fragment struct {
	Tables map[string][]string `koanf:"tables"`
	Groups map[string]string   `koanf:"groups"`
	Joins  map[string][]string `koanf:"joins"`
}

// Manifest is the merged configuration across all fragments.
type Manifest struct {
	// Tables maps logical dataset name -> "dataset_id.table_pattern"
	// entries. Entries from later files append.
	Tables map[string][]string

	// Groups maps a qualified table name -> group-by column. Entries
	// from later files overwrite.
	Groups map[string]string

	// Joins maps join-group name -> "table_pattern|column_pattern"
	// references, optionally "+"-prefixed. Entries from later files
	// append.
	Joins map[string][]string

	// DatasetNames and JoinNames give deterministic iteration order
	// (sorted; JSON objects carry no usable order).
	DatasetNames []string
	JoinNames    []string
}

// Load reads and merges the given JSON fragments in order. A file that
// fails to parse aborts the load; a trailing comma is the usual culprit.
func Load(paths ...string) (*Manifest, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no configuration files given")
	}

	m := &Manifest{
		Tables: make(map[string][]string),
		Groups: make(map[string]string),
		Joins:  make(map[string][]string),
	}

	for _, path := range paths {
		frag, err := loadFragment(path)
		if err != nil {
			return nil, err
		}
		m.merge(frag)
	}

	m.DatasetNames = sortedKeys(m.Tables)
	m.JoinNames = sortedKeys(m.Joins)
	return m, nil
}

func loadFragment(path string) (*fragment, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	var frag fragment
	if err := k.Unmarshal("", &frag); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return &frag, nil
}

func (m *Manifest) merge(frag *fragment) {
	for name, patterns := range frag.Tables {
		m.Tables[name] = append(m.Tables[name], patterns...)
	}
	for table, column := range frag.Groups {
		m.Groups[table] = column
	}
	for name, refs := range frag.Joins {
		m.Joins[name] = append(m.Joins[name], refs...)
	}
}

// SplitRef splits a "table|column" join reference, reporting whether it
// carried the required marker. The marker is stripped from the table part.
func SplitRef(ref string) (table, column string, required bool, err error) {
	required = strings.HasPrefix(ref, RequiredMarker)
	trimmed := strings.TrimPrefix(ref, RequiredMarker)
	table, column, ok := strings.Cut(trimmed, "|")
	if !ok || table == "" || column == "" {
		return "", "", false, fmt.Errorf("malformed join reference %q (want table|column)", ref)
	}
	return table, column, required, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
