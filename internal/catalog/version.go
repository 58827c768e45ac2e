package catalog

import "regexp"

// versionPattern splits a table name into a base name and a trailing
// version token: digits optionally followed by alphanumerics, e.g.
// "trials_2024b" -> base "trials", version "2024b".
var versionPattern = regexp.MustCompile(`^(.+)_([0-9]+[0-9a-zA-Z]*)`)

// MarkOldVersions partitions tables into version families by base name and
// flags every table that is not the latest member of its family. A table
// whose name carries no version token is its own base and always wins its
// family, so versioned siblings of an unversioned table are all old.
//
// Comparison between versioned names is plain lexicographic string order,
// so "a_10" sorts before "a_2". This mirrors how version suffixes are
// assigned in practice and is a documented limitation.
func (c *Catalog) MarkOldVersions() {
	latestForBase := make(map[string]string)
	noVersion := make(map[string]bool)

	for _, ds := range c.Datasets {
		for _, t := range ds.Tables {
			m := versionPattern.FindStringSubmatch(t.Name)
			if m == nil {
				noVersion[t.Name] = true
				latestForBase[t.Name] = t.Name
				continue
			}
			base := m[1]
			t.Version = m[2]
			current, seen := latestForBase[base]
			if !seen {
				latestForBase[base] = t.Name
			} else if current < t.Name && !noVersion[base] {
				latestForBase[base] = t.Name
			}
		}
	}

	latest := make(map[string]bool, len(latestForBase))
	for _, name := range latestForBase {
		latest[name] = true
	}

	for _, ds := range c.Datasets {
		for _, t := range ds.Tables {
			if !latest[t.Name] {
				t.OldVersion = true
			}
		}
	}
}
