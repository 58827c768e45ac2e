package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tabledoc/internal/catalog"
	"github.com/leapstack-labs/tabledoc/internal/manifest"
	"github.com/leapstack-labs/tabledoc/internal/warehouse"
)

// allBucket keys the single bucket of an ungrouped join.
const allBucket = "all"

// sampleLimit caps the sample values kept per bucket.
const sampleLimit = 5

// joinPair is one resolved, deduplicated join to compute.
type joinPair struct {
	group     string
	fromField *catalog.Field
	toField   *catalog.Field
	groupBy   string
	sql       string
}

// resolveJoins expands wildcard references in every join group, enumerates
// the eligible pairs, runs one counting query per pair, and attaches the
// resulting Join objects to the catalog. Queries may run concurrently;
// results are merged in enumeration order so the catalog is deterministic.
func (e *Engine) resolveJoins(ctx context.Context, cat *catalog.Catalog, logger *slog.Logger) error {
	expanded, err := e.expandJoinGroups(cat, logger)
	if err != nil {
		return err
	}

	pairs, err := e.enumeratePairs(cat, expanded)
	if err != nil {
		return err
	}
	logger.Info("computing join statistics", "pairs", len(pairs))

	results := make([][]warehouse.Row, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			logger.Info("running join",
				"group", pair.group,
				"from", pair.fromField.Table.Name+"|"+pair.fromField.Name,
				"to", pair.toField.Table.Name+"|"+pair.toField.Name)
			rows, err := e.gw.Query(gctx, pair.sql)
			if err != nil {
				return fmt.Errorf("join %s: %w", pair.group, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, pair := range pairs {
		if err := attachJoin(pair, results[i]); err != nil {
			return err
		}
	}
	return nil
}

// expandJoinGroups replaces every wildcard reference with the concrete
// "table|column" matches found in the catalog, splicing them in place so
// the surrounding order is preserved. The required marker survives
// expansion: each match inherits it. Old table versions never match.
func (e *Engine) expandJoinGroups(cat *catalog.Catalog, logger *slog.Logger) (map[string][]string, error) {
	expanded := make(map[string][]string, len(e.manifest.Joins))

	for _, name := range e.manifest.JoinNames {
		refs := append([]string(nil), e.manifest.Joins[name]...)

		for i := 0; i < len(refs); {
			if !strings.Contains(refs[i], "*") {
				i++
				continue
			}

			tablePattern, columnPattern, required, err := manifest.SplitRef(refs[i])
			if err != nil {
				return nil, fmt.Errorf("join group %s: %w", name, err)
			}
			tableRe, err := patternRegexp(tablePattern)
			if err != nil {
				return nil, fmt.Errorf("join group %s: %w", name, err)
			}
			columnRe, err := patternRegexp(columnPattern)
			if err != nil {
				return nil, fmt.Errorf("join group %s: %w", name, err)
			}

			var matches []string
			for _, table := range cat.Tables() {
				if table.OldVersion || !tableRe.MatchString(table.Name) {
					continue
				}
				for _, field := range table.Fields {
					if !columnRe.MatchString(field.Name) {
						continue
					}
					match := table.Name + "|" + field.Name
					if required {
						match = manifest.RequiredMarker + match
					}
					matches = append(matches, match)
				}
			}
			logger.Debug("expanded wildcard reference",
				"group", name, "reference", refs[i], "matches", len(matches))

			refs = append(refs[:i], append(matches, refs[i+1:]...)...)
			i += len(matches)
		}

		expanded[name] = refs
	}
	return expanded, nil
}

// enumeratePairs walks all ordered reference pairs of each group. A pair
// is eligible when at least one side carries the required marker; mirror
// pairs and same-field self pairs are dropped via an order-independent
// key. Both sides must resolve to known fields or the run aborts.
func (e *Engine) enumeratePairs(cat *catalog.Catalog, groups map[string][]string) ([]joinPair, error) {
	seen := make(map[string]bool)
	var pairs []joinPair

	for _, name := range e.manifest.JoinNames {
		refs := groups[name]
		for i := range refs {
			for j := range refs {
				if i == j {
					continue
				}
				firstTable, firstColumn, firstReq, err := manifest.SplitRef(refs[i])
				if err != nil {
					return nil, fmt.Errorf("join group %s: %w", name, err)
				}
				secondTable, secondColumn, secondReq, err := manifest.SplitRef(refs[j])
				if err != nil {
					return nil, fmt.Errorf("join group %s: %w", name, err)
				}

				if !firstReq && !secondReq {
					continue
				}
				if firstTable == secondTable && firstColumn == secondColumn {
					continue
				}

				key := pairKey(firstTable, firstColumn, secondTable, secondColumn)
				if seen[key] {
					continue
				}
				seen[key] = true

				fromField := cat.FindField(firstTable, firstColumn)
				toField := cat.FindField(secondTable, secondColumn)
				if fromField == nil || toField == nil {
					return nil, fmt.Errorf(
						"join group %s: fields not found: %s|%s resolved=%t, %s|%s resolved=%t",
						name, firstTable, firstColumn, fromField != nil,
						secondTable, secondColumn, toField != nil)
				}

				groupBy := e.manifest.Groups[firstTable]
				pairs = append(pairs, joinPair{
					group:     name,
					fromField: fromField,
					toField:   toField,
					groupBy:   groupBy,
					sql: buildJoinSQL(e.gw.Dialect(),
						firstTable, firstColumn, secondTable, secondColumn, groupBy),
				})
			}
		}
	}
	return pairs, nil
}

// pairKey builds an order-independent dedup key, so a pair and its mirror
// collapse to one join.
func pairKey(t1, c1, t2, c2 string) string {
	a := t1 + "|" + c1
	b := t2 + "|" + c2
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// attachJoin converts the query result of one pair into a Join with per-
// bucket statistics and records it on the from field, the to field, and
// the from table. Aggregate percent sums numerators and denominators
// across buckets rather than averaging per-bucket percentages; a from
// table with zero rows yields NaN.
func attachJoin(pair joinPair, rows []warehouse.Row) error {
	join := &catalog.Join{
		Name:      pair.group,
		FromField: pair.fromField,
		ToField:   pair.toField,
		Stats:     make(map[string]*catalog.JoinStat, len(rows)),
		SQL:       pair.sql,
	}
	pair.fromField.FromJoins = append(pair.fromField.FromJoins, join)
	pair.toField.ToJoins = append(pair.toField.ToJoins, join)
	pair.fromField.Table.FromJoins = append(pair.fromField.Table.FromJoins, join)

	var totalRows, joinedRows int64
	for _, row := range rows {
		cnt, err := rowInt64(row["cnt"])
		if err != nil {
			return fmt.Errorf("join %s: %w", pair.group, err)
		}
		secondCnt, err := rowInt64(row["second_cnt"])
		if err != nil {
			return fmt.Errorf("join %s: %w", pair.group, err)
		}
		totalRows += cnt
		joinedRows += secondCnt

		key := allBucket
		if pair.groupBy != "" {
			key = rowString(row["grouped"])
		}
		samples := rowStrings(row["sample_value"])
		if len(samples) > sampleLimit {
			samples = samples[:sampleLimit]
		}
		join.Stats[key] = &catalog.JoinStat{
			Key:          key,
			Percent:      float64(secondCnt) / float64(cnt),
			NumRows:      secondCnt,
			SampleValues: samples,
		}
		join.BucketKeys = append(join.BucketKeys, key)
	}

	join.Percent = float64(joinedRows) / float64(totalRows)
	join.NumRows = joinedRows
	return nil
}
