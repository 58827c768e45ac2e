// Package render turns a populated catalog into Markdown report pages:
// one page per logical dataset plus an index page, optionally converted
// to further document formats through pandoc.
package render

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/tabledoc/internal/catalog"
)

// defaultConsoleURL is the base link for table pages in the warehouse UI.
const defaultConsoleURL = "https://bigquery.cloud.google.com/table/"

const indexTemplate = `---
geometry: margin=0.6in
---

# Datasets
{{range .Datasets}}
## [{{.Name}}](dataset_{{.Name}}.md)

{{datasetTable .}}
{{end}}`

const datasetTemplate = `---
geometry: margin=0.6in
---

# {{.Name}}
{{range .Tables}}
*****
## {{.Name}}

{{if .OldVersion}}Old table version ` + "`{{.Version}}`" + `, schema skipped.
{{else}}{{if .DatasetDescription}}> {{blockquote .DatasetDescription}}

{{end}}{{if .Description}}> {{blockquote .Description}}

{{end}}{{if .Fields}}{{statTable .}}

{{if .GroupKeys}}### Group statistics

{{groupStatTable .}}

{{end}}### Schema

[View in warehouse]({{link .Name}})

{{range .Fields}}* ` + "`{{.Name}}`" + ` {{.Type}} {{.Mode}}{{with .FromJoins}} joins on **{{(index . 0).Name}}**{{end}}
{{if .Description}}    > {{.Description}}
{{end}}{{end}}
{{if hasJoins .}}### Join columns
{{range .Fields}}{{if or .FromJoins .ToJoins}}
#### {{.Name}}
{{range .FromJoins}}
joins to ` + "`{{.ToField.Table.Name}}::{{.ToField.Name}}`" + ` on **{{.Name}}** ({{pct .Percent}}, {{comma .NumRows}} rows)

{{joinStatTable .}}

{{indent .SQL}}
{{end}}{{range .ToJoins}}
joins from ` + "`{{.FromField.Table.Name}}::{{.FromField.Name}}`" + ` on **{{.Name}}** ({{pct .Percent}}, {{comma .NumRows}} rows)
{{end}}{{end}}{{end}}{{end}}{{end}}{{end}}{{end}}`

// Renderer writes report pages for a catalog.
type Renderer struct {
	outputDir  string
	consoleURL string
	printer    *message.Printer
	logger     *slog.Logger

	indexTmpl   *template.Template
	datasetTmpl *template.Template
}

// NewRenderer creates a renderer writing into outputDir.
func NewRenderer(outputDir string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Renderer{
		outputDir:  outputDir,
		consoleURL: defaultConsoleURL,
		printer:    message.NewPrinter(language.English),
		logger:     logger,
	}

	funcs := template.FuncMap{
		"blockquote":     blockquote,
		"indent":         indentSQL,
		"hasJoins":       hasJoins,
		"comma":          r.comma,
		"pct":            formatPercent,
		"link":           r.tableLink,
		"datasetTable":   r.datasetTable,
		"statTable":      r.statTable,
		"groupStatTable": r.groupStatTable,
		"joinStatTable":  r.joinStatTable,
	}

	var err error
	if r.indexTmpl, err = template.New("index").Funcs(funcs).Parse(indexTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	if r.datasetTmpl, err = template.New("dataset").Funcs(funcs).Parse(datasetTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse dataset template: %w", err)
	}
	return r, nil
}

// WriteAll renders the index page and one page per dataset, returning the
// written file paths.
func (r *Renderer) WriteAll(cat *catalog.Catalog) ([]string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	indexPath := filepath.Join(r.outputDir, "index.md")
	page, err := r.RenderIndex(cat)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(indexPath, []byte(page), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write index page: %w", err)
	}
	r.logger.Info("wrote page", "path", indexPath)
	paths = append(paths, indexPath)

	for _, ds := range cat.Datasets {
		page, err := r.RenderDataset(ds)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(r.outputDir, fmt.Sprintf("dataset_%s.md", ds.Name))
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write dataset page %s: %w", ds.Name, err)
		}
		r.logger.Info("wrote page", "path", path, "dataset", ds.Name)
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderIndex renders the index page listing every dataset.
func (r *Renderer) RenderIndex(cat *catalog.Catalog) (string, error) {
	var b strings.Builder
	if err := r.indexTmpl.Execute(&b, cat); err != nil {
		return "", fmt.Errorf("failed to render index page: %w", err)
	}
	return b.String(), nil
}

// RenderDataset renders one dataset page.
func (r *Renderer) RenderDataset(ds *catalog.Dataset) (string, error) {
	var b strings.Builder
	if err := r.datasetTmpl.Execute(&b, ds); err != nil {
		return "", fmt.Errorf("failed to render dataset %s: %w", ds.Name, err)
	}
	return b.String(), nil
}

func (r *Renderer) tableLink(name string) string {
	return r.consoleURL + name
}

// datasetTable renders the index-page table summarizing a dataset.
func (r *Renderer) datasetTable(ds *catalog.Dataset) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Last updated", "Rows", "Joins"})
	for _, tbl := range ds.Tables {
		rows := ""
		if !tbl.OldVersion {
			rows = r.comma(tbl.NumRows)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("[%s](%s)", tbl.Name, r.tableLink(tbl.Name)),
			tbl.LastUpdated,
			rows,
			strings.Join(joinNames(tbl), " "),
		})
	}
	return t.RenderMarkdown()
}

// statTable renders the per-table metadata table.
func (r *Renderer) statTable(tbl *catalog.Table) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Stat", "Value"})
	t.AppendRow(table.Row{"Last updated", tbl.LastUpdated})
	t.AppendRow(table.Row{"Rows", r.comma(tbl.NumRows)})
	t.AppendRow(table.Row{"Size", formatBytes(tbl.NumBytes)})
	return t.RenderMarkdown()
}

// groupStatTable renders the per-group row counts of a table.
func (r *Renderer) groupStatTable(tbl *catalog.Table) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Key", "Rows"})
	for _, key := range tbl.GroupKeys {
		stat := tbl.GroupStats[key]
		t.AppendRow(table.Row{fmt.Sprintf("`%s`", stat.Key), r.comma(stat.Rows)})
	}
	return t.RenderMarkdown()
}

// joinStatTable renders the per-bucket coverage table of a join.
func (r *Renderer) joinStatTable(j *catalog.Join) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Key", "Percent", "Rows", "Sample values"})
	for _, key := range j.BucketKeys {
		stat := j.Stats[key]
		percent := "*none*"
		if stat.Percent > 0 {
			percent = formatPercent(stat.Percent)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("`%s`", stat.Key),
			percent,
			r.comma(stat.NumRows),
			fmt.Sprintf("`%s`", strings.Join(stat.SampleValues, ", ")),
		})
	}
	return t.RenderMarkdown()
}

// hasJoins reports whether any field of the table participates in a join
// in either direction.
func hasJoins(tbl *catalog.Table) bool {
	if len(tbl.FromJoins) > 0 {
		return true
	}
	for _, f := range tbl.Fields {
		if len(f.ToJoins) > 0 {
			return true
		}
	}
	return false
}

// joinNames returns the distinct join-group names of a table's outgoing
// joins in first-seen order.
func joinNames(tbl *catalog.Table) []string {
	seen := make(map[string]bool)
	var names []string
	for _, j := range tbl.FromJoins {
		if !seen[j.Name] {
			seen[j.Name] = true
			names = append(names, j.Name)
		}
	}
	return names
}

func (r *Renderer) comma(n int64) string {
	return r.printer.Sprintf("%d", n)
}

// formatPercent renders a ratio as a percentage. NaN (a join against an
// empty from table) renders as n/a.
func formatPercent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", 100*ratio)
}

// formatBytes renders a byte count with binary unit prefixes.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// blockquote keeps multi-line descriptions inside the quote block.
func blockquote(s string) string {
	return strings.ReplaceAll(s, "\n", "\n> ")
}

// indentSQL indents query text so Markdown treats it as a code block.
func indentSQL(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
