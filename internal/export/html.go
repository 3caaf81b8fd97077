package export

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"paper2table/internal/schema"
)

// Paper pairs a basename with its loaded tables file for the viewer.
type Paper struct {
	Basename string
	File     schema.TablesFile
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// URLLabel reduces a URL to a tidy display label: the eTLD+1 of its host,
// falling back to the bare hostname, without a www prefix.
func URLLabel(raw string) string {
	candidate := raw
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return raw
	}
	host := parsed.Hostname()
	if host == "" {
		return raw
	}
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return strings.TrimPrefix(etld, "www.")
	}
	return strings.TrimPrefix(host, "www.")
}

// citationHTML escapes the citation and turns embedded URLs into links
// labeled with their domain.
func citationHTML(c schema.Citation) template.HTML {
	text := c.Text()
	if c.IsAnnotated() {
		parts := make([]string, 0, len(c.Values()))
		for _, entry := range c.Values() {
			parts = append(parts, entry.Value)
		}
		text = strings.Join(parts, " / ")
	}

	var b strings.Builder
	last := 0
	for _, match := range urlPattern.FindAllStringIndex(text, -1) {
		b.WriteString(template.HTMLEscapeString(text[last:match[0]]))
		link := text[match[0]:match[1]]
		b.WriteString(`<a href="` + template.HTMLEscapeString(link) + `">`)
		b.WriteString(template.HTMLEscapeString(URLLabel(link)))
		b.WriteString(`</a>`)
		last = match[1]
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(b.String())
}

// rowClass maps the agreement weight to the viewer's color classes.
func rowClass(row schema.Row) string {
	switch weight := row.EffectiveWeight(); {
	case weight <= 1:
		return "low"
	case weight == 2:
		return "medium"
	default:
		return "high"
	}
}

const viewerTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset='utf-8'>
<title>Paper2Table Viewer</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.paper { margin-bottom: 2em; }
.table { border-collapse: collapse; margin: 1em 0; width: 100%; }
.table th, .table td { border: 1px solid #ddd; padding: 8px; }
.low { background-color: #fdd; }
.medium { background-color: #ffd; }
.high { background-color: #dfd; }
</style>
</head><body>
<h1>Paper2Table Viewer</h1>
{{if .Metadata}}<h2>Metadata</h2><pre>{{.Metadata}}</pre>{{end}}
<h2>Papers</h2>
{{range .Papers}}<div class='paper'><h3>{{.Basename}}</h3>
<p>Citation: {{citation .File.Citation}}</p>
{{range $index, $table := .File.Tables}}{{range fragments $table}}
<h4>Table {{inc $index}}, page {{.Page}}</h4>
{{if not .Rows}}<p><i>No rows</i></p>{{else}}{{$columns := columns .Rows}}
<table class='table'>
<tr>{{range $columns}}<th>{{.}}</th>{{end}}</tr>
{{range $row := .Rows}}<tr class='{{rowClass $row}}'>{{range $col := $columns}}<td>{{cell $row $col}}</td>{{end}}</tr>
{{end}}</table>{{end}}
{{end}}{{end}}</div>
{{end}}</body></html>
`

var viewer = template.Must(template.New("viewer").Funcs(template.FuncMap{
	"citation":  citationHTML,
	"fragments": schema.TableFragments,
	"rowClass":  rowClass,
	"inc":       func(i int) int { return i + 1 },
	"columns": func(rows []schema.Row) []string {
		if len(rows) == 0 {
			return nil
		}
		return rows[0].ColumnNames()
	},
	"cell": func(row schema.Row, column string) string {
		return CellText(row.Columns[column])
	},
}).Parse(viewerTemplate))

// BuildHTML renders the static viewer for the given papers.
func BuildHTML(metadata map[string]interface{}, papers []Paper) (string, error) {
	metaText := ""
	if len(metadata) > 0 {
		pretty, err := json.MarshalIndent(metadata, "", "  ")
		if err != nil {
			return "", err
		}
		metaText = string(pretty)
	}

	var buf bytes.Buffer
	err := viewer.Execute(&buf, struct {
		Metadata string
		Papers   []Paper
	}{metaText, papers})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadPapers reads the optional tables.metadata.json plus every
// *.tables.json of a directory, in basename order.
func LoadPapers(dir string) (map[string]interface{}, []Paper, error) {
	var metadata map[string]interface{}
	if data, err := os.ReadFile(filepath.Join(dir, "tables.metadata.json")); err == nil {
		if err := json.Unmarshal(data, &metadata); err != nil {
			return nil, nil, err
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.tables.json"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)

	var papers []Paper
	for _, path := range paths {
		if filepath.Base(path) == "tables.metadata.json" {
			continue
		}
		file, err := schema.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		papers = append(papers, Paper{Basename: filepath.Base(path), File: file})
	}
	return metadata, papers, nil
}
