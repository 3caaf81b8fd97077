package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"paper2table/internal/filenorm"
	"paper2table/internal/schema"
)

// span is one positioned run of text inside a visual row.
type span struct {
	x     float64
	width float64
	text  string
}

// cellGap is the minimum horizontal gap, in points, that separates two
// table cells.
const cellGap = 10.0

// splitCells turns a visual row into cell strings, breaking at horizontal
// gaps wider than cellGap. Spans must be in left-to-right order.
func splitCells(spans []span) []string {
	var cells []string
	var current strings.Builder
	prevEnd := 0.0
	for i, s := range spans {
		if i > 0 && s.x-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(s.text)
		end := s.x + s.width
		if end > prevEnd {
			prevEnd = end
		}
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}

// tablesFromCellRows finds table candidates on one page: maximal runs of at
// least two consecutive rows sharing the same cell count (two or more
// columns). Each run becomes one table.
func tablesFromCellRows(cellRows [][]string, page int, hints []string) []schema.Table {
	var tables []schema.Table
	for start := 0; start < len(cellRows); {
		width := len(cellRows[start])
		if width < 2 {
			start++
			continue
		}
		end := start + 1
		for end < len(cellRows) && len(cellRows[end]) == width {
			end++
		}
		if end-start >= 2 {
			tables = append(tables, tableFromRun(cellRows[start:end], page, hints))
		}
		start = end
	}
	return tables
}

// tableFromRun builds one single-fragment table from a run of uniform rows.
// The first row becomes the header when it matches the column hints;
// otherwise columns are numbered.
func tableFromRun(run [][]string, page int, hints []string) schema.Table {
	names := make([]string, len(run[0]))
	data := run
	if FirstRowIsTableHeader(run[0], hints) {
		for i, cell := range run[0] {
			names[i] = filenorm.NormalizeName(cell)
		}
		data = run[1:]
	} else {
		for i := range names {
			names[i] = strconv.Itoa(i)
		}
	}

	rows := make([]schema.Row, 0, len(data))
	for _, cells := range data {
		columns := make(map[string]string, len(cells))
		for i, cell := range cells {
			columns[names[i]] = strings.ReplaceAll(cell, "\n", " ")
		}
		rows = append(rows, schema.NewRow(columns))
	}
	return schema.FragmentTable(schema.TableFragment{Rows: rows, Page: page})
}

// LayoutReader extracts tables heuristically from the PDF text layer.
type LayoutReader struct {
	hints []string
	log   *zap.SugaredLogger
}

// NewLayoutReader builds a reader with optional column name hints used for
// header detection.
func NewLayoutReader(columnNamesHints string, log *zap.Logger) *LayoutReader {
	return &LayoutReader{
		hints: ParseColumnNamesHints(columnNamesHints),
		log:   log.Sugar().Named("reader.layout"),
	}
}

// ReadTables scans every page of the paper for table candidates. Pages that
// fail to parse are skipped with a warning, matching the tolerant behavior
// of the other backends.
func (r *LayoutReader) ReadTables(_ context.Context, paperPath string) (schema.TablesFile, error) {
	f, doc, err := pdf.Open(paperPath)
	if err != nil {
		return schema.TablesFile{}, fmt.Errorf("open %s: %w", paperPath, err)
	}
	defer f.Close()

	var tables []schema.Table
	for pageNumber := 1; pageNumber <= doc.NumPage(); pageNumber++ {
		page := doc.Page(pageNumber)
		if page.V.IsNull() {
			continue
		}
		cellRows, err := pageCellRows(page)
		if err != nil {
			r.log.Warnw("skipping page", "paper", paperPath, "page", pageNumber, "error", err)
			continue
		}
		found := tablesFromCellRows(cellRows, pageNumber, r.hints)
		r.log.Debugw("extracted tables", "page", pageNumber, "count", len(found))
		tables = append(tables, found...)
	}

	return schema.TablesFile{
		Tables:   tables,
		Metadata: &schema.Metadata{Filename: filepath.Base(paperPath)},
	}, nil
}

// pageCellRows reads the page's text grouped into visual rows and splits
// each row into cells.
func pageCellRows(page pdf.Page) ([][]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	cellRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		spans := make([]span, 0, len(row.Content))
		for _, text := range row.Content {
			spans = append(spans, span{x: text.X, width: text.W, text: text.S})
		}
		if cells := splitCells(spans); len(cells) > 0 {
			cellRows = append(cellRows, cells)
		}
	}
	return cellRows, nil
}

// pageTexts extracts the plain text of every page, for the agent backend.
func pageTexts(paperPath string) ([]string, error) {
	f, doc, err := pdf.Open(paperPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", paperPath, err)
	}
	defer f.Close()

	texts := make([]string, 0, doc.NumPage())
	for pageNumber := 1; pageNumber <= doc.NumPage(); pageNumber++ {
		page := doc.Page(pageNumber)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			texts = append(texts, "")
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			for i, text := range row.Content {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text.S)
			}
			b.WriteByte('\n')
		}
		texts = append(texts, b.String())
	}
	return texts, nil
}
