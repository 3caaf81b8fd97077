package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Go model of the *.tables.json format shared by the extraction backends,
// the merge engine and the downstream tooling.

// ValueWithAgreement is a single candidate value for a cell together with
// the number of source rows that contributed it.
type ValueWithAgreement struct {
	Value          string `json:"value"`
	AgreementLevel int    `json:"agreement_level"`
}

// ColumnValue is either a plain string or an ordered list of
// ValueWithAgreement candidates. The zero value is the empty plain string.
type ColumnValue struct {
	text      string
	annotated []ValueWithAgreement
}

// String builds a plain-string column value.
func String(s string) ColumnValue {
	return ColumnValue{text: s}
}

// Annotated builds an agreement-annotated column value.
func Annotated(values ...ValueWithAgreement) ColumnValue {
	return ColumnValue{annotated: values}
}

// IsAnnotated reports whether the value carries agreement annotations.
func (v ColumnValue) IsAnnotated() bool { return v.annotated != nil }

// Text returns the plain string. Only meaningful when !IsAnnotated().
func (v ColumnValue) Text() string { return v.text }

// Values returns the annotated candidates. Only meaningful when IsAnnotated().
func (v ColumnValue) Values() []ValueWithAgreement { return v.annotated }

// Equal compares two column values, including annotation order and weights.
func (v ColumnValue) Equal(o ColumnValue) bool {
	if v.IsAnnotated() != o.IsAnnotated() {
		return false
	}
	if !v.IsAnnotated() {
		return v.text == o.text
	}
	if len(v.annotated) != len(o.annotated) {
		return false
	}
	for i := range v.annotated {
		if v.annotated[i] != o.annotated[i] {
			return false
		}
	}
	return true
}

func (v ColumnValue) MarshalJSON() ([]byte, error) {
	if v.IsAnnotated() {
		return json.Marshal(v.annotated)
	}
	return json.Marshal(v.text)
}

func (v *ColumnValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var values []ValueWithAgreement
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*v = ColumnValue{annotated: values}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("column value must be a string or a value list: %w", err)
	}
	*v = ColumnValue{text: s}
	return nil
}

// AgreementKey is the reserved row field carrying the row-level agreement
// weight. It is never treated as a column.
const AgreementKey = "agreement_level_"

// Row is an open record: a reserved optional agreement weight plus arbitrary
// named columns.
type Row struct {
	AgreementLevel *int
	Columns        map[string]ColumnValue
}

// NewRow builds a row from plain string cells, the common case in readers
// and tests.
func NewRow(cells map[string]string) Row {
	columns := make(map[string]ColumnValue, len(cells))
	for k, v := range cells {
		columns[k] = String(v)
	}
	return Row{Columns: columns}
}

// WithAgreement returns a copy of the row with the agreement weight set.
func (r Row) WithAgreement(level int) Row {
	r.AgreementLevel = &level
	return r
}

// EffectiveWeight is the row's agreement weight, 1 when unweighted.
func (r Row) EffectiveWeight() int {
	if r.AgreementLevel == nil {
		return 1
	}
	return *r.AgreementLevel
}

// ColumnNames returns the row's column names in sorted order.
func (r Row) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for k := range r.Columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal compares agreement weight and all columns.
func (r Row) Equal(o Row) bool {
	if (r.AgreementLevel == nil) != (o.AgreementLevel == nil) {
		return false
	}
	if r.AgreementLevel != nil && *r.AgreementLevel != *o.AgreementLevel {
		return false
	}
	if len(r.Columns) != len(o.Columns) {
		return false
	}
	for k, v := range r.Columns {
		ov, ok := o.Columns[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := marshalNoEscape(key)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalNoEscape(value)
		if err != nil {
			return err
		}
		buf.Write(vb)
		return nil
	}
	if r.AgreementLevel != nil {
		if err := write(AgreementKey, *r.AgreementLevel); err != nil {
			return nil, err
		}
	}
	for _, name := range r.ColumnNames() {
		if err := write(name, r.Columns[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	row := Row{Columns: map[string]ColumnValue{}}
	for key, value := range raw {
		if key == AgreementKey {
			var level int
			if err := json.Unmarshal(value, &level); err != nil {
				return fmt.Errorf("%s: %w", AgreementKey, err)
			}
			row.AgreementLevel = &level
			continue
		}
		var cv ColumnValue
		if err := json.Unmarshal(value, &cv); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		row.Columns[key] = cv
	}
	*r = row
	return nil
}

// TableFragment is a contiguous span of a table on a single page.
// Pages are 1-based.
type TableFragment struct {
	Rows []Row `json:"rows"`
	Page int   `json:"page"`
}

// Table is one of two variants: a flat rows-with-page table, or a list of
// fragments. Exactly one side is populated.
type Table struct {
	Rows      []Row
	Page      int
	Fragments []TableFragment
}

// FragmentTable wraps fragments into the fragmented table variant.
func FragmentTable(fragments ...TableFragment) Table {
	return Table{Fragments: fragments}
}

// RowsTable builds the flat table variant.
func RowsTable(rows []Row, page int) Table {
	return Table{Rows: rows, Page: page}
}

func (t Table) MarshalJSON() ([]byte, error) {
	if t.Fragments != nil {
		return marshalNoEscape(struct {
			Fragments []TableFragment `json:"table_fragments"`
		}{t.Fragments})
	}
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	return marshalNoEscape(TableFragment{Rows: rows, Page: t.Page})
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var probe struct {
		Fragments *[]TableFragment `json:"table_fragments"`
		Rows      *[]Row           `json:"rows"`
		Page      int              `json:"page"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch {
	case probe.Fragments != nil:
		*t = Table{Fragments: *probe.Fragments}
	case probe.Rows != nil:
		*t = Table{Rows: *probe.Rows, Page: probe.Page}
	default:
		return fmt.Errorf("table must have either rows or table_fragments")
	}
	return nil
}

// TableFragments canonicalizes both table variants into fragments: the flat
// variant becomes a single fragment, empty sides yield nil.
func TableFragments(t Table) []TableFragment {
	if len(t.Rows) > 0 {
		return []TableFragment{{Rows: t.Rows, Page: t.Page}}
	}
	if len(t.Fragments) > 0 {
		return t.Fragments
	}
	return nil
}

// Citation is a string, null, or a list of agreement-annotated candidates.
type Citation struct {
	text      *string
	annotated []ValueWithAgreement
}

// TextCitation builds a plain string citation.
func TextCitation(s string) Citation {
	return Citation{text: &s}
}

// AnnotatedCitation builds an agreement-annotated citation.
func AnnotatedCitation(values ...ValueWithAgreement) Citation {
	return Citation{annotated: values}
}

// IsNull reports whether the citation is absent.
func (c Citation) IsNull() bool { return c.text == nil && c.annotated == nil }

// IsAnnotated reports whether the citation carries agreement annotations.
func (c Citation) IsAnnotated() bool { return c.annotated != nil }

// Text returns the plain citation string, empty when null or annotated.
func (c Citation) Text() string {
	if c.text == nil {
		return ""
	}
	return *c.text
}

// Values returns the annotated candidates.
func (c Citation) Values() []ValueWithAgreement { return c.annotated }

func (c Citation) MarshalJSON() ([]byte, error) {
	if c.annotated != nil {
		return json.Marshal(c.annotated)
	}
	if c.text == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*c.text)
}

func (c *Citation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = Citation{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var values []ValueWithAgreement
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*c = Citation{annotated: values}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("citation must be a string, null or a value list: %w", err)
	}
	*c = Citation{text: &s}
	return nil
}

// Metadata carries the source filename plus any extra keys, which are
// preserved verbatim across unmarshal/marshal round trips.
type Metadata struct {
	Filename string
	Extra    map[string]interface{}
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Filename != "" {
		out["filename"] = m.Filename
	}
	return marshalNoEscape(out)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	meta := Metadata{Extra: map[string]interface{}{}}
	for k, v := range raw {
		if k == "filename" {
			if s, ok := v.(string); ok {
				meta.Filename = s
				continue
			}
		}
		meta.Extra[k] = v
	}
	*m = meta
	return nil
}

// TablesFile is one extraction result for one paper.
type TablesFile struct {
	Tables   []Table   `json:"tables"`
	Citation Citation  `json:"citation"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Encode writes the file as single-line JSON with non-ASCII preserved.
// An absent tables slice still encodes as an empty array, as the schema
// requires.
func (f TablesFile) Encode() ([]byte, error) {
	if f.Tables == nil {
		f.Tables = []Table{}
	}
	return marshalNoEscape(f)
}

// Decode parses a tables file from JSON bytes.
func Decode(data []byte) (TablesFile, error) {
	var f TablesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return TablesFile{}, err
	}
	return f, nil
}

// marshalNoEscape marshals without HTML escaping so that non-ASCII and
// characters like < survive verbatim, and trims the encoder's trailing
// newline.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
