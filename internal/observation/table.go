package observation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

var (
	// ErrMissingColumn is returned when a table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmpty is returned when a table holds no data rows.
	ErrEmpty = errors.New("empty observation set")
)

// Table is a delimited text table with a header row. Column order and row
// order are preserved exactly as read.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable creates a table with the given header and rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// ReadTable parses a delimited table. A UTF-8 byte order mark on the first
// header cell is stripped.
func ReadTable(r io.Reader, sep rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, failure.Input("read table", fmt.Errorf("failed to parse delimited text: %w", err))
	}
	if len(records) == 0 {
		return nil, failure.Input("read table", fmt.Errorf("%w: no header row", ErrEmpty))
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, failure.Input("read table",
				fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header)))
		}
	}
	return NewTable(header, rows), nil
}

// WriteCSV writes the table as comma separated text with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Col returns the position of a column.
func (t *Table) Col(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Require checks that every named column is present and reports the first
// missing one.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.Col(c); !ok {
			return failure.Input("validate columns", fmt.Errorf("%w %q", ErrMissingColumn, c))
		}
	}
	return nil
}

// Value returns the cell at row i in the named column, or "" when the column
// does not exist.
func (t *Table) Value(i int, col string) string {
	c, ok := t.Col(col)
	if !ok {
		return ""
	}
	return t.Rows[i][c]
}

// SetColumn replaces the values of an existing column or appends a new one.
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	c, ok := t.Col(name)
	if !ok {
		t.Header = append(t.Header, name)
		c = len(t.Header) - 1
		t.index[name] = c
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}
	for i := range t.Rows {
		t.Rows[i][c] = values[i]
	}
	return nil
}

// Rename renames columns using the mapping; unknown names are left alone.
func (t *Table) Rename(mapping map[string]string) {
	for i, h := range t.Header {
		if to, ok := mapping[h]; ok {
			t.Header[i] = to
		}
	}
	t.reindex()
}

// Filter returns a new table holding the rows for which keep returns true.
// Row slices are shared with the receiver.
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if keep(i) {
			rows = append(rows, row)
		}
	}
	header := make([]string, len(t.Header))
	copy(header, t.Header)
	return NewTable(header, rows)
}
