// Package dataset reads and writes the delimited tables exchanged between
// pipeline stages.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing column")

// naValues are the cell spellings read as missing, following pandas.
var naValues = map[string]bool{
	"": true, "NA": true, "N/A": true, "NaN": true, "nan": true,
	"NULL": true, "null": true, "<NA>": true, "None": true,
}

// IsNA reports whether a cell holds a missing value.
func IsNA(cell string) bool { return naValues[strings.TrimSpace(cell)] }

// Table is a CSV file held in memory as strings.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable returns an empty table with the given header.
func NewTable(header ...string) *Table {
	t := &Table{Header: header}
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

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the position of column name.
func (t *Table) Col(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

// Require checks that every name is a column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if _, err := t.Col(n); err != nil {
			return err
		}
	}
	return nil
}

// Value returns row's cell in column name, or "" when the column is absent.
func (t *Table) Value(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Set writes value into row's cell in column name, which must exist.
func (t *Table) Set(row []string, name, value string) {
	if i, ok := t.index[name]; ok && i < len(row) {
		row[i] = value
	}
}

// AddColumn appends a column filled by fill, or with "" when fill is nil.
func (t *Table) AddColumn(name string, fill func(row []string) string) {
	t.Header = append(t.Header, name)
	t.reindex()
	for i, row := range t.Rows {
		v := ""
		if fill != nil {
			v = fill(row)
		}
		t.Rows[i] = append(row, v)
	}
}

// Select returns a new table with the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		c, err := t.Col(n)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	out := NewTable(names...)
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		sel := make([]string, len(idx))
		for i, c := range idx {
			if c < len(row) {
				sel[i] = row[c]
			}
		}
		out.Rows[r] = sel
	}
	return out, nil
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row []string) bool) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// ReadTable reads a CSV file with a header line.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

func readTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("empty table")
	}
	header := all[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := NewTable(header...)
	t.Rows = all[1:]
	for i, row := range t.Rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
	return t, nil
}

// WriteTable writes t to path atomically: the rows land in a sibling
// ".part" file that is renamed over path only after a clean flush.
func WriteTable(path string, t *Table) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

func writeAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
