// internal/domain/models.go
package domain

import (
	"fmt"
	"strings"
)

// ColumnDescriptor is one column as reported by the backend's DESCRIBE.
type ColumnDescriptor struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"`
}

// TableSchema is an ordered set of columns. Insertion order is display order.
type TableSchema struct {
	Table   string             `json:"table"`
	Columns []ColumnDescriptor `json:"columns"`
	index   map[string]int
}

// NewTableSchema builds a schema, rejecting empty or duplicate column names.
func NewTableSchema(table string, columns []ColumnDescriptor) (*TableSchema, error) {
	s := &TableSchema{Table: table, index: make(map[string]int, len(columns))}
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("table %s: column with empty name", table)
		}
		if _, dup := s.index[col.Name]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", table, col.Name)
		}
		s.index[col.Name] = len(s.Columns)
		s.Columns = append(s.Columns, col)
	}
	return s, nil
}

// Names returns the column names in display order.
func (s *TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by name.
func (s *TableSchema) Column(name string) (ColumnDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return ColumnDescriptor{}, false
	}
	return s.Columns[i], true
}

// Has reports whether the schema contains the named column.
func (s *TableSchema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// First returns the first column, the legacy row identifier.
func (s *TableSchema) First() (ColumnDescriptor, bool) {
	if len(s.Columns) == 0 {
		return ColumnDescriptor{}, false
	}
	return s.Columns[0], true
}

// Row is a single record keyed by column name.
type Row map[string]any

// RecordSnapshot is the cached read of a table held by one session.
type RecordSnapshot struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Limit   int      `json:"limit"` // 0 means unbounded
}

// Len returns the number of cached rows.
func (s *RecordSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// At returns row i or false when out of range.
func (s *RecordSnapshot) At(i int) (Row, bool) {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return nil, false
	}
	return s.Rows[i], true
}

// ColumnValues returns every row's value for column, in row order.
func (s *RecordSnapshot) ColumnValues(column string) []any {
	if s == nil {
		return nil
	}
	values := make([]any, 0, len(s.Rows))
	for _, row := range s.Rows {
		if v, ok := row[column]; ok {
			values = append(values, v)
		}
	}
	return values
}

// Search returns the indexes of rows where any cell contains term,
// compared case-insensitively. An empty term matches every row.
func (s *RecordSnapshot) Search(term string) []int {
	if s == nil {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	matches := make([]int, 0, len(s.Rows))
	for i, row := range s.Rows {
		if needle == "" {
			matches = append(matches, i)
			continue
		}
		for _, col := range s.Columns {
			v := row[col]
			if v == nil {
				continue
			}
			if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
				matches = append(matches, i)
				break
			}
		}
	}
	return matches
}

// Label renders a short description of row i for selection lists:
// "Row i: col=val | col=val | col=val" using the first three non-empty cells.
func (s *RecordSnapshot) Label(i int) string {
	row, ok := s.At(i)
	if !ok {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, col := range s.Columns {
		if len(parts) == 3 {
			break
		}
		v := row[col]
		if v == nil {
			continue
		}
		text := fmt.Sprint(v)
		if text == "" {
			continue
		}
		parts = append(parts, col+"="+text)
	}
	return fmt.Sprintf("Row %d: %s", i, strings.Join(parts, " | "))
}

// KeyText renders a key column value as clients address rows by it.
// NULL keys have no text.
func KeyText(v any) (string, bool) {
	switch k := v.(type) {
	case nil:
		return "", false
	case string:
		return k, true
	case []byte:
		return string(k), true
	}
	return fmt.Sprint(v), true
}

// Find returns the index of the first row whose column value renders as key.
func (s *RecordSnapshot) Find(column, key string) (int, bool) {
	if s == nil {
		return -1, false
	}
	for i, row := range s.Rows {
		if text, ok := KeyText(row[column]); ok && text == key {
			return i, true
		}
	}
	return -1, false
}
