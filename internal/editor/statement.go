// internal/editor/statement.go
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-forms/internal/core"
)

var (
	ErrInvalidIdentifier = errors.New("invalid table or column name")
	ErrEmptyRecord       = errors.New("record has no columns")
)

// ColumnValue is one column assignment of a record.
type ColumnValue struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Record is an ordered set of column values ready for a statement.
type Record []ColumnValue

// Get returns the value of column.
func (r Record) Get(column string) (any, bool) {
	for _, cv := range r {
		if cv.Column == column {
			return cv.Value, true
		}
	}
	return nil, false
}

// Set replaces or appends the value of column.
func (r Record) Set(column string, value any) Record {
	for i := range r {
		if r[i].Column == column {
			r[i].Value = value
			return r
		}
	}
	return append(r, ColumnValue{Column: column, Value: value})
}

// Predicate identifies the row(s) an update or delete targets.
type Predicate struct {
	Column string
	Value  any
}

// Statement is SQL with '?' placeholders and its bound arguments.
// User supplied values only ever travel in Args.
type Statement struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// Dialect renders identifiers for one driver. Names that are SQL keywords
// are quoted with Quote; everything else is written bare.
type Dialect struct {
	Quote string
}

var (
	StandardDialect = Dialect{Quote: `"`}
	MySQLDialect    = Dialect{Quote: "`"}
)

// DialectFor returns the dialect of a profile driver.
func DialectFor(driver string) Dialect {
	return Dialect{Quote: core.IdentifierQuote(driver)}
}

func (d Dialect) name(n string) string {
	return core.QuoteName(n, d.Quote)
}

// BuildInsert renders INSERT INTO table (cols) VALUES (?, ...).
func BuildInsert(d Dialect, table string, record Record) (Statement, error) {
	if err := checkNames(table, record); err != nil {
		return Statement{}, err
	}

	cols := make([]string, len(record))
	marks := make([]string, len(record))
	args := make([]any, len(record))
	for i, cv := range record {
		cols[i] = d.name(cv.Column)
		marks[i] = "?"
		args[i] = bindValue(cv.Value)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.name(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return Statement{SQL: sql, Args: args}, nil
}

// BuildUpdate renders UPDATE table SET col = ?, ... WHERE <predicate>.
func BuildUpdate(d Dialect, table string, record Record, where Predicate) (Statement, error) {
	if err := checkNames(table, record); err != nil {
		return Statement{}, err
	}
	clause, whereArgs, err := where.render(d)
	if err != nil {
		return Statement{}, err
	}

	sets := make([]string, len(record))
	args := make([]any, 0, len(record)+len(whereArgs))
	for i, cv := range record {
		sets[i] = d.name(cv.Column) + " = ?"
		args = append(args, bindValue(cv.Value))
	}
	args = append(args, whereArgs...)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.name(table), strings.Join(sets, ", "), clause)
	return Statement{SQL: sql, Args: args}, nil
}

// BuildDelete renders DELETE FROM table WHERE <predicate>.
func BuildDelete(d Dialect, table string, where Predicate) (Statement, error) {
	if !core.IsValidTableName(table) {
		return Statement{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	clause, args, err := where.render(d)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: fmt.Sprintf("DELETE FROM %s WHERE %s", d.name(table), clause), Args: args}, nil
}

func (p Predicate) render(d Dialect) (string, []any, error) {
	if !core.IsValidIdentifier(p.Column) {
		return "", nil, fmt.Errorf("%w: key column %q", ErrInvalidIdentifier, p.Column)
	}
	if bindValue(p.Value) == nil {
		return d.name(p.Column) + " IS NULL", nil, nil
	}
	return d.name(p.Column) + " = ?", []any{bindValue(p.Value)}, nil
}

func checkNames(table string, record Record) error {
	if !core.IsValidTableName(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	if len(record) == 0 {
		return ErrEmptyRecord
	}
	for _, cv := range record {
		if !core.IsValidIdentifier(cv.Column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, cv.Column)
		}
	}
	return nil
}

// bindValue maps empty text and the no-selection placeholder to SQL NULL.
func bindValue(v any) any {
	switch s := v.(type) {
	case string:
		if s == "" || s == NoSelection {
			return nil
		}
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return string(s)
	}
	return v
}

// Preview renders the statement with its arguments inlined as SQL literals.
// It is for display only and is never executed.
func (s Statement) Preview() string {
	var b strings.Builder
	arg := 0
	for _, r := range s.SQL {
		if r == '?' && arg < len(s.Args) {
			b.WriteString(Literal(s.Args[arg]))
			arg++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Literal renders a value the way hand-written SQL would: NULL, a bare
// number or boolean, or a single-quoted string with quotes doubled.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return QuoteLiteral(x.Format(timestampLayout))
	case string:
		return QuoteLiteral(x)
	}
	return QuoteLiteral(fmt.Sprint(v))
}

// QuoteLiteral wraps s in single quotes, doubling any embedded quote.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
