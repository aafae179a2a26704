// internal/editor/editor.go
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/core"
	"github.com/Annany2002/nebula-forms/internal/domain"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
	"github.com/Annany2002/nebula-forms/internal/storage"
)

var customLog = logger.NewLogger()

// Connector hands out the backend for a profile. *storage.Pool implements it.
type Connector interface {
	Get(ctx context.Context, p *config.Profile) (storage.Backend, error)
}

// Editor runs record editing operations against a session's profile.
// Every operation locks the session for its duration.
type Editor struct {
	connector Connector
	now       func() time.Time
}

// New creates an editor that reaches backends through connector.
func New(connector Connector) *Editor {
	return &Editor{connector: connector, now: time.Now}
}

func (e *Editor) policy(sc *session.Context) *Policy {
	return &Policy{Profile: sc.Profile, Now: e.now}
}

// Stats summarises a snapshot for the table view.
type Stats struct {
	Total     int `json:"total"`
	Displayed int `json:"displayed"`
	Columns   int `json:"columns"`
}

// ColumnInfo is one schema column as shown to clients.
type ColumnInfo struct {
	Name         string    `json:"name"`
	DeclaredType string    `json:"declared_type"`
	Kind         FieldKind `json:"kind"`
	Key          bool      `json:"key"`
	Optional     bool      `json:"optional"`
	Dropdown     []string  `json:"dropdown,omitempty"`
}

// SchemaView describes the connected table.
type SchemaView struct {
	Profile   string       `json:"profile"`
	Table     string       `json:"table"`
	KeyColumn string       `json:"key_column"`
	ReadOnly  bool         `json:"read_only"`
	Columns   []ColumnInfo `json:"columns"`
}

// IndexedRow is a snapshot row with its position. Key is the row's key column
// value, which edits and deletes are addressed by; it is empty for a NULL key.
type IndexedRow struct {
	Index  int        `json:"index"`
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Values domain.Row `json:"values"`
}

// RecordPage is one page of a (possibly searched) snapshot.
type RecordPage struct {
	Columns []string     `json:"columns"`
	Rows    []IndexedRow `json:"rows"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Stats   Stats        `json:"stats"`
}

// FormView is a rendered add or edit form.
type FormView struct {
	Mode   Mode    `json:"mode"`
	Key    string  `json:"key,omitempty"`
	Label  string  `json:"label,omitempty"`
	Fields []Field `json:"fields"`
}

// Result reports a completed mutation.
type Result struct {
	Statement string   `json:"statement"`
	Affected  int64    `json:"affected"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (e *Editor) backend(ctx context.Context, sc *session.Context) (storage.Backend, error) {
	b, err := e.connector.Get(ctx, sc.Profile)
	if err != nil {
		customLog.Warnf("Editor: Backend for profile '%s' unavailable: %v", sc.Profile.Name, err)
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return b, nil
}

// Connect loads the schema and a fresh snapshot into the session.
// On failure the session keeps whatever it held before.
func (e *Editor) Connect(ctx context.Context, sc *session.Context) (*SchemaView, error) {
	sc.Lock()
	defer sc.Unlock()

	p := sc.Profile
	b, err := e.backend(ctx, sc)
	if err != nil {
		return nil, err
	}

	columns, err := b.Describe(ctx, p.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	schema, err := domain.NewTableSchema(p.Table, columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	key, err := resolveKeyColumn(p, schema)
	if err != nil {
		return nil, err
	}

	snapshot, err := b.Select(ctx, p.Table, p.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	sc.Reset()
	sc.Schema, sc.KeyColumn, sc.Snapshot = schema, key, snapshot
	customLog.Printf("Editor: Session %s connected to %s (%d records)", sc.ID, p.Table, snapshot.Len())
	return e.schemaView(sc), nil
}

// Refresh re-reads schema and records, as a reconnect would.
func (e *Editor) Refresh(ctx context.Context, sc *session.Context) (*SchemaView, error) {
	return e.Connect(ctx, sc)
}

// resolveKeyColumn prefers the profile's key column and falls back to the first column.
func resolveKeyColumn(p *config.Profile, schema *domain.TableSchema) (string, error) {
	if p.KeyColumn != "" {
		if !schema.Has(p.KeyColumn) {
			return "", fmt.Errorf("%w: key column '%s' is not a column of %s", ErrExecution, p.KeyColumn, p.Table)
		}
		return p.KeyColumn, nil
	}
	first, ok := schema.First()
	if !ok {
		return "", fmt.Errorf("%w: table %s has no columns", ErrExecution, p.Table)
	}
	customLog.Warnf("Editor: Profile '%s' names no key_column; using first column '%s' as row identifier", p.Name, first.Name)
	return first.Name, nil
}

// snapshot returns the session's snapshot, re-fetching it when stale. Caller holds the lock.
func (e *Editor) snapshot(ctx context.Context, sc *session.Context) (*domain.RecordSnapshot, error) {
	if !sc.Connected() {
		return nil, ErrNotConnected
	}
	if sc.Snapshot != nil {
		return sc.Snapshot, nil
	}

	b, err := e.backend(ctx, sc)
	if err != nil {
		return nil, err
	}
	snapshot, err := b.Select(ctx, sc.Profile.Table, sc.Profile.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	sc.Snapshot = snapshot
	return snapshot, nil
}

// Schema describes the connected table.
func (e *Editor) Schema(sc *session.Context) (*SchemaView, error) {
	sc.Lock()
	defer sc.Unlock()
	if !sc.Connected() {
		return nil, ErrNotConnected
	}
	return e.schemaView(sc), nil
}

func (e *Editor) schemaView(sc *session.Context) *SchemaView {
	p := sc.Profile
	view := &SchemaView{
		Profile:   p.Name,
		Table:     p.Table,
		KeyColumn: sc.KeyColumn,
		ReadOnly:  p.ReadOnly,
		Columns:   make([]ColumnInfo, 0, len(sc.Schema.Columns)),
	}
	for _, col := range sc.Schema.Columns {
		options, _ := p.DropdownFor(col.Name)
		view.Columns = append(view.Columns, ColumnInfo{
			Name:         col.Name,
			DeclaredType: col.DeclaredType,
			Kind:         Classify(col.DeclaredType),
			Key:          col.Name == sc.KeyColumn,
			Optional:     p.IsOptional(col.Name),
			Dropdown:     options,
		})
	}
	return view
}

// Records returns a page of the snapshot filtered by opts.Search.
func (e *Editor) Records(ctx context.Context, sc *session.Context, opts *core.ListQueryOptions) (*RecordPage, error) {
	sc.Lock()
	defer sc.Unlock()

	snapshot, err := e.snapshot(ctx, sc)
	if err != nil {
		return nil, err
	}

	matches := snapshot.Search(opts.Search)
	start, end := opts.Page(len(matches))

	page := &RecordPage{
		Columns: snapshot.Columns,
		Rows:    make([]IndexedRow, 0, end-start),
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		Stats: Stats{
			Total:     snapshot.Len(),
			Displayed: len(matches),
			Columns:   len(snapshot.Columns),
		},
	}
	for _, i := range matches[start:end] {
		key, _ := domain.KeyText(snapshot.Rows[i][sc.KeyColumn])
		page.Rows = append(page.Rows, IndexedRow{Index: i, Key: key, Label: snapshot.Label(i), Values: snapshot.Rows[i]})
	}
	return page, nil
}

// Stats summarises the whole snapshot.
func (e *Editor) Stats(ctx context.Context, sc *session.Context) (*Stats, error) {
	sc.Lock()
	defer sc.Unlock()

	snapshot, err := e.snapshot(ctx, sc)
	if err != nil {
		return nil, err
	}
	return &Stats{Total: snapshot.Len(), Displayed: snapshot.Len(), Columns: len(snapshot.Columns)}, nil
}

// Form renders the add form, or the edit form seeded from the row with key.
func (e *Editor) Form(ctx context.Context, sc *session.Context, mode Mode, key string) (*FormView, error) {
	sc.Lock()
	defer sc.Unlock()

	if !sc.Connected() {
		return nil, ErrNotConnected
	}
	policy := e.policy(sc)

	switch mode {
	case ModeAdd:
		return &FormView{Mode: mode, Fields: policy.Form(sc.Schema, mode, nil)}, nil
	case ModeEdit:
		snapshot, err := e.snapshot(ctx, sc)
		if err != nil {
			return nil, err
		}
		row, current, err := locate(sc, snapshot, key)
		if err != nil {
			return nil, err
		}
		return &FormView{
			Mode:   mode,
			Key:    key,
			Label:  snapshot.Label(row),
			Fields: policy.Form(sc.Schema, mode, current),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
}

// Collect coerces submitted input into a record in schema order. In edit mode,
// columns missing from input keep their current value.
func (p *Policy) Collect(schema *domain.TableSchema, input map[string]any, current domain.Row) (Record, []string, error) {
	for name := range input {
		if !schema.Has(name) {
			return nil, nil, invalid(name, fmt.Sprintf("Unknown column '%s'.", name))
		}
	}

	record := make(Record, 0, len(schema.Columns))
	var warnings []string
	for _, col := range schema.Columns {
		raw, ok := input[col.Name]
		if !ok && current != nil {
			raw = current[col.Name]
		}
		value, warning := p.Coerce(col, raw)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		record = append(record, ColumnValue{Column: col.Name, Value: value})
	}
	return record, warnings, nil
}

// Add validates input and inserts it as a new record.
func (e *Editor) Add(ctx context.Context, sc *session.Context, input map[string]any) (*Result, error) {
	sc.Lock()
	defer sc.Unlock()

	if sc.Profile.ReadOnly {
		return nil, ErrReadOnly
	}
	snapshot, err := e.snapshot(ctx, sc)
	if err != nil {
		return nil, err
	}

	policy := e.policy(sc)
	record, warnings, err := policy.Collect(sc.Schema, input, nil)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(record, snapshot, -1); err != nil {
		return nil, err
	}

	stmt, err := BuildInsert(DialectFor(sc.Profile.Driver), sc.Profile.Table, record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	b, err := e.backend(ctx, sc)
	if err != nil {
		return nil, err
	}
	affected, err := b.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	sc.Invalidate()
	customLog.Printf("Editor: Session %s inserted a record into %s", sc.ID, sc.Profile.Table)
	customLog.Debugf("Editor: %s", stmt.Preview())
	return &Result{Statement: stmt.Preview(), Affected: affected, Warnings: warnings}, nil
}

// Edit updates the record whose key column value is key.
func (e *Editor) Edit(ctx context.Context, sc *session.Context, key string, input map[string]any) (*Result, error) {
	sc.Lock()
	defer sc.Unlock()

	if sc.Profile.ReadOnly {
		return nil, ErrReadOnly
	}
	snapshot, err := e.snapshot(ctx, sc)
	if err != nil {
		return nil, err
	}
	row, current, err := locate(sc, snapshot, key)
	if err != nil {
		return nil, err
	}

	policy := e.policy(sc)
	record, warnings, err := policy.Collect(sc.Schema, input, current)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(record, snapshot, row); err != nil {
		return nil, err
	}

	stmt, err := BuildUpdate(DialectFor(sc.Profile.Driver), sc.Profile.Table, record, Predicate{Column: sc.KeyColumn, Value: current[sc.KeyColumn]})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	affected, err := e.execKeyed(ctx, sc, stmt)
	if err != nil {
		return nil, err
	}

	sc.Invalidate()
	customLog.Printf("Editor: Session %s updated %d record(s) in %s", sc.ID, affected, sc.Profile.Table)
	return &Result{Statement: stmt.Preview(), Affected: affected, Warnings: warnings}, nil
}

// Delete removes the record whose key column value is key.
func (e *Editor) Delete(ctx context.Context, sc *session.Context, key string) (*Result, error) {
	sc.Lock()
	defer sc.Unlock()

	if sc.Profile.ReadOnly {
		return nil, ErrReadOnly
	}
	snapshot, err := e.snapshot(ctx, sc)
	if err != nil {
		return nil, err
	}
	_, current, err := locate(sc, snapshot, key)
	if err != nil {
		return nil, err
	}

	stmt, err := BuildDelete(DialectFor(sc.Profile.Driver), sc.Profile.Table, Predicate{Column: sc.KeyColumn, Value: current[sc.KeyColumn]})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	affected, err := e.execKeyed(ctx, sc, stmt)
	if err != nil {
		return nil, err
	}

	sc.Invalidate()
	customLog.Printf("Editor: Session %s deleted %d record(s) from %s", sc.ID, affected, sc.Profile.Table)
	return &Result{Statement: stmt.Preview(), Affected: affected}, nil
}

// locate finds the first snapshot row whose key column value is key.
func locate(sc *session.Context, snapshot *domain.RecordSnapshot, key string) (int, domain.Row, error) {
	i, ok := snapshot.Find(sc.KeyColumn, key)
	if !ok {
		return -1, nil, fmt.Errorf("%w: %s = '%s'", ErrRowNotFound, sc.KeyColumn, key)
	}
	return i, snapshot.Rows[i], nil
}

// execKeyed runs an update or delete bounded to one row unless the profile allows more.
func (e *Editor) execKeyed(ctx context.Context, sc *session.Context, stmt Statement) (int64, error) {
	b, err := e.backend(ctx, sc)
	if err != nil {
		return 0, err
	}
	var maxRows int64 = 1
	if sc.Profile.AllowMultiRow {
		maxRows = 0
	}
	affected, err := b.ExecTx(ctx, stmt.SQL, stmt.Args, maxRows)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	return affected, nil
}
