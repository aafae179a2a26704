// internal/storage/backend.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/core"
	"github.com/Annany2002/nebula-forms/internal/domain"
)

// Backend is the SQL execution collaborator behind one editor profile.
type Backend interface {
	Describe(ctx context.Context, table string) ([]domain.ColumnDescriptor, error)
	Select(ctx context.Context, table string, limit int) (*domain.RecordSnapshot, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// ExecTx runs a keyed mutation in a transaction. It rolls back with
	// ErrRecordNotFound when nothing matched, and with ErrAmbiguousKey when
	// maxRows > 0 and more rows than that were affected.
	ExecTx(ctx context.Context, query string, args []any, maxRows int64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLBackend implements Backend over sqlx for sqlite3, pgx and mysql.
type SQLBackend struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the backend described by a profile and pings it.
// The caller is responsible for closing it, usually through a Pool.
func Open(ctx context.Context, p *config.Profile) (*SQLBackend, error) {
	db, err := openDB(p)
	if err != nil {
		return nil, err
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping %s backend for profile '%s': %v", p.Driver, p.Name, err)
		return nil, fmt.Errorf("failed to connect to %s backend: %w", p.Driver, err)
	}

	customLog.Printf("Storage: Connected %s backend for profile '%s'", p.Driver, p.Name)
	return &SQLBackend{db: db, driver: p.Driver}, nil
}

func openDB(p *config.Profile) (*sqlx.DB, error) {
	switch p.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(p.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory '%s': %w", dir, err)
			}
		}
		// foreign keys, WAL mode and busy timeout as for every sqlite file we open
		db, err := sqlx.Open("sqlite3", p.Path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database '%s': %w", p.Path, err)
		}
		return db, nil

	case config.DriverPostgres:
		pgCfg, err := pgx.ParseConfig(postgresURL(p))
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		pgCfg.PreferSimpleProtocol = true
		return sqlx.NewDb(stdlib.OpenDB(*pgCfg), "pgx"), nil

	case config.DriverMySQL:
		myCfg := mysql.NewConfig()
		myCfg.User = p.User
		myCfg.Passwd = p.Password()
		myCfg.Net = "tcp"
		myCfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(portOr(p.Port, 3306)))
		myCfg.DBName = p.Database
		myCfg.ParseTime = true
		db, err := sqlx.Open("mysql", myCfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql database: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, p.Driver)
}

// postgresURL builds a Lakebase style DSN: the OAuth token is the password and TLS is required.
func postgresURL(p *config.Profile) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password()),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(portOr(p.Port, 5432))),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}

// Ping checks the handle is still usable.
func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (b *SQLBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Describe returns the table's columns in declared order.
func (b *SQLBackend) Describe(ctx context.Context, table string) ([]domain.ColumnDescriptor, error) {
	if !core.IsValidTableName(table) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTableName, table)
	}
	qualifier, name := core.SplitTableName(table)
	quote := core.IdentifierQuote(b.driver)

	var (
		query string
		args  []any
	)
	switch b.driver {
	case config.DriverSQLite:
		// PRAGMA does not take bound parameters; both parts are validated identifiers
		if qualifier != "" {
			query = fmt.Sprintf("PRAGMA %s.table_info(%s)", core.QuoteName(qualifier, quote), core.QuoteName(name, quote))
		} else {
			query = fmt.Sprintf("PRAGMA table_info(%s)", core.QuoteName(name, quote))
		}
	case config.DriverPostgres:
		query = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_name = ? AND table_schema = ? ORDER BY ordinal_position`
		args = []any{name, schemaPart(qualifier, "public")}
	case config.DriverMySQL:
		if qualifier == "" {
			query = `SELECT column_name, column_type FROM information_schema.columns
				WHERE table_name = ? AND table_schema = DATABASE() ORDER BY ordinal_position`
			args = []any{name}
		} else {
			query = `SELECT column_name, column_type FROM information_schema.columns
				WHERE table_name = ? AND table_schema = ? ORDER BY ordinal_position`
			args = []any{name, schemaPart(qualifier, "")}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, b.driver)
	}

	rows, err := b.db.QueryxContext(ctx, b.db.Rebind(query), args...)
	if err != nil {
		customLog.Warnf("Storage: Failed to describe table '%s': %v", table, err)
		return nil, fmt.Errorf("failed to retrieve schema: %w", translateError(err))
	}
	defer rows.Close()

	var columns []domain.ColumnDescriptor
	for rows.Next() {
		var col domain.ColumnDescriptor
		if b.driver == config.DriverSQLite {
			var (
				cid       int
				notNull   int
				dfltValue sql.NullString
				pk        int
			)
			if err := rows.Scan(&cid, &col.Name, &col.DeclaredType, &notNull, &dfltValue, &pk); err != nil {
				return nil, fmt.Errorf("failed to scan column info: %w", err)
			}
		} else if err := rows.Scan(&col.Name, &col.DeclaredType); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading column info: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// schemaPart picks the schema out of "schema" or "catalog.schema".
func schemaPart(qualifier, fallback string) string {
	if qualifier == "" {
		return fallback
	}
	_, schema := core.SplitTableName(qualifier)
	return schema
}

// Select reads up to limit rows (0 for all) in the backend's natural order.
func (b *SQLBackend) Select(ctx context.Context, table string, limit int) (*domain.RecordSnapshot, error) {
	if !core.IsValidTableName(table) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTableName, table)
	}

	query := "SELECT * FROM " + core.QuoteName(table, core.IdentifierQuote(b.driver))
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := b.db.QueryxContext(ctx, b.db.Rebind(query), args...)
	if err != nil {
		customLog.Warnf("Storage: Failed to read table '%s': %v", table, err)
		return nil, fmt.Errorf("failed to read records: %w", translateError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	snapshot := &domain.RecordSnapshot{Columns: columns, Rows: []domain.Row{}, Limit: limit}
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		// Convert []byte to string for JSON friendliness
		for k, v := range row {
			if raw, ok := v.([]byte); ok {
				row[k] = string(raw)
			}
		}
		snapshot.Rows = append(snapshot.Rows, domain.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}
	return snapshot, nil
}

// Exec runs a single statement written with '?' placeholders.
func (b *SQLBackend) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := b.db.ExecContext(ctx, b.db.Rebind(query), args...)
	if err != nil {
		customLog.Warnf("Storage: Failed to execute statement: %v", err)
		return 0, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// ExecTx runs a keyed update or delete and enforces the affected row bound.
func (b *SQLBackend) ExecTx(ctx context.Context, query string, args []any, maxRows int64) (int64, error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, b.db.Rebind(query), args...)
	if err != nil {
		rollback(tx)
		customLog.Warnf("Storage: Failed to execute keyed statement: %v", err)
		return 0, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		rollback(tx)
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	switch {
	case affected == 0:
		rollback(tx)
		return 0, ErrRecordNotFound
	case maxRows > 0 && affected > maxRows:
		rollback(tx)
		customLog.Warnf("Storage: Keyed statement matched %d rows, rolled back", affected)
		return affected, fmt.Errorf("%w: %d rows matched", ErrAmbiguousKey, affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", translateError(err))
	}
	return affected, nil
}

func rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		customLog.Warnf("Storage: Rollback failed: %v", err)
	}
}
