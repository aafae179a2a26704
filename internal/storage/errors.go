// internal/storage/errors.go
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/Annany2002/nebula-forms/internal/logger"
)

// Specific errors for backend operations
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrAmbiguousKey        = errors.New("key matches more than one row")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidTableName    = errors.New("invalid table name")
	ErrUnsupportedDriver   = errors.New("unsupported driver")

	customLog = logger.NewLogger()
)

// MySQL server error numbers we translate.
const (
	mysqlErrDupEntry      = 1062
	mysqlErrNoSuchTable   = 1146
	mysqlErrRowIsRefd     = 1451
	mysqlErrNoReferenced  = 1452
	mysqlErrBadNullError  = 1048
	pgUndefinedTable      = "42P01"
	pgIntegrityViolations = "23"
)

// translateError maps driver specific errors onto the package sentinels.
// The driver error stays in the chain so its message reaches the user.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case strings.HasPrefix(pgErr.Code, pgIntegrityViolations):
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrNoSuchTable:
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case mysqlErrDupEntry, mysqlErrRowIsRefd, mysqlErrNoReferenced, mysqlErrBadNullError:
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		}
	}

	// sqlite reports missing tables only through the message text
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %w", ErrTableNotFound, err)
	}
	return err
}
