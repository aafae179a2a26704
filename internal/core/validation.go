// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid table/column name parts (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// MaxQualifiedParts is the deepest table reference accepted: catalog.schema.table
const MaxQualifiedParts = 3

// IsValidIdentifier checks if a string is a valid single identifier (e.g., column_name)
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// IsValidTableName accepts a plain or qualified table reference such as
// "orders", "sandbox.orders" or "prod.sandbox.orders". Every part must be a valid identifier.
func IsValidTableName(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) == 0 || len(parts) > MaxQualifiedParts {
		return false
	}
	for _, part := range parts {
		if !IsValidIdentifier(part) {
			return false
		}
	}
	return true
}

// SplitTableName returns the schema qualifier (possibly empty) and the bare table name.
// For "catalog.schema.table" the qualifier is "catalog.schema".
func SplitTableName(name string) (qualifier, table string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
