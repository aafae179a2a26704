// internal/core/quoting.go
package core

import "strings"

// reservedWords are keywords that sqlite, postgres or mysql refuse as bare
// identifiers. Columns named after them must be quoted.
var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		add all alter analyze and as asc between both by case cast check collate column
		constraint create cross current_date current_time current_timestamp current_user
		database default delete desc distinct div drop else end except exists fetch for
		foreign from full grant group having in index inner insert interval intersect into
		is join key keys leading left like limit lock match mod natural not null offset on
		only or order outer primary range rank references returning right row rows schema
		select set table then to trailing union unique update user using values when where
		window with`) {
		reservedWords[w] = struct{}{}
	}
}

// IsReservedWord reports whether name is an SQL keyword, case-insensitively.
func IsReservedWord(name string) bool {
	_, ok := reservedWords[strings.ToLower(name)]
	return ok
}

// IdentifierQuote returns the identifier quote of a database/sql driver:
// a backtick for mysql, a double quote otherwise.
func IdentifierQuote(driver string) string {
	if driver == "mysql" {
		return "`"
	}
	return `"`
}

// QuoteName quotes every part of a plain or qualified name that is a reserved
// word. Other parts stay bare so unquoted case folding keeps working. name
// must already be a valid table name or identifier.
func QuoteName(name, quote string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if IsReservedWord(part) {
			parts[i] = quote + part + quote
		}
	}
	return strings.Join(parts, ".")
}
