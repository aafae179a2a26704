// internal/core/quoting_test.go
package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		quote string
		want  string
	}{
		{"plain column", "ticket", `"`, "ticket"},
		{"reserved column", "order", `"`, `"order"`},
		{"reserved any case", "Group", `"`, `"Group"`},
		{"mysql backticks", "order", "`", "`order`"},
		{"qualified table", "sandbox.order", `"`, `sandbox."order"`},
		{"qualified plain", "prod.sandbox.masterfile", `"`, "prod.sandbox.masterfile"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QuoteName(tc.input, tc.quote))
		})
	}
}

func TestIdentifierQuote(t *testing.T) {
	assert.Equal(t, "`", IdentifierQuote("mysql"))
	assert.Equal(t, `"`, IdentifierQuote("pgx"))
	assert.Equal(t, `"`, IdentifierQuote("sqlite3"))
	assert.True(t, IsReservedWord("ORDER"))
	assert.False(t, IsReservedWord("ticket"))
}
