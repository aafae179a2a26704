// internal/core/validation_test.go
package core

import (
	"strings"
	"testing"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "ticket", true, ""},
		{"valid with numbers", "timeline_2026", true, ""},
		{"valid uppercase", "MDAR_PRIORITY", true, ""},
		{"valid underscore start", "_rowid", true, ""},
		{"valid short", "a", true, ""},
		{"valid long (64 chars)", strings.Repeat("a", 64), true, ""},
		{"invalid empty", "", false, "empty string"},
		{"invalid space", "data owner", false, "contains space"},
		{"invalid hyphen", "data-owner", false, "contains hyphen"},
		{"invalid quote", "o'brien", false, "contains quote"},
		{"invalid dot", "sandbox.table", false, "qualified names are tables, not columns"},
		{"invalid too long", strings.Repeat("a", 65), false, "exceeds 64 chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidIdentifier(tc.input)
			if got != tc.want {
				t.Errorf("IsValidIdentifier(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

func TestIsValidTableName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"bare", "dq_mdar_inventory_masterfile", true},
		{"schema qualified", "sandbox.masterfile", true},
		{"catalog qualified", "dg_prod.sandbox.masterfile", true},
		{"too deep", "a.b.c.d", false},
		{"empty part", "dg_prod..masterfile", false},
		{"trailing dot", "sandbox.", false},
		{"injection", "t; DROP TABLE t", false},
		{"empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidTableName(tc.input); got != tc.want {
				t.Errorf("IsValidTableName(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitTableName(t *testing.T) {
	q, tbl := SplitTableName("dg_prod.sandbox.masterfile")
	if q != "dg_prod.sandbox" || tbl != "masterfile" {
		t.Errorf("SplitTableName = (%q, %q)", q, tbl)
	}
	q, tbl = SplitTableName("orders")
	if q != "" || tbl != "orders" {
		t.Errorf("SplitTableName bare = (%q, %q)", q, tbl)
	}
}
