// internal/editor/classify.go
package editor

import (
	"fmt"
	"strings"
)

// FieldKind is the input control family chosen for a declared column type.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindTimestamp
)

var kindNames = map[FieldKind]string{
	KindText:      "text",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindBoolean:   "boolean",
	KindDate:      "date",
	KindTimestamp: "timestamp",
}

func (k FieldKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FieldKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown field kind %q", text)
}

var floatKeywords = []string{"float", "double", "decimal", "numeric", "real"}

// Classify maps a declared SQL type onto a FieldKind. Matching is by
// case-insensitive substring in the order integer, float, boolean, date,
// timestamp; anything else, including the empty string, is text.
//
// DATETIME is a Timestamp, not a Date, even though it contains "date":
// it carries a time of day that a date picker would drop.
func Classify(declaredType string) FieldKind {
	t := strings.ToLower(declaredType)

	if strings.Contains(t, "int") {
		return KindInteger
	}
	for _, kw := range floatKeywords {
		if strings.Contains(t, kw) {
			return KindFloat
		}
	}
	if strings.Contains(t, "bool") {
		return KindBoolean
	}
	isTimestamp := strings.Contains(t, "timestamp") || strings.Contains(t, "datetime")
	if strings.Contains(t, "date") && !isTimestamp {
		return KindDate
	}
	if isTimestamp {
		return KindTimestamp
	}
	return KindText
}
