// internal/editor/classify_test.go
package editor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		declared string
		want     FieldKind
	}{
		{"BIGINT", KindInteger},
		{"int", KindInteger},
		{"smallint", KindInteger},
		{"integer", KindInteger},
		{"DECIMAL(10,2)", KindFloat},
		{"double precision", KindFloat},
		{"float", KindFloat},
		{"numeric", KindFloat},
		{"REAL", KindFloat},
		{"boolean", KindBoolean},
		{"BOOL", KindBoolean},
		{"DATE", KindDate},
		{"TIMESTAMP", KindTimestamp},
		{"timestamp_ntz", KindTimestamp},
		{"timestamp with time zone", KindTimestamp},
		{"datetime", KindTimestamp},
		{"VARCHAR(50)", KindText},
		{"string", KindText},
		{"text", KindText},
		{"", KindText},
		{"uuid", KindText},
	}

	for _, tc := range testCases {
		t.Run(tc.declared, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.declared))
			assert.Equal(t, tc.want, Classify(tc.declared), "classification is deterministic")
		})
	}
}

func TestClassifyTimestampNeverDate(t *testing.T) {
	for _, declared := range []string{"timestamp", "TIMESTAMP_LTZ", "date_timestamp"} {
		assert.Equal(t, KindTimestamp, Classify(declared), declared)
	}
}

func TestFieldKindJSON(t *testing.T) {
	out, err := json.Marshal(map[string]FieldKind{"k": KindFloat})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"k":"float"}`, string(out))
	assert.Equal(t, "FieldKind(42)", FieldKind(42).String())

	var decoded map[string]FieldKind
	assert.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, KindFloat, decoded["k"])

	var k FieldKind
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &k))
}
