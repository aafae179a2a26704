// internal/editor/validate_test.go
package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/domain"
)

// masterfileProfile mirrors the shipped MDAR masterfile profile.
func masterfileProfile(t *testing.T) *config.Profile {
	t.Helper()
	p := &config.Profile{
		Name:            "masterfile",
		Driver:          config.DriverSQLite,
		Path:            "unused.db",
		Table:           "masterfile",
		KeyColumn:       "ticket",
		RowLimit:        1000,
		OptionalFields:  []string{"root_cause", "timeline_year", "timeline_month", "timeline_quarter"},
		MultilineFields: []string{"updates", "notes"},
		Timeline:        &config.TimelineRule{Year: "timeline_year", Month: "timeline_month", Quarter: "timeline_quarter"},
		Pattern: &config.PatternRule{
			Column:   "ticket",
			Regex:    `^MDAR-\d+$`,
			MaxChars: 20,
			Help:     "Format: MDAR-#### (e.g., MDAR-1234)",
		},
		Dropdowns: map[string][]string{
			"mdar_priority":    {"P0 - Critical", "P1 - High", "P2 - Medium", "P3 - Low"},
			"timeline_year":    {"2025", "2026"},
			"timeline_month":   {"January", "February"},
			"timeline_quarter": {"Q1", "Q2", "Q3", "Q4"},
		},
	}
	require.NoError(t, p.Validate())
	return p
}

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	return &Policy{
		Profile: masterfileProfile(t),
		Now:     func() time.Time { return time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC) },
	}
}

func validRecord() Record {
	return Record{
		{Column: "ticket", Value: "MDAR-1234"},
		{Column: "data_owner", Value: "Owner 1"},
		{Column: "mdar_priority", Value: "P1 - High"},
		{Column: "root_cause", Value: nil},
		{Column: "timeline_year", Value: NoSelection},
		{Column: "timeline_month", Value: NoSelection},
		{Column: "timeline_quarter", Value: NoSelection},
	}
}

func snapshotWithTickets(tickets ...string) *domain.RecordSnapshot {
	s := &domain.RecordSnapshot{Columns: []string{"ticket", "data_owner"}}
	for _, ticket := range tickets {
		s.Rows = append(s.Rows, domain.Row{"ticket": ticket, "data_owner": "Owner 1"})
	}
	return s
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	policy := testPolicy(t)
	assert.NoError(t, policy.Validate(validRecord(), snapshotWithTickets("MDAR-1"), -1))
}

func TestValidateMandatoryShortCircuits(t *testing.T) {
	policy := testPolicy(t)
	record := validRecord().
		Set("data_owner", "  ").
		Set("mdar_priority", NoSelection)

	err := policy.Validate(record, nil, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "data_owner", verr.Field)
	assert.Equal(t, "Field 'data_owner' is mandatory and cannot be empty.", verr.Message)
	assert.NotContains(t, err.Error(), "mdar_priority", "only the first failing field is reported")
}

func TestValidateDropdownMembership(t *testing.T) {
	policy := testPolicy(t)

	testCases := []struct {
		name     string
		priority any
		wantErr  string
	}{
		{"listed option", "P2 - Medium", ""},
		{"outside the domain", "P9 - Not In Domain", "Value 'P9 - Not In Domain' for 'mdar_priority' is not one of the allowed options."},
		{"case differs", "p1 - high", "Value 'p1 - high' for 'mdar_priority' is not one of the allowed options."},
		{"placeholder is a missing value", NoSelection, "Field 'mdar_priority' is mandatory and cannot be empty."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(validRecord().Set("mdar_priority", tc.priority), nil, -1)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}

	// optional dropdowns accept the placeholder but still reject unlisted values
	assert.NoError(t, policy.Validate(validRecord().Set("timeline_quarter", NoSelection), nil, -1))
	err := policy.Validate(validRecord().Set("timeline_year", "1999").Set("timeline_quarter", "Q1"), nil, -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'timeline_year'")

	// mandatory failures are reported before dropdown ones
	err = policy.Validate(validRecord().Set("mdar_priority", "P9").Set("data_owner", ""), nil, -1)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "data_owner", verr.Field)
}

func TestValidateTimelineRule(t *testing.T) {
	policy := testPolicy(t)

	record := validRecord().
		Set("timeline_year", "2026").
		Set("timeline_month", "").
		Set("timeline_quarter", "")
	err := policy.Validate(record, nil, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t,
		"If 'timeline_year' is provided, either 'timeline_month' or 'timeline_quarter' must be filled.",
		err.Error())

	assert.NoError(t, policy.Validate(record.Set("timeline_quarter", "Q1"), nil, -1))
	assert.NoError(t, policy.Validate(validRecord().Set("timeline_year", "2026").Set("timeline_month", "January"), nil, -1))

	placeholderYear := validRecord().Set("timeline_year", NoSelection)
	assert.NoError(t, policy.Validate(placeholderYear, nil, -1), "placeholder year counts as empty")
}

func TestValidateTicketFormat(t *testing.T) {
	policy := testPolicy(t)

	testCases := []struct {
		ticket string
		valid  bool
	}{
		{"MDAR-1234", true},
		{"MDAR-1", true},
		{"MDAR-12A4", false},
		{"MDAR1234", false},
		{"MDAR- 1234", false},
		{"mdar-1234", false},
		{"XMDAR-1234", false},
	}

	for _, tc := range testCases {
		t.Run(tc.ticket, func(t *testing.T) {
			err := policy.Validate(validRecord().Set("ticket", tc.ticket), nil, -1)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), "Invalid ticket format")
		})
	}
}

func TestTicketFormatTrimsBeforeMatching(t *testing.T) {
	rule := masterfileProfile(t).Pattern
	assert.False(t, rule.Matches(" MDAR-12 34"), "internal spaces survive trimming")
	assert.True(t, rule.Matches(" MDAR-1234"))

	policy := testPolicy(t)
	value, _ := policy.Coerce(domain.ColumnDescriptor{Name: "ticket", DeclaredType: "string"}, " MDAR-1234 ")
	assert.Equal(t, "MDAR-1234", value, "ticket is stored trimmed")
}

func TestValidateDuplicateTicket(t *testing.T) {
	policy := testPolicy(t)
	snapshot := snapshotWithTickets("MDAR-1", " MDAR-100 ")

	err := policy.Validate(validRecord().Set("ticket", "mdar-100"), snapshot, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.False(t, errors.Is(err, ErrValidation), "duplicates are a distinct error")

	err = policy.Validate(validRecord().Set("ticket", "MDAR-100"), snapshot, -1)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	// duplicate check runs before the mandatory checks
	err = policy.Validate(validRecord().Set("ticket", "MDAR-1").Set("data_owner", ""), snapshot, -1)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	// editing row 1 may keep its own ticket
	assert.NoError(t, policy.Validate(validRecord().Set("ticket", "MDAR-100"), snapshot, 1))
	err = policy.Validate(validRecord().Set("ticket", "MDAR-1"), snapshot, 1)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestValidateWithoutRules(t *testing.T) {
	policy := &Policy{Profile: &config.Profile{Name: "plain", Table: "t"}, Now: time.Now}

	err := policy.Validate(Record{{Column: "a", Value: "x"}, {Column: "b", Value: ""}}, nil, -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'b'")

	assert.NoError(t, policy.Validate(Record{{Column: "a", Value: false}, {Column: "b", Value: int64(0)}}, nil, -1),
		"false and zero are values, not empty")
}
