// internal/editor/validate.go
package editor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Annany2002/nebula-forms/internal/domain"
)

// Validate applies the profile's rules to a coerced record. Checks run in
// this order and stop at the first failure: duplicate key, mandatory fields
// in schema order, dropdown membership, the timeline rule, the pattern format.
//
// exclude is the snapshot row being edited, or -1 in add mode.
func (p *Policy) Validate(record Record, snapshot *domain.RecordSnapshot, exclude int) error {
	if err := p.checkDuplicate(record, snapshot, exclude); err != nil {
		return err
	}

	for _, cv := range record {
		if p.Profile.IsOptional(cv.Column) {
			continue
		}
		if isEmpty(cv.Value) {
			return invalid(cv.Column, fmt.Sprintf("Field '%s' is mandatory and cannot be empty.", cv.Column))
		}
	}

	for _, cv := range record {
		options, ok := p.Profile.DropdownFor(cv.Column)
		if !ok || isEmpty(cv.Value) {
			continue
		}
		if value := textValue(cv.Value); !slices.Contains(options, value) {
			return invalid(cv.Column, fmt.Sprintf("Value '%s' for '%s' is not one of the allowed options.", value, cv.Column))
		}
	}

	if rule := p.Profile.Timeline; rule != nil {
		year, _ := record.Get(rule.Year)
		month, _ := record.Get(rule.Month)
		quarter, _ := record.Get(rule.Quarter)
		if !isEmpty(year) && isEmpty(month) && isEmpty(quarter) {
			return invalid(rule.Year, fmt.Sprintf(
				"If '%s' is provided, either '%s' or '%s' must be filled.", rule.Year, rule.Month, rule.Quarter))
		}
	}

	if rule := p.Profile.Pattern; rule != nil {
		if v, ok := record.Get(rule.Column); ok && !isEmpty(v) {
			value := strings.TrimSpace(textValue(v))
			if !rule.Matches(value) {
				return invalid(rule.Column, patternMessage(rule.Column, value, rule))
			}
		}
	}
	return nil
}

// checkDuplicate compares the trimmed pattern value case-insensitively with
// every other snapshot row.
func (p *Policy) checkDuplicate(record Record, snapshot *domain.RecordSnapshot, exclude int) error {
	rule := p.Profile.Pattern
	if rule == nil || snapshot == nil {
		return nil
	}
	v, ok := record.Get(rule.Column)
	if !ok || isEmpty(v) {
		return nil
	}
	candidate := strings.ToUpper(strings.TrimSpace(textValue(v)))

	for i, row := range snapshot.Rows {
		if i == exclude {
			continue
		}
		existing, ok := row[rule.Column]
		if !ok || existing == nil {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(textValue(existing))) == candidate {
			return duplicate(rule.Column, fmt.Sprintf(
				"%s '%s' already exists. Please add a new one or edit the existing record.",
				rule.Column, strings.TrimSpace(textValue(v))))
		}
	}
	return nil
}

// isEmpty is true for nil, blank text and the no-selection placeholder.
func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		t := strings.TrimSpace(s)
		return t == "" || t == NoSelection
	}
	return false
}
