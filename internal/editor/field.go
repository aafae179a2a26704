// internal/editor/field.go
package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/domain"
)

// NoSelection is the placeholder option of an add-mode dropdown.
const NoSelection = "-- Select --"

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	timestampHelp   = "Format: YYYY-MM-DD HH:MM:SS"
	multilineHelp   = "Supports multi-line text with line breaks and paragraphs"
)

// Mode selects whether a form creates a record or edits an existing one.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// ParseMode accepts "add" or "edit".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAdd, ModeEdit:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Control names understood by form clients.
const (
	ControlNumber   = "number"
	ControlCheckbox = "checkbox"
	ControlDate     = "date"
	ControlText     = "text"
	ControlTextArea = "textarea"
	ControlSelect   = "select"
)

// Field describes one rendered input control and its seeded value.
type Field struct {
	Name         string    `json:"name"`
	DeclaredType string    `json:"declared_type"`
	Kind         FieldKind `json:"kind"`
	Label        string    `json:"label"`
	Control      string    `json:"control"`
	Value        any       `json:"value"`
	Options      []string  `json:"options,omitempty"`
	Index        int       `json:"index"`
	Step         float64   `json:"step,omitempty"`
	Help         string    `json:"help,omitempty"`
	MaxChars     int       `json:"max_chars,omitempty"`
	Required     bool      `json:"required"`
	Warning      string    `json:"warning,omitempty"`
}

// Policy is a profile's rendering and validation rules.
type Policy struct {
	Profile *config.Profile
	Now     func() time.Time
}

// NewPolicy wraps a profile with the wall clock.
func NewPolicy(p *config.Profile) *Policy {
	return &Policy{Profile: p, Now: time.Now}
}

// Form renders every schema column in display order. row is nil in add mode.
func (p *Policy) Form(schema *domain.TableSchema, mode Mode, row domain.Row) []Field {
	fields := make([]Field, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		var current any
		if row != nil {
			current = row[col.Name]
		}
		fields = append(fields, p.RenderField(col, mode, current))
	}
	return fields
}

// RenderField builds the control for one column seeded from current.
func (p *Policy) RenderField(col domain.ColumnDescriptor, mode Mode, current any) Field {
	f := Field{
		Name:         col.Name,
		DeclaredType: col.DeclaredType,
		Kind:         Classify(col.DeclaredType),
		Label:        fmt.Sprintf("%s (%s)", col.Name, col.DeclaredType),
		Required:     !p.Profile.IsOptional(col.Name),
	}

	if rule, ok := p.Profile.PatternFor(col.Name); ok {
		value := strings.TrimSpace(textValue(current))
		f.Control = ControlText
		f.Value = value
		f.MaxChars = rule.MaxChars
		f.Help = rule.Help
		if value != "" && !rule.Matches(value) {
			f.Warning = patternMessage(col.Name, value, rule)
		}
		return f
	}

	if options, ok := p.Profile.DropdownFor(col.Name); ok {
		if mode == ModeAdd {
			options = append([]string{NoSelection}, options...)
		}
		f.Control = ControlSelect
		f.Options = options
		f.Index = indexOf(options, textValue(current))
		f.Value = options[f.Index]
		return f
	}

	switch f.Kind {
	case KindInteger:
		n, ok := seedInt(current)
		f.Control, f.Value, f.Step = ControlNumber, n, 1
		if !ok {
			f.Warning = fallbackWarning(col.Name, current)
		}
	case KindFloat:
		n, ok := seedFloat(current)
		f.Control, f.Value, f.Step = ControlNumber, n, 0.01
		if !ok {
			f.Warning = fallbackWarning(col.Name, current)
		}
	case KindBoolean:
		f.Control, f.Value = ControlCheckbox, truthy(current)
	case KindDate:
		// never seeded from the stored value, a date picker opens on today
		f.Control, f.Value = ControlDate, p.Now().Format(dateLayout)
	case KindTimestamp:
		f.Control, f.Value, f.Help = ControlText, textValue(current), timestampHelp
	default:
		f.Control, f.Value = ControlText, textValue(current)
		if p.Profile.IsMultiline(col.Name) {
			f.Control, f.Help = ControlTextArea, multilineHelp
		}
	}
	return f
}

// Coerce converts one submitted value to its column's representation.
// A non-empty warning reports a lossy conversion.
func (p *Policy) Coerce(col domain.ColumnDescriptor, raw any) (any, string) {
	if _, ok := p.Profile.PatternFor(col.Name); ok {
		if isBlank(raw) {
			return nil, ""
		}
		return strings.TrimSpace(textValue(raw)), ""
	}
	if _, ok := p.Profile.DropdownFor(col.Name); ok {
		if raw == nil {
			return nil, ""
		}
		return textValue(raw), ""
	}

	switch Classify(col.DeclaredType) {
	case KindInteger:
		if isBlank(raw) {
			return nil, ""
		}
		n, ok := seedInt(raw)
		if !ok {
			return n, fallbackWarning(col.Name, raw)
		}
		if f, isFloat := raw.(float64); isFloat && f != math.Trunc(f) {
			return n, fmt.Sprintf("Value %v for '%s' was truncated to %d", f, col.Name, n)
		}
		return n, ""
	case KindFloat:
		if isBlank(raw) {
			return nil, ""
		}
		n, ok := seedFloat(raw)
		if !ok {
			return n, fallbackWarning(col.Name, raw)
		}
		return n, ""
	case KindBoolean:
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return false, fmt.Sprintf("Could not read '%s' for '%s' as a boolean; using false", s, col.Name)
			}
			return b, ""
		}
		return truthy(raw), ""
	case KindDate:
		if isBlank(raw) {
			return nil, ""
		}
		if t, ok := raw.(time.Time); ok {
			return t.Format(dateLayout), ""
		}
		s := strings.TrimSpace(textValue(raw))
		if _, err := time.Parse(dateLayout, s); err != nil {
			return s, fmt.Sprintf("Value '%s' for '%s' is not a YYYY-MM-DD date", s, col.Name)
		}
		return s, ""
	case KindTimestamp:
		// passed through unchecked
		if isBlank(raw) {
			return nil, ""
		}
		return textValue(raw), ""
	default:
		if raw == nil {
			return nil, ""
		}
		return textValue(raw), ""
	}
}

func seedInt(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string, []byte:
		s := strings.TrimSpace(textValue(n))
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func seedFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string, []byte:
		s := strings.TrimSpace(textValue(n))
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// truthy coerces a stored value to a checkbox state; nil and "" are false.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case string, []byte:
		s := strings.TrimSpace(textValue(b))
		if s == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
		return true
	}
	return true
}

// textValue renders a stored value as the text a form shows; nil is "".
func textValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(timestampLayout)
	}
	return fmt.Sprint(v)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// indexOf finds value among options, defaulting to the first option.
func indexOf(options []string, value string) int {
	if value == "" {
		return 0
	}
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return 0
}

func fallbackWarning(column string, value any) string {
	return fmt.Sprintf("Could not read '%v' for '%s' as a number; using 0", value, column)
}

func patternMessage(column, value string, rule *config.PatternRule) string {
	help := rule.Help
	if help == "" {
		help = fmt.Sprintf("Must match %s", rule.Regex)
	}
	return fmt.Sprintf("Invalid %s format: '%s'. %s", column, value, help)
}
