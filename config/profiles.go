package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Annany2002/nebula-forms/internal/core"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
)

var profileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// TimelineRule requires Month or Quarter whenever Year is filled.
type TimelineRule struct {
	Year    string `yaml:"year" validate:"required"`
	Month   string `yaml:"month" validate:"required"`
	Quarter string `yaml:"quarter" validate:"required"`
}

// PatternRule anchors a text column to a regular expression, e.g. ticket ids.
type PatternRule struct {
	Column   string `yaml:"column" validate:"required"`
	Regex    string `yaml:"regex" validate:"required"`
	MaxChars int    `yaml:"max_chars" validate:"gte=0"`
	Help     string `yaml:"help"`

	compiled *regexp.Regexp
}

// Matches reports whether the trimmed value fully matches the rule.
func (p *PatternRule) Matches(value string) bool {
	return p.compiled.MatchString(strings.TrimSpace(value))
}

// Connection describes an external HTTP endpoint reachable from a session.
type Connection struct {
	BaseURL  string `yaml:"base_url" validate:"required,url"`
	TokenEnv string `yaml:"token_env"`
}

// Profile is one editor page: a table, its backend and its validation policy.
type Profile struct {
	Name     string `yaml:"name" validate:"required,max=64"`
	Title    string `yaml:"title"`
	Driver   string `yaml:"driver" validate:"required,oneof=sqlite3 pgx mysql"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Path     string `yaml:"path"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	TokenEnv string `yaml:"token_env"`

	Table     string `yaml:"table" validate:"required"`
	KeyColumn string `yaml:"key_column"`
	RowLimit  int    `yaml:"row_limit" validate:"gte=0"`

	Dropdowns       map[string][]string `yaml:"dropdowns"`
	OptionalFields  []string            `yaml:"optional_fields"`
	MultilineFields []string            `yaml:"multiline_fields"`
	Timeline        *TimelineRule       `yaml:"timeline"`
	Pattern         *PatternRule        `yaml:"pattern"`
	AllowMultiRow   bool                `yaml:"allow_multi_row"`
	ReadOnly        bool                `yaml:"read_only"`

	Connection *Connection `yaml:"connection"`
}

// Summary is the public view of a profile, without credentials or host details.
type Summary struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Driver        string `json:"driver"`
	Table         string `json:"table"`
	ReadOnly      bool   `json:"read_only"`
	HasConnection bool   `json:"has_connection"`
}

func (p *Profile) Summary() Summary {
	return Summary{
		Name:          p.Name,
		Title:         p.Title,
		Driver:        p.Driver,
		Table:         p.Table,
		ReadOnly:      p.ReadOnly,
		HasConnection: p.Connection != nil,
	}
}

// IsOptional reports whether column may be left empty.
func (p *Profile) IsOptional(column string) bool {
	return containsFold(p.OptionalFields, column)
}

// IsMultiline reports whether column renders as a text area.
func (p *Profile) IsMultiline(column string) bool {
	return containsFold(p.MultilineFields, column)
}

// DropdownFor returns the enumerated domain for column, if any.
func (p *Profile) DropdownFor(column string) ([]string, bool) {
	opts, ok := p.Dropdowns[column]
	return opts, ok && len(opts) > 0
}

// PatternFor returns the pattern rule when it governs column.
func (p *Profile) PatternFor(column string) (*PatternRule, bool) {
	if p.Pattern == nil || !strings.EqualFold(p.Pattern.Column, column) {
		return nil, false
	}
	return p.Pattern, true
}

// Password resolves the backend credential from the environment.
func (p *Profile) Password() string {
	if p.TokenEnv == "" {
		return ""
	}
	return os.Getenv(p.TokenEnv)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// Profiles is the loaded set of editor profiles, keyed by name.
type Profiles struct {
	byName map[string]*Profile
}

type profilesFile struct {
	Profiles []*Profile `yaml:"profiles" validate:"required,min=1,dive"`
}

// LoadProfiles reads and validates the YAML profile file at path.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file %s: %w", path, err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates profile YAML.
func ParseProfiles(data []byte) (*Profiles, error) {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	validate := validator.New()
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	set, err := NewProfiles(file.Profiles...)
	if err != nil {
		return nil, err
	}
	customLog.Printf("Config: loaded %d editor profiles", len(set.byName))
	return set, nil
}

// NewProfiles validates and indexes profiles by name.
func NewProfiles(profiles ...*Profile) (*Profiles, error) {
	set := &Profiles{byName: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile name %s", ErrInvalidProfile, p.Name)
		}
		set.byName[p.Name] = p
	}
	return set, nil
}

// Validate checks a profile built in code the same way LoadProfiles checks a file entry.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.prepare(); err != nil {
		return fmt.Errorf("%w: profile %s: %v", ErrInvalidProfile, p.Name, err)
	}
	return nil
}

// prepare checks cross-field rules the struct tags cannot express.
func (p *Profile) prepare() error {
	if !profileNameRegex.MatchString(p.Name) {
		return fmt.Errorf("name %q may only contain letters, digits, '-' and '_'", p.Name)
	}
	if !core.IsValidTableName(p.Table) {
		return fmt.Errorf("table %q is not a valid table reference", p.Table)
	}
	if p.KeyColumn != "" && !core.IsValidIdentifier(p.KeyColumn) {
		return fmt.Errorf("key_column %q is not a valid identifier", p.KeyColumn)
	}
	switch p.Driver {
	case DriverSQLite:
		if p.Path == "" {
			return errors.New("sqlite3 profiles need a path")
		}
	case DriverPostgres, DriverMySQL:
		if p.Host == "" || p.Database == "" {
			return fmt.Errorf("%s profiles need host and database", p.Driver)
		}
	}
	if p.Pattern != nil {
		re, err := regexp.Compile(p.Pattern.Regex)
		if err != nil {
			return fmt.Errorf("pattern regex: %v", err)
		}
		p.Pattern.compiled = re
	}
	if p.Title == "" {
		p.Title = p.Name
	}
	return nil
}

// Get returns the named profile.
func (s *Profiles) Get(name string) (*Profile, error) {
	p, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// List returns all profiles sorted by name.
func (s *Profiles) List() []*Profile {
	out := make([]*Profile, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
