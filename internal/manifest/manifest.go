// Package manifest parses YAML files of named table views.
//
// A view is either a raw pipeline query or a structured description
// (columns, filters, sorts, limit) compiled to one:
//
//	version: 1
//	default: busy
//	views:
//	  - name: all
//	  - name: busy
//	    filters:
//	      - property: state
//	        operator: equals
//	        value: running
//	    sorts:
//	      - property: progress
//	        direction: desc
//	    columns:
//	      - property: id
//	      - property: progress
//	    limit: 10
//	  - name: raw
//	    query: sort -cpu; limit 5
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maruel/livetable/query"
	"gopkg.in/yaml.v3"
)

// Manifest is the content of a view manifest file.
type Manifest struct {
	Version int          `yaml:"version"`
	Default string       `yaml:"default,omitempty"`
	Views   []ViewConfig `yaml:"views"`
}

// ViewConfig defines a single view.
type ViewConfig struct {
	Name string `yaml:"name"`
	// Query is raw pipeline query text. It excludes the structured fields.
	Query   string         `yaml:"query,omitempty"`
	Columns []ColumnConfig `yaml:"columns,omitempty"`
	Filters []FilterConfig `yaml:"filters,omitempty"`
	Sorts   []SortConfig   `yaml:"sorts,omitempty"`
	Limit   int            `yaml:"limit,omitempty"`
}

// ColumnConfig selects a column.
type ColumnConfig struct {
	Property string `yaml:"property"`
	Visible  *bool  `yaml:"visible,omitempty"` // nil means visible
}

// SortConfig defines a sort criterion.
type SortConfig struct {
	Property  string `yaml:"property"`
	Direction string `yaml:"direction,omitempty"` // "asc" (default) or "desc"
}

// FilterConfig defines a filter condition. And and Or are exclusive with
// Property, Operator and Value and only support comparison operators.
type FilterConfig struct {
	Property string         `yaml:"property,omitempty"`
	Operator string         `yaml:"operator,omitempty"`
	Value    any            `yaml:"value,omitempty"`
	And      []FilterConfig `yaml:"and,omitempty"`
	Or       []FilterConfig `yaml:"or,omitempty"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified manifest path
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that the manifest is valid and that every view compiles
// to a query the pipeline engine accepts.
func (m *Manifest) Validate() error {
	if m.Version != 1 {
		return fmt.Errorf("unsupported manifest version: %d", m.Version)
	}
	seen := map[string]bool{}
	eng := query.NewPipeline(nil)
	for i := range m.Views {
		v := &m.Views[i]
		if v.Name == "" {
			return fmt.Errorf("view %d: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("view %q: duplicate name", v.Name)
		}
		seen[v.Name] = true
		q, err := v.Compile()
		if err != nil {
			return fmt.Errorf("view %q: %w", v.Name, err)
		}
		if _, err := eng.Parse(q); err != nil {
			return fmt.Errorf("view %q: %w", v.Name, err)
		}
	}
	if m.Default != "" && !seen[m.Default] {
		return fmt.Errorf("default view %q is not defined", m.Default)
	}
	return nil
}

// Names returns the view names in file order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Views))
	for i := range m.Views {
		names[i] = m.Views[i].Name
	}
	return names
}

// View returns the named view. An empty name selects the default view, or
// the first one when there is no default.
func (m *Manifest) View(name string) (*ViewConfig, error) {
	if name == "" {
		name = m.Default
	}
	if name == "" && len(m.Views) > 0 {
		return &m.Views[0], nil
	}
	for i := range m.Views {
		if m.Views[i].Name == name {
			return &m.Views[i], nil
		}
	}
	return nil, fmt.Errorf("view %q not found", name)
}

// Query returns the query text of the named view, see View.
func (m *Manifest) Query(name string) (string, error) {
	v, err := m.View(name)
	if err != nil {
		return "", err
	}
	return v.Compile()
}

// Compile returns the pipeline query text of the view.
//
// Statements are emitted in this order: filters, sorts, columns, limit.
func (v *ViewConfig) Compile() (string, error) {
	structured := len(v.Columns) > 0 || len(v.Filters) > 0 || len(v.Sorts) > 0 || v.Limit != 0
	if v.Query != "" {
		if structured {
			return "", errors.New("query excludes columns, filters, sorts and limit")
		}
		return v.Query, nil
	}
	var lines []string
	for i := range v.Filters {
		l, err := compileFilter(&v.Filters[i])
		if err != nil {
			return "", fmt.Errorf("filter %d: %w", i, err)
		}
		lines = append(lines, l)
	}
	if len(v.Sorts) > 0 {
		keys := make([]string, len(v.Sorts))
		for i, s := range v.Sorts {
			if s.Property == "" {
				return "", fmt.Errorf("sort %d: property is required", i)
			}
			switch strings.ToLower(s.Direction) {
			case "", "asc":
				keys[i] = quote(s.Property)
			case "desc":
				if quote(s.Property) != s.Property {
					return "", fmt.Errorf("sort %d: cannot sort %q in descending order", i, s.Property)
				}
				keys[i] = "-" + s.Property
			default:
				return "", fmt.Errorf("sort %d: invalid direction %q", i, s.Direction)
			}
		}
		lines = append(lines, "sort "+strings.Join(keys, " "))
	}
	var cols []string
	for i, c := range v.Columns {
		if c.Property == "" {
			return "", fmt.Errorf("column %d: property is required", i)
		}
		if c.Visible == nil || *c.Visible {
			cols = append(cols, quote(c.Property))
		}
	}
	if len(cols) > 0 {
		lines = append(lines, "select "+strings.Join(cols, " "))
	}
	if v.Limit < 0 {
		return "", fmt.Errorf("invalid limit %d", v.Limit)
	}
	if v.Limit > 0 {
		lines = append(lines, "limit "+strconv.Itoa(v.Limit))
	}
	return strings.Join(lines, "\n"), nil
}

func compileFilter(f *FilterConfig) (string, error) {
	if len(f.And) > 0 || len(f.Or) > 0 {
		doc, err := filterDoc(f)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return "", err
		}
		return "match " + string(b), nil
	}
	if f.Property == "" {
		return "", errors.New("property is required")
	}
	if f.Operator == "" {
		return "", errors.New("operator is required")
	}
	switch f.Operator {
	case "is_empty", "is_not_empty":
		return fmt.Sprintf("filter %s %s", quote(f.Property), f.Operator), nil
	}
	if f.Value == nil {
		return "", fmt.Errorf("operator %s requires a value", f.Operator)
	}
	return fmt.Sprintf("filter %s %s %s", quote(f.Property), f.Operator, literal(f.Value)), nil
}

var docOps = map[string]string{
	"equals":     "$eq",
	"not_equals": "$ne",
	"gt":         "$gt",
	"gte":        "$ge",
	"lt":         "$lt",
	"lte":        "$le",
}

// filterDoc converts a filter tree to a document filter for the match
// statement.
func filterDoc(f *FilterConfig) (map[string]any, error) {
	if len(f.And) > 0 && len(f.Or) > 0 {
		return nil, errors.New("and and or are exclusive")
	}
	if len(f.And) > 0 || len(f.Or) > 0 {
		op, subs := "$and", f.And
		if len(f.Or) > 0 {
			op, subs = "$or", f.Or
		}
		list := make([]any, len(subs))
		for i := range subs {
			d, err := filterDoc(&subs[i])
			if err != nil {
				return nil, err
			}
			list[i] = d
		}
		return map[string]any{op: list}, nil
	}
	if f.Property == "" {
		return nil, errors.New("property is required")
	}
	op, ok := docOps[f.Operator]
	if !ok {
		return nil, fmt.Errorf("operator %q is not supported in and/or filters", f.Operator)
	}
	return map[string]any{f.Property: map[string]any{op: f.Value}}, nil
}

// quote quotes a column name when the lexer would not read it back as a
// single word.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n;\"#{") {
		return strconv.Quote(s)
	}
	return s
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return quote(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
