// Package schema declares typed, constrained configuration fields and binds
// a flat string mapping onto them. Binding is all or nothing: it either
// produces an immutable Instance or reports every violation at once.
package schema

import (
	"errors"
	"fmt"

	"github.com/ggranum/fetherbrik/internal/sources"
)

// ErrInvalidSchema is returned by New when the field table is inconsistent.
var ErrInvalidSchema = errors.New("invalid schema")

// Field declares one setting.
type Field struct {
	Name        string
	Type        Type
	Constraints []Constraint
	// Fallback is used for an absent OptionalString. Empty means none.
	Fallback string
	// Secret fields are masked when an Instance is encoded with redaction.
	Secret bool
	Help   string
}

// Required reports whether the field must be present: it is not optional
// and one of its constraints has a positive lower bound.
func (f Field) Required() bool {
	if f.Type == OptionalString || f.Type == Bool {
		return false
	}
	for _, c := range f.Constraints {
		if c.Kind != OneOfConstraint && c.Min > 0 {
			return true
		}
	}
	return false
}

// Schema is an ordered, immutable table of fields plus default values.
type Schema struct {
	name     string
	fields   []Field
	index    map[string]int
	defaults sources.Map
	strict   bool
}

// New checks the field table once and returns the schema. Defaults may only
// name declared fields.
func New(name string, defaults sources.Map, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:     name,
		fields:   make([]Field, 0, len(fields)),
		index:    make(map[string]int, len(fields)),
		defaults: defaults.Clone(),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w %s: field with empty name", ErrInvalidSchema, name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w %s: duplicate field %q", ErrInvalidSchema, name, f.Name)
		}
		if !f.Type.valid() {
			return nil, fmt.Errorf("%w %s: field %q has no type", ErrInvalidSchema, name, f.Name)
		}
		for _, c := range f.Constraints {
			if err := c.check(f.Type); err != nil {
				return nil, fmt.Errorf("%w %s: field %q: %v", ErrInvalidSchema, name, f.Name, err)
			}
		}
		if f.Fallback != "" && f.Type != OptionalString {
			return nil, fmt.Errorf("%w %s: field %q: fallback needs an optional string", ErrInvalidSchema, name, f.Name)
		}
		f.Constraints = append([]Constraint(nil), f.Constraints...)
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	for k := range s.defaults {
		if _, ok := s.index[k]; !ok {
			return nil, fmt.Errorf("%w %s: default for undeclared field %q", ErrInvalidSchema, name, k)
		}
	}
	return s, nil
}

// MustNew is New for package-level schema tables.
func MustNew(name string, defaults sources.Map, fields ...Field) *Schema {
	s, err := New(name, defaults, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Strict returns a copy of s that reports unknown settings as violations.
func (s *Schema) Strict() *Schema {
	c := *s
	c.strict = true
	return &c
}

// IsStrict reports whether unknown settings are violations.
func (s *Schema) IsStrict() bool { return s.strict }

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Defaults returns a copy of the built-in default values.
func (s *Schema) Defaults() sources.Map {
	return s.defaults.Clone()
}

// UnknownKeys returns the settings in m that no field declares, sorted.
func (s *Schema) UnknownKeys(m sources.Map) []string {
	var out []string
	for _, k := range m.Keys() {
		if _, ok := s.index[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
