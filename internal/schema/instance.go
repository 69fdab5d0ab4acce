package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ggranum/fetherbrik/internal/sources"
)

// builder stages validated values before the Instance is frozen.
type builder struct {
	schema *Schema
	values map[string]any
}

func newBuilder(s *Schema) *builder {
	return &builder{schema: s, values: make(map[string]any, len(s.fields))}
}

func (b *builder) set(name string, v any) {
	b.values[name] = v
}

func (b *builder) build() *Instance {
	for _, f := range b.schema.fields {
		if _, ok := b.values[f.Name]; !ok && f.Fallback != "" {
			b.values[f.Name] = f.Fallback
		}
	}
	inst := &Instance{schema: b.schema, values: b.values}
	b.values = nil
	return inst
}

// Instance is a bound, validated configuration. It is never modified after
// Bind returns it and is safe for concurrent use.
//
// Accessors panic when asked for an undeclared field or with the wrong type;
// both are programming errors, not configuration errors.
type Instance struct {
	schema *Schema
	values map[string]any
}

// Schema returns the schema the instance was bound against.
func (in *Instance) Schema() *Schema { return in.schema }

// Has reports whether the field holds a value, from a source or a fallback.
func (in *Instance) Has(name string) bool {
	in.field(name)
	_, ok := in.values[name]
	return ok
}

// String returns a String or OptionalString field, or "" when absent.
func (in *Instance) String(name string) string {
	s, _ := in.OptionalString(name)
	return s
}

// OptionalString returns a text field and whether it is present.
func (in *Instance) OptionalString(name string) (string, bool) {
	in.expect(name, String, OptionalString)
	v, ok := in.values[name]
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Int returns an Int field, or 0 when absent.
func (in *Instance) Int(name string) int {
	in.expect(name, Int)
	v, _ := in.values[name].(int)
	return v
}

// Bool returns a Bool field, or false when absent.
func (in *Instance) Bool(name string) bool {
	in.expect(name, Bool)
	v, _ := in.values[name].(bool)
	return v
}

// Set returns a copy of a StringSet field in sorted order.
func (in *Instance) Set(name string) []string {
	in.expect(name, StringSet)
	v, _ := in.values[name].([]string)
	return append([]string{}, v...)
}

// Values renders every present field back to its flat string form.
func (in *Instance) Values() sources.Map {
	out := make(sources.Map, len(in.values))
	for name, v := range in.values {
		out[name] = render(v)
	}
	return out
}

// Equal reports whether both instances share a schema name and hold the
// same values.
func (in *Instance) Equal(other *Instance) bool {
	if in == nil || other == nil {
		return in == other
	}
	if in.schema.name != other.schema.name || len(in.values) != len(other.values) {
		return false
	}
	for name, v := range in.values {
		w, ok := other.values[name]
		if !ok {
			return false
		}
		switch a := v.(type) {
		case []string:
			b, ok := w.([]string)
			if !ok || !slices.Equal(a, b) {
				return false
			}
		default:
			if v != w {
				return false
			}
		}
	}
	return true
}

func (in *Instance) field(name string) Field {
	f, ok := in.schema.Field(name)
	if !ok {
		panic(fmt.Sprintf("schema %s: no field %q", in.schema.name, name))
	}
	return f
}

func (in *Instance) expect(name string, types ...Type) {
	f := in.field(name)
	if !slices.Contains(types, f.Type) {
		panic(fmt.Sprintf("schema %s: field %q is %s", in.schema.name, name, f.Type))
	}
}

func render(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(t)
	}
}
