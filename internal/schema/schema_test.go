package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/sources"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("test", sources.Map{"dbPort": "5432"},
		Field{Name: "env", Type: String, Constraints: []Constraint{MinLength(1), OneOf("development", "production")}},
		Field{Name: "hostName", Type: OptionalString, Fallback: "127.0.0.1"},
		Field{Name: "httpPort", Type: Int, Constraints: []Constraint{Range(1, 65535)}},
		Field{Name: "dbPort", Type: Int, Constraints: []Constraint{Range(0, 65535)}},
		Field{Name: "dbName", Type: String, Constraints: []Constraint{Length(2, 20)}},
		Field{Name: "wipeDatabase", Type: Bool},
		Field{Name: "adminPassword", Type: OptionalString, Secret: true},
		Field{Name: "tags", Type: StringSet, Constraints: []Constraint{Size(0, 3)}},
	)
	require.NoError(t, err)
	return s
}

// ── Schema table ──

func TestNew_RejectsInconsistentTables(t *testing.T) {
	tests := []struct {
		name     string
		defaults sources.Map
		fields   []Field
	}{
		{"empty name", nil, []Field{{Type: String}}},
		{"duplicate", nil, []Field{{Name: "a", Type: Int}, {Name: "a", Type: Int}}},
		{"no type", nil, []Field{{Name: "a"}}},
		{"range on string", nil, []Field{{Name: "a", Type: String, Constraints: []Constraint{Range(1, 2)}}}},
		{"length on int", nil, []Field{{Name: "a", Type: Int, Constraints: []Constraint{Length(1, 2)}}}},
		{"inverted bounds", nil, []Field{{Name: "a", Type: Int, Constraints: []Constraint{Range(5, 1)}}}},
		{"empty oneof", nil, []Field{{Name: "a", Type: String, Constraints: []Constraint{OneOf()}}}},
		{"oneof with comma", nil, []Field{{Name: "a", Type: String, Constraints: []Constraint{OneOf("a,b")}}}},
		{"fallback on int", nil, []Field{{Name: "a", Type: Int, Fallback: "1"}}},
		{"undeclared default", sources.Map{"b": "1"}, []Field{{Name: "a", Type: Int}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("bad", tc.defaults, tc.fields...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSchema))
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew("bad", nil, Field{Name: "a"}) })
}

func TestFieldRequired(t *testing.T) {
	s := testSchema(t)
	want := map[string]bool{
		"env":           true,
		"hostName":      false,
		"httpPort":      true,
		"dbPort":        false,
		"dbName":        true,
		"wipeDatabase":  false,
		"adminPassword": false,
		"tags":          false,
	}
	for _, f := range s.Fields() {
		assert.Equal(t, want[f.Name], f.Required(), f.Name)
	}
}

func TestSchemaAccessors(t *testing.T) {
	s := testSchema(t)
	assert.Equal(t, "test", s.Name())
	assert.False(t, s.IsStrict())
	assert.True(t, s.Strict().IsStrict())
	assert.False(t, s.IsStrict(), "Strict must not modify the receiver")

	_, ok := s.Field("dbName")
	assert.True(t, ok)
	_, ok = s.Field("nope")
	assert.False(t, ok)

	d := s.Defaults()
	d["dbPort"] = "1"
	assert.Equal(t, "5432", s.Defaults()["dbPort"])

	assert.Equal(t, []string{"extra", "zzz"}, s.UnknownKeys(sources.Map{"zzz": "", "extra": "", "dbName": ""}))
}

// ── Bind ──

func validSettings() sources.Map {
	return sources.Map{
		"env":      "production",
		"httpPort": "8080",
		"dbPort":   "5432",
		"dbName":   "main",
	}
}

func TestBind_Success(t *testing.T) {
	s := testSchema(t)
	m := validSettings()
	m["wipeDatabase"] = "TRUE"
	m["tags"] = " b, a ,,b "
	m["adminPassword"] = "hunter2"

	in, err := Bind(s, m)
	require.NoError(t, err)

	assert.Equal(t, "production", in.String("env"))
	assert.Equal(t, 8080, in.Int("httpPort"))
	assert.Equal(t, 5432, in.Int("dbPort"))
	assert.True(t, in.Bool("wipeDatabase"))
	assert.Equal(t, []string{"a", "b"}, in.Set("tags"))
	assert.Equal(t, "127.0.0.1", in.String("hostName"), "fallback applies to absent optional")

	pw, ok := in.OptionalString("adminPassword")
	assert.True(t, ok)
	assert.Equal(t, "hunter2", pw)
}

func TestBind_AbsentOptionalFields(t *testing.T) {
	in, err := Bind(testSchema(t), validSettings())
	require.NoError(t, err)

	_, ok := in.OptionalString("adminPassword")
	assert.False(t, ok)
	assert.False(t, in.Has("wipeDatabase"))
	assert.False(t, in.Bool("wipeDatabase"))
	assert.Empty(t, in.Set("tags"))
}

func TestBind_CollectsEveryViolation(t *testing.T) {
	m := sources.Map{
		"httpPort":     "70000",
		"dbPort":       "abc",
		"dbName":       "x",
		"env":          "staging",
		"wipeDatabase": "maybe",
		"tags":         "a,b,c,d",
	}
	in, err := Bind(testSchema(t), m)
	require.Error(t, err)
	assert.Nil(t, in)
	assert.True(t, errors.Is(err, configerr.ErrValidation))

	set, ok := Violations(err)
	require.True(t, ok)
	assert.Equal(t, []string{"env", "httpPort", "dbPort", "dbName", "wipeDatabase", "tags"}, set.Fields())

	kinds := map[string]ViolationKind{}
	for _, v := range set.Violations {
		kinds[v.Field] = v.Kind
	}
	assert.Equal(t, map[string]ViolationKind{
		"env":          ViolationOneOf,
		"httpPort":     ViolationRange,
		"dbPort":       ViolationType,
		"dbName":       ViolationLength,
		"wipeDatabase": ViolationType,
		"tags":         ViolationSize,
	}, kinds)
	assert.Contains(t, set.Error(), "httpPort")
}

func TestBind_RequiredAndRangeTogether(t *testing.T) {
	s := MustNew("ports", nil,
		Field{Name: "httpPort", Type: Int, Constraints: []Constraint{Range(1, 65535)}},
		Field{Name: "httpsPort", Type: Int, Constraints: []Constraint{Range(1, 65535)}},
	)
	_, err := Bind(s, sources.Map{"httpsPort": "0"})
	set, ok := Violations(err)
	require.True(t, ok)
	require.Len(t, set.Violations, 2)
	assert.Equal(t, ViolationRequired, set.For("httpPort")[0].Kind)
	assert.Equal(t, ViolationRange, set.For("httpsPort")[0].Kind)
}

func TestBind_EmptyStringIsPresent(t *testing.T) {
	m := validSettings()
	m["dbName"] = ""

	_, err := Bind(testSchema(t), m)
	set, ok := Violations(err)
	require.True(t, ok)
	assert.Equal(t, ViolationLength, set.For("dbName")[0].Kind)
}

func TestBind_InvalidUTF8IsTypeViolation(t *testing.T) {
	m := validSettings()
	m["dbName"] = "a\xffb"
	m["tags"] = "ok,\xfe"

	_, err := Bind(testSchema(t), m)
	set, ok := Violations(err)
	require.True(t, ok)
	assert.Equal(t, []string{"dbName", "tags"}, set.Fields())
	for _, v := range set.Violations {
		assert.Equal(t, ViolationType, v.Kind)
	}
}

func TestBind_LengthCountsCharacters(t *testing.T) {
	m := validSettings()
	m["dbName"] = "日本"

	_, err := Bind(testSchema(t), m)
	require.NoError(t, err)
}

func TestBind_UnknownKeys(t *testing.T) {
	s := testSchema(t)
	m := validSettings()
	m["colour"] = "blue"

	_, err := Bind(s, m)
	require.NoError(t, err)

	_, err = Bind(s.Strict(), m)
	set, ok := Violations(err)
	require.True(t, ok)
	assert.Equal(t, []string{"colour"}, set.Fields())
	assert.Equal(t, ViolationUnknown, set.Violations[0].Kind)
}

func TestBind_OneOfOnSetElements(t *testing.T) {
	s := MustNew("sets", nil, Field{Name: "modes", Type: StringSet, Constraints: []Constraint{OneOf("read", "write")}})

	_, err := Bind(s, sources.Map{"modes": "read,write"})
	require.NoError(t, err)

	_, err = Bind(s, sources.Map{"modes": "read,exec"})
	set, ok := Violations(err)
	require.True(t, ok)
	assert.Equal(t, ViolationOneOf, set.Violations[0].Kind)
}

func TestBind_OneOfWithSpaces(t *testing.T) {
	s := MustNew("spaces", nil, Field{Name: "greeting", Type: String, Constraints: []Constraint{OneOf("hello world", "hi")}})

	_, err := Bind(s, sources.Map{"greeting": "hello world"})
	require.NoError(t, err)
	_, err = Bind(s, sources.Map{"greeting": "hello"})
	require.Error(t, err)
}

// ── Instance ──

func TestInstanceAccessorsPanicOnMisuse(t *testing.T) {
	in, err := Bind(testSchema(t), validSettings())
	require.NoError(t, err)

	assert.Panics(t, func() { in.String("nope") })
	assert.Panics(t, func() { in.Int("dbName") })
	assert.Panics(t, func() { in.Bool("httpPort") })
	assert.Panics(t, func() { in.Set("env") })
}

func TestInstanceSetIsCopied(t *testing.T) {
	m := validSettings()
	m["tags"] = "a,b"
	in, err := Bind(testSchema(t), m)
	require.NoError(t, err)

	tags := in.Set("tags")
	tags[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, in.Set("tags"))
}

func TestInstanceEqualAndValues(t *testing.T) {
	s := testSchema(t)
	a, err := Bind(s, validSettings())
	require.NoError(t, err)
	b, err := Bind(s, validSettings())
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	m := validSettings()
	m["dbName"] = "other"
	c, err := Bind(s, m)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))

	assert.Equal(t, sources.Map{
		"env":      "production",
		"hostName": "127.0.0.1",
		"httpPort": "8080",
		"dbPort":   "5432",
		"dbName":   "main",
	}, a.Values())
}
