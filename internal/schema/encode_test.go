package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggranum/fetherbrik/internal/sources"
)

func TestMarshalJSON5_Layout(t *testing.T) {
	m := validSettings()
	m["tags"] = "b,a"
	m["adminPassword"] = `p"w`
	in, err := Bind(testSchema(t), m)
	require.NoError(t, err)

	out, err := in.MarshalJSON5(false)
	require.NoError(t, err)

	want := "{\n" +
		"  env: \"production\",\n" +
		"  hostName: \"127.0.0.1\",\n" +
		"  httpPort: 8080,\n" +
		"  dbPort: 5432,\n" +
		"  dbName: \"main\",\n" +
		"  adminPassword: \"p\\\"w\",\n" +
		"  tags: [\"a\", \"b\"],\n" +
		"}\n"
	assert.Equal(t, want, string(out))
}

func TestMarshalJSON5_RoundTrip(t *testing.T) {
	s := testSchema(t)
	m := validSettings()
	m["tags"] = "x,y"
	m["wipeDatabase"] = "false"
	m["adminPassword"] = "s3cret, with comma"
	orig, err := Bind(s, m)
	require.NoError(t, err)

	out, err := orig.MarshalJSON5(false)
	require.NoError(t, err)

	parsed, err := sources.ParseJSON5(out)
	require.NoError(t, err)
	back, err := Bind(s, parsed)
	require.NoError(t, err)
	assert.True(t, orig.Equal(back), "round trip changed values:\n%s", out)
}

func TestMarshalJSON5_Redacts(t *testing.T) {
	m := validSettings()
	m["adminPassword"] = "hunter2"
	in, err := Bind(testSchema(t), m)
	require.NoError(t, err)

	out, err := in.MarshalJSON5(true)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), Redacted)
}

func TestMarshalJSON5_QuotesNonIdentifierNames(t *testing.T) {
	s := MustNew("dotted", nil, Field{Name: "db.name", Type: String, Constraints: []Constraint{MinLength(1)}})
	in, err := Bind(s, sources.Map{"db.name": "main"})
	require.NoError(t, err)

	out, err := in.MarshalJSON5(false)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"db.name\": \"main\",\n}\n", string(out))

	parsed, err := sources.ParseJSON5(out)
	require.NoError(t, err)
	assert.Equal(t, "main", parsed["db.name"])
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	s := testSchema(t)
	m := validSettings()
	m["tags"] = "x,y"
	m["wipeDatabase"] = "true"
	m["dbName"] = "007"
	m["adminPassword"] = "yes"
	orig, err := Bind(s, m)
	require.NoError(t, err)

	out, err := orig.EncodeYAML(false)
	require.NoError(t, err)
	assert.Contains(t, string(out), "httpPort: 8080\n")
	assert.Contains(t, string(out), "tags: [x, y]\n")

	parsed, err := sources.ParseYAML(out)
	require.NoError(t, err)
	back, err := Bind(s, parsed)
	require.NoError(t, err)
	assert.True(t, orig.Equal(back), "round trip changed values:\n%s", out)
}

func TestEncodeYAML_Redacts(t *testing.T) {
	m := validSettings()
	m["adminPassword"] = "hunter2"
	in, err := Bind(testSchema(t), m)
	require.NoError(t, err)

	out, err := in.EncodeYAML(true)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), Redacted)
}
