package sources

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvReader selects the environment variables that start with Prefix + "_".
type EnvReader struct {
	Prefix string
}

// Read takes settings from a snapshot of the process environment in
// KEY=value form. A nil environ reads os.Environ.
func (r EnvReader) Read(environ []string) Map {
	if environ == nil {
		environ = os.Environ()
	}
	lead := r.Prefix + "_"
	out := Map{}
	for name, value := range env.ToMap(environ) {
		if r.Prefix == "" || !strings.HasPrefix(name, lead) {
			continue
		}
		key := SettingName(strings.TrimPrefix(name, lead))
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// VariableName is the inverse of SettingName for a given prefix:
// ("HELLO_WORLD", "dbName") gives "HELLO_WORLD_DB_NAME".
func VariableName(prefix, setting string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	for i, c := range setting {
		if c >= 'A' && c <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		if c == '.' {
			c = '_'
		}
		b.WriteRune(c)
	}
	return strings.ToUpper(b.String())
}

// SettingName converts the remainder of a variable name to the setting name:
// DB_NAME becomes dbName, HTTPS_PORT becomes httpsPort.
func SettingName(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
