// Package environment resolves the deployment environment a process runs in.
// The environment is decided before any configuration file is read because it
// selects which overlay file applies.
package environment

import (
	"strings"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

// Key is the setting name that carries the environment selector.
const Key = "env"

// Environment is one of a closed set of deployment environments.
type Environment uint8

const (
	// Unset is the zero value and never a valid resolution.
	Unset Environment = iota
	Development
	Test
	Staging
	Production
)

var names = map[Environment]string{
	Development: "development",
	Test:        "test",
	Staging:     "staging",
	Production:  "production",
}

var aliases = map[string]Environment{
	"development": Development,
	"dev":         Development,
	"test":        Test,
	"staging":     Staging,
	"stage":       Staging,
	"production":  Production,
	"prod":        Production,
}

// All returns every valid environment in declaration order.
func All() []Environment {
	return []Environment{Development, Test, Staging, Production}
}

// Names returns the canonical names of every valid environment.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.String()
	}
	return out
}

// String returns the canonical lower-case name.
func (e Environment) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return "unset"
}

// Valid reports whether e is one of the known environments.
func (e Environment) Valid() bool {
	_, ok := names[e]
	return ok
}

// Parse maps a token onto an Environment. Matching ignores case and
// surrounding whitespace and accepts the short aliases dev, stage and prod.
func Parse(token string) (Environment, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if e, ok := aliases[key]; ok {
		return e, nil
	}
	return Unset, configerr.Newf(configerr.KindConfiguration, "resolve environment",
		"unknown environment %q (expected one of %s)", token, strings.Join(Names(), ", "))
}
