package sources

import (
	"strings"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

const flagPrefix = "--"

// ParseCommandLine reads "--name value" pairs. Values have surrounding
// whitespace and quote characters removed. A flag with no value, a flag
// followed by another flag, and a stray value are malformed. When a flag
// repeats, the last value wins.
func ParseCommandLine(args []string) (Map, error) {
	const op = "read command line"

	out := Map{}
	for i := 0; i < len(args); i += 2 {
		tok := args[i]
		if !strings.HasPrefix(tok, flagPrefix) {
			return nil, configerr.Newf(configerr.KindMalformedInput, op,
				"unexpected startup parameter %q: settings are given as --name value", tok)
		}
		name := strings.TrimPrefix(tok, flagPrefix)
		if name == "" {
			return nil, configerr.New(configerr.KindMalformedInput, op, "empty flag name")
		}
		if i+1 >= len(args) {
			return nil, configerr.Newf(configerr.KindMalformedInput, op, "flag %q has no value", tok)
		}
		value := args[i+1]
		if strings.HasPrefix(value, flagPrefix) {
			return nil, configerr.Newf(configerr.KindMalformedInput, op,
				"flag %q has no value (next token is %q)", tok, value)
		}
		out[name] = Unquote(value)
	}
	return out, nil
}

// Unquote trims whitespace and any surrounding single or double quotes.
func Unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
