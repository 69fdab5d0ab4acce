// Package sources reads raw configuration settings from the three supported
// origins: a relaxed-JSON (or YAML) file, prefixed environment variables, and
// "--key value" command-line pairs. Every reader produces a flat Map of
// string values; coercion to typed values happens later, during binding.
package sources

import (
	"sort"
	"strings"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

// Map is a flat mapping from setting name to raw string value.
type Map map[string]string

// Clone returns a shallow copy that is never nil.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the setting names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether name is present, even with an empty value.
func (m Map) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// listSeparator joins array elements into a single value.
const listSeparator = ","

// flattener collects nested values under dot-joined keys.
type flattener struct {
	op  string
	out Map
}

func newFlattener(op string) *flattener {
	return &flattener{op: op, out: Map{}}
}

func (f *flattener) put(key, value string) error {
	if key == "" {
		return configerr.New(configerr.KindMalformedInput, f.op, "empty setting name")
	}
	if _, dup := f.out[key]; dup {
		return configerr.Newf(configerr.KindMalformedInput, f.op, "duplicate setting %q", key)
	}
	f.out[key] = value
	return nil
}

func (f *flattener) joinList(key string, items []string) error {
	for _, item := range items {
		if strings.Contains(item, listSeparator) {
			return configerr.Newf(configerr.KindMalformedInput, f.op,
				"list %q: element %q must not contain %q", key, item, listSeparator)
		}
	}
	return f.put(key, strings.Join(items, listSeparator))
}

func (f *flattener) nestedListError(key string) error {
	return configerr.Newf(configerr.KindMalformedInput, f.op,
		"list %q may only hold scalar values", key)
}

func childKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
