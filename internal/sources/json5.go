package sources

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/titanous/json5"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

// ParseJSON5 parses a relaxed-JSON document and flattens it. The dialect
// accepts unquoted names, single-quoted strings, comments, trailing commas,
// hexadecimal and leading-dot numbers, NaN and Infinity.
func ParseJSON5(data []byte) (Map, error) {
	return parseJSON5("parse json5", data)
}

func parseJSON5(op string, data []byte) (Map, error) {
	// Unmarshal checks the whole document, including anything trailing the
	// first value. The decoder then re-reads it keeping number literals.
	if err := json5.Unmarshal(data, new(any)); err != nil {
		return nil, configerr.Wrap(configerr.KindMalformedInput, op, err)
	}
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, configerr.Wrap(configerr.KindMalformedInput, op, err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, configerr.Newf(configerr.KindMalformedInput, op,
			"top level must be an object, got %s", describeJSON5(doc))
	}

	f := newFlattener(op)
	if err := f.json5Object("", root); err != nil {
		return nil, err
	}
	return f.out, nil
}

func (f *flattener) json5Object(prefix string, obj map[string]any) error {
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := childKey(prefix, name)
		switch v := obj[name].(type) {
		case nil:
		case map[string]any:
			if err := f.json5Object(key, v); err != nil {
				return err
			}
		case []any:
			items := make([]string, 0, len(v))
			for _, elem := range v {
				if elem == nil {
					continue
				}
				s, ok := json5Scalar(elem)
				if !ok {
					return f.nestedListError(key)
				}
				items = append(items, s)
			}
			if err := f.joinList(key, items); err != nil {
				return err
			}
		default:
			s, ok := json5Scalar(v)
			if !ok {
				return configerr.Newf(configerr.KindMalformedInput, f.op,
					"setting %q has unsupported value %s", key, describeJSON5(v))
			}
			if err := f.put(key, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func json5Scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json5.Number:
		return normalizeNumber(t), true
	case float64:
		return formatFloat(t), true
	default:
		return "", false
	}
}

// normalizeNumber keeps plain decimal literals verbatim and rewrites the
// relaxed forms (hex, leading dot, trailing dot, explicit plus) as decimals.
func normalizeNumber(n json5.Number) string {
	s := n.String()
	if strings.ContainsAny(s, "xX") {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return s
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, ".") ||
		strings.HasPrefix(s, "-.") || strings.HasSuffix(s, ".") {
		if fl, err := n.Float64(); err == nil {
			return formatFloat(fl)
		}
	}
	return s
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func describeJSON5(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
