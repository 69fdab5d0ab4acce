package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/sources"
)

var validate = validator.New()

// Bind coerces and validates merged against s. On success it returns a
// complete Instance. Otherwise the error has kind configerr.KindValidation
// and wraps a *ViolationSet holding every violation; no Instance is built.
//
// Settings that s does not declare are ignored unless s is strict.
func Bind(s *Schema, merged sources.Map) (*Instance, error) {
	set := &ViolationSet{Schema: s.name}
	b := newBuilder(s)

	for _, f := range s.fields {
		raw, ok := merged[f.Name]
		if !ok {
			if f.Required() {
				set.add(Violation{Field: f.Name, Kind: ViolationRequired, Message: "is required"})
			}
			continue
		}
		val, err := coerce(f.Type, raw)
		if err != nil {
			set.add(Violation{
				Field:   f.Name,
				Kind:    ViolationType,
				Value:   raw,
				Message: fmt.Sprintf("value %q is not a valid %s", raw, f.Type),
			})
			continue
		}
		failed := false
		for _, c := range f.Constraints {
			if v, bad := evaluate(f, c, raw, val); bad {
				set.add(v)
				failed = true
			}
		}
		if !failed {
			b.set(f.Name, val)
		}
	}

	if s.strict {
		for _, k := range s.UnknownKeys(merged) {
			set.add(Violation{Field: k, Kind: ViolationUnknown, Value: merged[k], Message: "is not a known setting"})
		}
	}

	if !set.empty() {
		return nil, configerr.Wrap(configerr.KindValidation, "bind "+s.name, set)
	}
	return b.build(), nil
}

// Violations extracts the violation set from a Bind error.
func Violations(err error) (*ViolationSet, bool) {
	var set *ViolationSet
	if errors.As(err, &set) {
		return set, true
	}
	return nil, false
}

var errInvalidUTF8 = errors.New("invalid UTF-8")

// coerce rejects raw values that are not valid UTF-8 so that every bound
// value survives a text encoding unchanged.
func coerce(t Type, raw string) (any, error) {
	if !utf8.ValidString(raw) {
		return nil, errInvalidUTF8
	}
	switch t {
	case String, OptionalString:
		return raw, nil
	case Int:
		return strconv.Atoi(strings.TrimSpace(raw))
	case Bool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case StringSet:
		return splitSet(raw), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// splitSet trims, drops empty elements, de-duplicates and sorts.
func splitSet(raw string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	sort.Strings(out)
	return out
}

func evaluate(f Field, c Constraint, raw string, val any) (Violation, bool) {
	err := validate.Var(val, c.tag(f.Type))
	if err == nil {
		return Violation{}, false
	}
	v := Violation{Field: f.Name, Kind: violationKindFor(c.Kind), Value: raw}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		v.Message = err.Error()
		return v, true
	}
	fe := fieldErrs[0]
	switch c.Kind {
	case RangeConstraint:
		v.Message = fmt.Sprintf("value %s is outside %s (failed %s=%s)", raw, c, fe.Tag(), fe.Param())
	case LengthConstraint:
		v.Message = fmt.Sprintf("length %d is outside %s (failed %s=%s)", len([]rune(raw)), c, fe.Tag(), fe.Param())
	case SizeConstraint:
		v.Message = fmt.Sprintf("%d element(s) is outside %s (failed %s=%s)", len(val.([]string)), c, fe.Tag(), fe.Param())
	default:
		v.Message = fmt.Sprintf("value %v is not %s", fe.Value(), c)
	}
	return v, true
}
