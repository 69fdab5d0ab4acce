package schema

import (
	"fmt"
	"strings"
)

// Type is the declared value type of a field.
type Type uint8

const (
	// String is a required-capable text value.
	String Type = iota + 1
	// OptionalString is a text value that may be absent.
	OptionalString
	// Int is a base-10 integer.
	Int
	// Bool accepts the forms understood by strconv.ParseBool.
	Bool
	// StringSet is a comma-separated list, stored sorted and de-duplicated.
	StringSet
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case OptionalString:
		return "optional string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case StringSet:
		return "set of strings"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

func (t Type) valid() bool { return t >= String && t <= StringSet }

// ConstraintKind identifies a constraint family.
type ConstraintKind uint8

const (
	// RangeConstraint bounds an Int value.
	RangeConstraint ConstraintKind = iota + 1
	// LengthConstraint bounds the rune count of a string.
	LengthConstraint
	// SizeConstraint bounds the element count of a set.
	SizeConstraint
	// OneOfConstraint restricts values to an enumeration.
	OneOfConstraint
)

// Constraint is a declarative check applied after coercion. Bounds are
// inclusive; a constraint without an upper bound leaves HasMax false.
type Constraint struct {
	Kind   ConstraintKind
	Min    int
	Max    int
	HasMax bool
	Values []string
}

// Range bounds an integer to [min, max].
func Range(min, max int) Constraint {
	return Constraint{Kind: RangeConstraint, Min: min, Max: max, HasMax: true}
}

// AtLeast bounds an integer from below.
func AtLeast(min int) Constraint {
	return Constraint{Kind: RangeConstraint, Min: min}
}

// Length bounds a string to [min, max] characters.
func Length(min, max int) Constraint {
	return Constraint{Kind: LengthConstraint, Min: min, Max: max, HasMax: true}
}

// MinLength bounds a string from below.
func MinLength(min int) Constraint {
	return Constraint{Kind: LengthConstraint, Min: min}
}

// Size bounds a set to [min, max] elements.
func Size(min, max int) Constraint {
	return Constraint{Kind: SizeConstraint, Min: min, Max: max, HasMax: true}
}

// OneOf restricts a value, or every element of a set, to values.
func OneOf(values ...string) Constraint {
	return Constraint{Kind: OneOfConstraint, Values: append([]string(nil), values...)}
}

// tag renders the constraint as a go-playground/validator tag.
func (c Constraint) tag(t Type) string {
	if c.Kind == OneOfConstraint {
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			if strings.ContainsAny(v, " \t") {
				v = "'" + v + "'"
			}
			quoted[i] = v
		}
		tag := "oneof=" + strings.Join(quoted, " ")
		if t == StringSet {
			return "dive," + tag
		}
		return tag
	}
	tag := fmt.Sprintf("min=%d", c.Min)
	if c.HasMax {
		tag += fmt.Sprintf(",max=%d", c.Max)
	}
	return tag
}

func (c Constraint) String() string {
	switch c.Kind {
	case OneOfConstraint:
		return "one of [" + strings.Join(c.Values, ", ") + "]"
	default:
		if c.HasMax {
			return fmt.Sprintf("%s %d..%d", c.Kind.noun(), c.Min, c.Max)
		}
		return fmt.Sprintf("%s >= %d", c.Kind.noun(), c.Min)
	}
}

func (k ConstraintKind) noun() string {
	switch k {
	case RangeConstraint:
		return "range"
	case LengthConstraint:
		return "length"
	case SizeConstraint:
		return "size"
	case OneOfConstraint:
		return "oneof"
	default:
		return "constraint"
	}
}

func (k ConstraintKind) appliesTo(t Type) bool {
	switch k {
	case RangeConstraint:
		return t == Int
	case LengthConstraint:
		return t == String || t == OptionalString
	case SizeConstraint:
		return t == StringSet
	case OneOfConstraint:
		return t == String || t == OptionalString || t == Int || t == StringSet
	default:
		return false
	}
}

func (c Constraint) check(t Type) error {
	if !c.Kind.appliesTo(t) {
		return fmt.Errorf("%s constraint does not apply to %s", c.Kind.noun(), t)
	}
	switch c.Kind {
	case OneOfConstraint:
		if len(c.Values) == 0 {
			return fmt.Errorf("oneof constraint needs at least one value")
		}
		for _, v := range c.Values {
			if v == "" || strings.ContainsAny(v, ",|'") {
				return fmt.Errorf("oneof value %q is empty or holds a reserved character", v)
			}
		}
	default:
		if c.HasMax && c.Max < c.Min {
			return fmt.Errorf("%s max %d is below min %d", c.Kind.noun(), c.Max, c.Min)
		}
		if c.Kind != RangeConstraint && c.Min < 0 {
			return fmt.Errorf("%s min %d is negative", c.Kind.noun(), c.Min)
		}
	}
	return nil
}
