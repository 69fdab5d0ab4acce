package schema

import (
	"fmt"
	"strings"
)

// ViolationKind names the rule a setting broke.
type ViolationKind string

const (
	ViolationRequired ViolationKind = "required"
	ViolationType     ViolationKind = "type"
	ViolationRange    ViolationKind = "range"
	ViolationLength   ViolationKind = "length"
	ViolationSize     ViolationKind = "size"
	ViolationOneOf    ViolationKind = "oneof"
	ViolationUnknown  ViolationKind = "unknown"
)

func violationKindFor(k ConstraintKind) ViolationKind {
	switch k {
	case RangeConstraint:
		return ViolationRange
	case LengthConstraint:
		return ViolationLength
	case SizeConstraint:
		return ViolationSize
	default:
		return ViolationOneOf
	}
}

// Violation describes one failed rule for one field.
type Violation struct {
	Field   string
	Kind    ViolationKind
	Value   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ViolationSet is every violation found while binding one mapping.
type ViolationSet struct {
	Schema     string
	Violations []Violation
}

func (s *ViolationSet) Error() string {
	lines := make([]string, len(s.Violations))
	for i, v := range s.Violations {
		lines[i] = v.String()
	}
	return fmt.Sprintf("%s: %d invalid setting(s): %s", s.Schema, len(s.Violations), strings.Join(lines, "; "))
}

// Fields returns the distinct field names in violation order.
func (s *ViolationSet) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range s.Violations {
		if !seen[v.Field] {
			seen[v.Field] = true
			out = append(out, v.Field)
		}
	}
	return out
}

// For returns the violations recorded for one field.
func (s *ViolationSet) For(field string) []Violation {
	var out []Violation
	for _, v := range s.Violations {
		if v.Field == field {
			out = append(out, v)
		}
	}
	return out
}

func (s *ViolationSet) add(v Violation) {
	s.Violations = append(s.Violations, v)
}

func (s *ViolationSet) empty() bool { return len(s.Violations) == 0 }
