package schema

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Redacted replaces secret values in redacted output.
const Redacted = "********"

// MarshalJSON5 writes the instance as a relaxed-JSON object in field order:
// unquoted names where possible, one field per line, trailing commas. Absent
// fields are omitted. With redact set, secret fields are masked, so the
// result no longer round-trips.
func (in *Instance) MarshalJSON5(redact bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for _, f := range in.schema.fields {
		v, ok := in.values[f.Name]
		if !ok {
			continue
		}
		if redact && f.Secret {
			v = Redacted
		}
		buf.WriteString("  ")
		if err := writeName(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if err := writeValue(&buf, v); err != nil {
			return nil, err
		}
		buf.WriteString(",\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// EncodeYAML writes the instance as a YAML mapping in field order, with the
// same omission and redaction rules as MarshalJSON5.
func (in *Instance) EncodeYAML(redact bool) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range in.schema.fields {
		v, ok := in.values[f.Name]
		if !ok {
			continue
		}
		if redact && f.Secret {
			v = Redacted
		}
		doc.Content = append(doc.Content, yamlString(f.Name), yamlValue(v))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func yamlValue(v any) *yaml.Node {
	switch t := v.(type) {
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, s := range t {
			seq.Content = append(seq.Content, yamlString(s))
		}
		return seq
	case string:
		return yamlString(t)
	default:
		return yamlString(render(t))
	}
}

func writeName(buf *bytes.Buffer, name string) error {
	if isIdentifier(name) {
		buf.WriteString(name)
		return nil
	}
	return writeJSON(buf, name)
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case int:
		buf.WriteString(strconv.Itoa(t))
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case []string:
		buf.WriteByte('[')
		for i, s := range t {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeJSON(buf, s); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return writeJSON(buf, t)
	}
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
