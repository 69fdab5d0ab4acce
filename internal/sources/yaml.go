package sources

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

const (
	tagNull  = "!!null"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
)

// ParseYAML parses a YAML document and flattens it with the same rules as
// ParseJSON5. Scalars keep their literal text.
func ParseYAML(data []byte) (Map, error) {
	return parseYAML("parse yaml", data)
}

func parseYAML(op string, data []byte) (Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configerr.Wrap(configerr.KindMalformedInput, op, err)
	}
	f := newFlattener(op)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f.out, nil
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		if root.Kind == yaml.ScalarNode && root.Tag == tagNull {
			return f.out, nil
		}
		return nil, configerr.New(configerr.KindMalformedInput, op, "top level must be a mapping")
	}
	if err := f.yamlMapping("", root); err != nil {
		return nil, err
	}
	return f.out, nil
}

func (f *flattener) yamlMapping(prefix string, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i], resolveAlias(node.Content[i+1])
		if name.Kind != yaml.ScalarNode {
			return configerr.New(configerr.KindMalformedInput, f.op, "setting names must be scalars")
		}
		key := childKey(prefix, name.Value)

		switch value.Kind {
		case yaml.MappingNode:
			if err := f.yamlMapping(key, value); err != nil {
				return err
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(value.Content))
			for _, elem := range value.Content {
				elem = resolveAlias(elem)
				if elem.Kind != yaml.ScalarNode {
					return f.nestedListError(key)
				}
				if elem.Tag == tagNull {
					continue
				}
				items = append(items, yamlScalar(elem))
			}
			if err := f.joinList(key, items); err != nil {
				return err
			}
		case yaml.ScalarNode:
			if value.Tag == tagNull {
				continue
			}
			if err := f.put(key, yamlScalar(value)); err != nil {
				return err
			}
		default:
			return configerr.Newf(configerr.KindMalformedInput, f.op, "setting %q has unsupported value", key)
		}
	}
	return nil
}

func yamlScalar(n *yaml.Node) string {
	switch n.Tag {
	case tagBool:
		var b bool
		if err := n.Decode(&b); err == nil {
			return strconv.FormatBool(b)
		}
	case tagInt:
		var i int64
		if err := n.Decode(&i); err == nil {
			return strconv.FormatInt(i, 10)
		}
	case tagFloat:
		var fl float64
		if err := n.Decode(&fl); err == nil {
			return formatFloat(fl)
		}
	}
	return n.Value
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
