// Package yamlconv converts stored values to and from YAML documents,
// keeping map key order in both directions.
//
// Objects have no YAML counterpart; they are written as a mapping with
// exactly two keys, `__class` and `__data`, and such mappings are read
// back as *phpfile.Object.
package yamlconv

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	phpfile "github.com/goliatone/go-phpfile"
	"gopkg.in/yaml.v3"
)

const (
	classKey = "__class"
	dataKey  = "__data"
)

// ErrUnsupportedNode is returned for YAML constructs with no value form,
// such as mappings used as keys.
var ErrUnsupportedNode = errors.New("yamlconv: unsupported node")

// Unmarshal parses a single YAML document. An empty document yields nil.
func Unmarshal(data []byte) (phpfile.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yamlconv: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return fromNode(doc.Content[0])
}

// Marshal renders v as a YAML document indented by two spaces.
func Marshal(v phpfile.Value) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("yamlconv: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yamlconv: %w", err)
	}
	return buf.Bytes(), nil
}

func fromNode(node *yaml.Node) (phpfile.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])
	case yaml.AliasNode:
		return fromNode(node.Alias)
	case yaml.SequenceNode:
		out := make(phpfile.List, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return fromMapping(node)
	case yaml.ScalarNode:
		return fromScalar(node)
	default:
		return nil, fmt.Errorf("%w: kind %d at line %d", ErrUnsupportedNode, node.Kind, node.Line)
	}
}

func fromMapping(node *yaml.Node) (phpfile.Value, error) {
	m := phpfile.NewMap(len(node.Content) / 2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind == yaml.AliasNode {
			keyNode = keyNode.Alias
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrUnsupportedNode, keyNode.Line)
		}
		value, err := fromNode(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(mapKey(keyNode), value)
	}
	if obj, ok := asObject(m); ok {
		return obj, nil
	}
	return m, nil
}

func mapKey(node *yaml.Node) phpfile.Key {
	switch node.ShortTag() {
	case "!!int":
		var n int64
		if err := node.Decode(&n); err == nil {
			return phpfile.IntKey(n)
		}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			if b {
				return phpfile.IntKey(1)
			}
			return phpfile.IntKey(0)
		}
	case "!!null":
		return phpfile.StringKey("")
	}
	return phpfile.StringKey(node.Value)
}

func asObject(m *phpfile.Map) (*phpfile.Object, bool) {
	if m.Len() != 2 {
		return nil, false
	}
	class, ok := m.Lookup(classKey)
	if !ok {
		return nil, false
	}
	name, ok := class.(string)
	if !ok || name == "" {
		return nil, false
	}
	data, ok := m.Lookup(dataKey)
	if !ok {
		return nil, false
	}
	switch fields := data.(type) {
	case *phpfile.Map:
		return phpfile.NewObject(name, fields), true
	case phpfile.List:
		out := phpfile.NewMap(len(fields))
		for _, item := range fields {
			out.Append(item)
		}
		return phpfile.NewObject(name, out), true
	case nil:
		return phpfile.NewObject(name, nil), true
	}
	return nil, false
}

func fromScalar(node *yaml.Node) (phpfile.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("yamlconv: line %d: %w", node.Line, err)
		}
		return b, nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err == nil {
			return n, nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("yamlconv: line %d: %w", node.Line, err)
		}
		return f, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("yamlconv: line %d: %w", node.Line, err)
		}
		return f, nil
	default:
		return node.Value, nil
	}
}

func toNode(v phpfile.Value) (*yaml.Node, error) {
	switch c := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(c)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(c, 10)), nil
	case float64:
		return scalar("!!float", formatFloat(c)), nil
	case string:
		return scalar("!!str", c), nil
	case phpfile.List:
		return sequence(c)
	case *phpfile.Map:
		if c.Len() > 0 && c.IsList() {
			items := make(phpfile.List, 0, c.Len())
			c.Range(func(_ phpfile.Key, value phpfile.Value) bool {
				items = append(items, value)
				return true
			})
			return sequence(items)
		}
		return mapping(c)
	case phpfile.Exporter:
		obj := c.ExportObject()
		if obj == nil {
			return scalar("!!null", "null"), nil
		}
		fields, err := mapping(obj.Fields)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				scalar("!!str", classKey), scalar("!!str", obj.Type),
				scalar("!!str", dataKey), fields,
			},
		}, nil
	default:
		normalized, err := phpfile.Normalize(v)
		if err != nil {
			return nil, err
		}
		return toNode(normalized)
	}
}

func sequence(items phpfile.List) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		child, err := toNode(item)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

func mapping(m *phpfile.Map) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Range(func(key phpfile.Key, value phpfile.Value) bool {
		var child *yaml.Node
		child, err = toNode(value)
		if err != nil {
			return false
		}
		keyNode := scalar("!!str", key.String())
		if key.IsInt() {
			keyNode = scalar("!!int", key.String())
		}
		node.Content = append(node.Content, keyNode, child)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}
