package fixtures

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"able/records-go/pkg/runtime"
)

// decodeValue converts a YAML node into a runtime value. Sequences become
// lists and mappings become ordered maps with their document order kept.
func decodeValue(node *yaml.Node) (runtime.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		elems := make([]runtime.Value, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := decodeValue(child)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return runtime.NewList(elems...), nil
	case yaml.MappingNode:
		entries, err := decodeEntries(node)
		if err != nil {
			return nil, err
		}
		return runtime.NewMap(entries...)
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.DocumentNode:
		if len(node.Content) == 1 {
			return decodeValue(node.Content[0])
		}
	}
	return nil, fmt.Errorf("line %d: unsupported value node", node.Line)
}

func decodeScalar(node *yaml.Node) (runtime.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return runtime.NilValue{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return runtime.Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, err
		}
		return runtime.Int(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return runtime.Float(f), nil
	case "!!str":
		return runtime.Str(node.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported scalar tag %s", node.Line, node.ShortTag())
	}
}

func decodeEntries(node *yaml.Node) ([]runtime.Entry, error) {
	if node.Kind == yaml.AliasNode {
		return decodeEntries(node.Alias)
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	entries := make([]runtime.Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, err := decodeValue(node.Content[i])
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, runtime.Entry{Key: key, Value: value})
	}
	return entries, nil
}

// decodeAttrs reads a mapping of attribute name to value, keeping order.
func decodeAttrs(node *yaml.Node) ([]runtime.Attr, error) {
	if !present(*node) {
		return nil, nil
	}
	entries, err := decodeEntries(node)
	if err != nil {
		return nil, err
	}
	attrs := make([]runtime.Attr, 0, len(entries))
	for _, e := range entries {
		name, ok := e.Key.(runtime.StringValue)
		if !ok || strings.TrimSpace(name.Val) == "" {
			return nil, fmt.Errorf("line %d: attribute names must be non-empty strings, got %s", node.Line, runtime.Display(e.Key))
		}
		attrs = append(attrs, runtime.A(name.Val, e.Value))
	}
	return attrs, nil
}
