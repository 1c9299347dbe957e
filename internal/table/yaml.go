package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML sequence whose items are either sequences of cells
// or mappings from column name to cell. For mappings, the header lists keys
// in the order they are first seen.
func LoadYAML(r io.Reader) (*Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("failed to parse YAML table: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("YAML table must be a sequence (line %d)", root.Line)
	}

	var header []string
	index := make(map[string]int)
	rows := make([][]string, 0, len(root.Content))

	for _, item := range root.Content {
		switch item.Kind {
		case yaml.SequenceNode:
			row := make([]string, len(item.Content))
			for i, cell := range item.Content {
				row[i] = nodeText(cell)
			}
			rows = append(rows, row)

		case yaml.MappingNode:
			row := make([]string, len(header))
			for i := 0; i+1 < len(item.Content); i += 2 {
				key := item.Content[i].Value
				col, ok := index[key]
				if !ok {
					col = len(header)
					index[key] = col
					header = append(header, key)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = nodeText(item.Content[i+1])
			}
			rows = append(rows, row)

		case yaml.ScalarNode:
			rows = append(rows, []string{item.Value})

		default:
			return nil, fmt.Errorf("unsupported YAML row at line %d", item.Line)
		}
	}

	return New(header, rows), nil
}

// nodeText renders a cell. Scalars use their literal value; nested
// structures are re-encoded on one line.
func nodeText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	}
	out := *n
	out.Style = yaml.FlowStyle
	data, err := yaml.Marshal(&out)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
