package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML dialogue files look like:
//
//	block: chapter1
//	strings:
//	  - id: guard_01
//	    source: "Halt, [Name]!"
//	    translation: "Стой, {Player}!"
//
// "block" is optional and defaults to the file name. A missing translation
// is an empty one. The node tree is kept so that saving rewrites only the
// translation scalars and keeps comments, key order and styles.

type yamlDoc struct {
	node *yaml.Node
}

func loadYAML(path string) (*Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	b, doc, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	b.Path = path
	b.save = func() error { return doc.writeFile(path) }
	return b, nil
}

func parseYAML(data []byte) (*Block, *yamlDoc, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("parsing YAML: %w", err)
	}
	b, doc := &Block{}, &yamlDoc{node: &root}
	if root.Kind == 0 || len(root.Content) == 0 {
		return b, doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("YAML root must be a mapping, got kind %d", top.Kind)
	}

	if n := mapValue(top, "block"); n != nil {
		b.Name = n.Value
	}
	list := mapValue(top, "strings")
	if list == nil {
		return b, doc, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("line %d: strings must be a list", list.Line)
	}

	seen := make(map[string]bool)
	for i, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			return nil, nil, fmt.Errorf("line %d: string entry must be a mapping", item.Line)
		}
		id := fmt.Sprint(i)
		if n := mapValue(item, "id"); n != nil {
			id = n.Value
		}
		if seen[id] {
			return nil, nil, fmt.Errorf("line %d: duplicate string id %q", item.Line, id)
		}
		seen[id] = true

		src := mapValue(item, "source")
		if src == nil {
			return nil, nil, fmt.Errorf("line %d: string %q has no source", item.Line, id)
		}
		s := &String{ID: id, Source: src.Value}
		if tr := mapValue(item, "translation"); tr != nil {
			s.Translation = tr.Value
		}
		item := item
		s.set = func(t string) { setMapValue(item, "translation", t) }
		b.Strings = append(b.Strings, s)
	}
	return b, doc, nil
}

// mapValue returns the value node of key in a mapping node.
func mapValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMapValue(m *yaml.Node, key, value string) {
	if n := mapValue(m, key); n != nil {
		n.Kind = yaml.ScalarNode
		n.Tag = "!!str"
		n.Value = value
		if value == "" || strings.Contains(value, "\n") {
			n.Style = yaml.DoubleQuotedStyle
		}
		return
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)
}

func (d *yamlDoc) marshal() ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(d.node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func (d *yamlDoc) writeFile(path string) error {
	data, err := d.marshal()
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
