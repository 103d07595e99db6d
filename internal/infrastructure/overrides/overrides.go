// Package overrides reads and writes the human-curated category tree that
// assigns product type names to legacy category ids.
//
// The canonical document is a tree of {id, name, type_name, children}.
// Files filled in by hand for earlier runs use the keys meno, meno_typu and
// podkategorie instead; both spellings are accepted on load, only the
// canonical one is written.
package overrides

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
)

// ErrEmptyDocument is returned for a file without any node
var ErrEmptyDocument = errors.New("overrides: document is empty")

// node is the YAML shape of one override entry
type node struct {
	ID       uint32  `yaml:"id"`
	Name     string  `yaml:"name,omitempty"`
	TypeName string  `yaml:"type_name"`
	Children []*node `yaml:"children,omitempty"`

	LegacyName     string  `yaml:"meno,omitempty"`
	LegacyTypeName string  `yaml:"meno_typu,omitempty"`
	LegacyChildren []*node `yaml:"podkategorie,omitempty"`
}

func (n *node) toDomain() *catalog.OverrideNode {
	out := &catalog.OverrideNode{
		ID:       n.ID,
		Name:     firstNonEmpty(n.Name, n.LegacyName),
		TypeName: firstNonEmpty(n.TypeName, n.LegacyTypeName),
	}
	for _, c := range append(n.Children, n.LegacyChildren...) {
		if c == nil {
			continue
		}
		out.Children = append(out.Children, c.toDomain())
	}
	return out
}

func fromDomain(o *catalog.OverrideNode) *node {
	n := &node{ID: o.ID, Name: o.Name, TypeName: o.TypeName}
	for _, c := range o.Children {
		n.Children = append(n.Children, fromDomain(c))
	}
	return n
}

// Load reads an override tree from path
func Load(path string) (*catalog.OverrideNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overrides: read %s: %w", path, err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("overrides: parse %s: %w", path, err)
	}
	return root, nil
}

// Parse decodes an override tree. A top-level list is placed under a
// synthetic root with an empty type name.
func Parse(data []byte) (*catalog.OverrideNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	top := doc.Content[0]
	switch top.Kind {
	case yaml.MappingNode:
		var n node
		if err := top.Decode(&n); err != nil {
			return nil, err
		}
		return n.toDomain(), nil
	case yaml.SequenceNode:
		var list []*node
		if err := top.Decode(&list); err != nil {
			return nil, err
		}
		root := &node{ID: catalog.SkeletonRootID, Name: catalog.SkeletonRootName, Children: list}
		return root.toDomain(), nil
	default:
		return nil, fmt.Errorf("overrides: unexpected top-level node at line %d", top.Line)
	}
}

// Marshal encodes root with the canonical keys and two-space indentation
func Marshal(root *catalog.OverrideNode) ([]byte, error) {
	if root == nil {
		return nil, ErrEmptyDocument
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fromDomain(root)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes root to path, replacing any existing file
func Save(path string, root *catalog.OverrideNode) error {
	data, err := Marshal(root)
	if err != nil {
		return fmt.Errorf("overrides: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("overrides: write %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
