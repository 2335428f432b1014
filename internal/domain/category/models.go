package category

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Type distinguishes the two category trees kept in configuration.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// IsValid reports whether t is one of the known category types.
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Domain errors
var (
	ErrInvalidType = errors.New("invalid category type")
	ErrNotFound    = errors.New("category not found")
)

// Category is a row of the categories table. ParentID is nil for root
// categories. (Name, Type) is the natural key: a name is unique per type
// regardless of where it sits in the tree.
type Category struct {
	ID       int64
	Name     string
	Type     Type
	ParentID *int64
}

// Node is one entry of a configured category tree: either a bare name
// (leaf) or a named branch with nested children.
type Node struct {
	Name     string
	Children []Node
}

// branchNode mirrors the mapping form of a tree entry. Both child-list
// keys are accepted; "children" is checked before "subcategories" and the
// first non-empty list wins.
type branchNode struct {
	Name          string `yaml:"name"`
	Children      []Node `yaml:"children"`
	Subcategories []Node `yaml:"subcategories"`
}

// UnmarshalYAML decodes the two accepted node shapes once at the input
// boundary, so the reconciler only ever sees Name/Children.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		n.Name = value.Value
		n.Children = nil
		return nil
	case yaml.MappingNode:
		var b branchNode
		if err := value.Decode(&b); err != nil {
			return err
		}
		n.Name = b.Name
		n.Children = b.Children
		if len(n.Children) == 0 {
			n.Children = b.Subcategories
		}
		return nil
	default:
		return fmt.Errorf("category entry must be a name or a mapping (line %d)", value.Line)
	}
}
