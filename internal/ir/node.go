package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is one step in a pipeline document.
//
// Params are passed positionally to the constructor registered for Type.
// Children are only meaningful for step types that accept child steps.
type Node struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Params   []any  `json:"params"`
	Children []Node `json:"children,omitempty"`
}

// ParseNode decodes a pipeline document. Unknown fields are rejected and
// numbers decode as float64.
func ParseNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var n Node
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("parse pipeline document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse pipeline document: trailing data after root node")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks structural rules that hold independent of any registry:
// every node, at every depth, must carry a type tag.
func (n Node) Validate() error {
	return n.validate("$")
}

func (n Node) validate(path string) error {
	if n.Type == "" {
		return fmt.Errorf("%s: type is required", path)
	}
	for i, child := range n.Children {
		if err := child.validate(fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the tree rooted at n.
func (n Node) Count() int {
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// canonicalValue converts the node to a plain map for canonical marshaling.
func (n Node) canonicalValue() map[string]any {
	params := n.Params
	if params == nil {
		params = []any{}
	}
	m := map[string]any{
		"type":   n.Type,
		"params": params,
	}
	if n.Name != "" {
		m["name"] = n.Name
	}
	if len(n.Children) > 0 {
		children := make([]any, len(n.Children))
		for i, child := range n.Children {
			children[i] = child.canonicalValue()
		}
		m["children"] = children
	}
	return m
}
