package inmemorystore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/plangraph/internal/node"
)

// fixtureNode is one execution in a YAML tree fixture. Children are listed in
// sibling order; parent, previous and next ids are derived from the nesting.
type fixtureNode struct {
	ID         string         `yaml:"id"`
	Identifier string         `yaml:"identifier"`
	Name       string         `yaml:"name"`
	StepType   string         `yaml:"step_type"`
	Group      string         `yaml:"group"`
	Skip       bool           `yaml:"skip_expression_chain"`
	Status     string         `yaml:"status"`
	Defaults   map[string]any `yaml:"parameters"`
	Resolved   map[string]any `yaml:"resolved_parameters"`
	Children   []fixtureNode  `yaml:"children"`
}

type fixtureFile struct {
	Root fixtureNode `yaml:"root"`
}

// LoadFile reads a YAML tree fixture from path into a new Store.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree fixture: %w", err)
	}
	s, err := Load(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Load decodes a YAML tree fixture into a new Store:
//
//	root:
//	  id: a
//	  status: running
//	  children:
//	    - id: c
//	      skip_expression_chain: true
//	      children:
//	        - id: d
//	          group: STAGE
//	          parameters: {param: di1}
//
// The identifier defaults to the id, which is how repeated steps share one
// identifier under different ids.
func Load(r io.Reader) (*Store, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode tree fixture: %w", err)
	}
	if f.Root.ID == "" {
		return nil, fmt.Errorf("tree fixture has no root")
	}

	var execs []node.Execution
	if err := flatten(f.Root, "", "", "", &execs); err != nil {
		return nil, err
	}
	s := New()
	if err := s.Put(execs...); err != nil {
		return nil, err
	}
	return s, nil
}

func flatten(n fixtureNode, parentID, prevID, nextID string, out *[]node.Execution) error {
	if n.ID == "" {
		return fmt.Errorf("execution under %q has no id", parentID)
	}
	status := node.StatusQueued
	if n.Status != "" {
		parsed, err := node.ParseStatus(n.Status)
		if err != nil {
			return fmt.Errorf("execution %q: %w", n.ID, err)
		}
		status = parsed
	}
	defaults, err := encodeParams(n.Defaults)
	if err != nil {
		return fmt.Errorf("execution %q parameters: %w", n.ID, err)
	}
	resolved, err := encodeParams(n.Resolved)
	if err != nil {
		return fmt.Errorf("execution %q resolved_parameters: %w", n.ID, err)
	}

	identifier := n.Identifier
	if identifier == "" {
		identifier = n.ID
	}
	name := n.Name
	if name == "" {
		name = identifier
	}

	*out = append(*out, node.Execution{
		ID: n.ID,
		Plan: node.PlanNode{
			Identifier:          identifier,
			Name:                name,
			StepType:            n.StepType,
			Group:               n.Group,
			SkipExpressionChain: n.Skip,
			DefaultParameters:   defaults,
		},
		ParentID:           parentID,
		PreviousID:         prevID,
		NextID:             nextID,
		Status:             status,
		ResolvedParameters: resolved,
	})

	for i, c := range n.Children {
		var prev, next string
		if i > 0 {
			prev = n.Children[i-1].ID
		}
		if i+1 < len(n.Children) {
			next = n.Children[i+1].ID
		}
		if err := flatten(c, n.ID, prev, next, out); err != nil {
			return err
		}
	}
	return nil
}

func encodeParams(params map[string]any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}
