// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/plangraph/internal/compiler"
	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/fsutil"
	"github.com/vk/plangraph/internal/node"
)

// Loader reads HCL pipeline files into compiler sections.
type Loader struct {
	// Variables are exposed to expressions as `var.<name>`.
	Variables map[string]cty.Value
}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths. Files are read in path
// order, directories walked lexically, and their sections concatenated.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]compiler.Section, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var sections []compiler.Section
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileSections, err := l.decodeFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		sections = append(sections, fileSections...)
	}

	logger.Debug("HCL loading complete.", "files", len(files), "sections", len(sections))
	return sections, nil
}

// Parse decodes a single pipeline source. filename is used in diagnostics.
func (l *Loader) Parse(src []byte, filename string) ([]compiler.Section, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return l.decodeFile(f)
}

func (l *Loader) decodeFile(f *hcl.File) ([]compiler.Section, error) {
	content, diags := f.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	sections := make([]compiler.Section, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		switch block.Type {
		case "step":
			n, deps, err := l.decodeStep(block)
			if err != nil {
				return nil, err
			}
			if len(deps) > 0 {
				return nil, blockError(block, "depends_on is only allowed inside a graph block")
			}
			sections = append(sections, compiler.StepSection{Node: n})

		case "parallel":
			steps, err := l.decodeGroup(block, false)
			if err != nil {
				return nil, err
			}
			s := compiler.ParallelSection{}
			for _, st := range steps {
				s.Nodes = append(s.Nodes, st.Node)
			}
			sections = append(sections, s)

		case "graph":
			steps, err := l.decodeGroup(block, true)
			if err != nil {
				return nil, err
			}
			sections = append(sections, compiler.SubGraphSection{Nodes: steps})
		}
	}
	return sections, nil
}

func (l *Loader) decodeGroup(block *hcl.Block, allowDeps bool) ([]compiler.SubGraphNode, error) {
	content, diags := block.Body.Content(groupSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	steps := make([]compiler.SubGraphNode, 0, len(content.Blocks))
	for _, inner := range content.Blocks {
		n, deps, err := l.decodeStep(inner)
		if err != nil {
			return nil, err
		}
		if len(deps) > 0 && !allowDeps {
			return nil, blockError(inner, "depends_on is only allowed inside a graph block")
		}
		steps = append(steps, compiler.SubGraphNode{Node: n, DependsOn: deps})
	}
	return steps, nil
}

func (l *Loader) decodeStep(block *hcl.Block) (node.PlanNode, []string, error) {
	var body stepBody
	if diags := gohcl.DecodeBody(block.Body, l.evalContext(), &body); diags.HasErrors() {
		return node.PlanNode{}, nil, diags
	}

	params, err := l.parameters(body.Parameters)
	if err != nil {
		return node.PlanNode{}, nil, err
	}

	n := node.PlanNode{
		StepType:            block.Labels[0],
		Identifier:          block.Labels[1],
		Name:                body.Name,
		Group:               body.Group,
		SkipExpressionChain: body.Skip,
		DefaultParameters:   params,
	}
	if n.Name == "" {
		n.Name = n.Identifier
	}
	return n, body.DependsOn, nil
}

// parameters evaluates the parameters expression to a JSON object.
func (l *Loader) parameters(expr hcl.Expression) ([]byte, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(l.evalContext())
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, exprError(expr, "parameters must be known at load time")
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, exprError(expr, fmt.Sprintf("parameters must be an object, got %s", ty.FriendlyName()))
	}
	return ctyjson.Marshal(val, ty)
}

func (l *Loader) evalContext() *hcl.EvalContext {
	if len(l.Variables) == 0 {
		return nil
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(l.Variables)},
	}
}

func blockError(block *hcl.Block, detail string) error {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Invalid %s block", block.Type),
		Detail:   detail,
		Subject:  block.DefRange.Ptr(),
	}}
}

func exprError(expr hcl.Expression, detail string) error {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid parameters",
		Detail:   detail,
		Subject:  expr.Range().Ptr(),
	}}
}
