package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileSchema lists the top-level blocks of a pipeline file.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "step", LabelNames: []string{"type", "id"}},
		{Type: "parallel"},
		{Type: "graph"},
	},
}

// groupSchema lists the blocks allowed inside `parallel` and `graph`.
var groupSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "step", LabelNames: []string{"type", "id"}},
	},
}

// stepBody is the decoded body of a `step` block. The type and id come from
// the block labels.
type stepBody struct {
	Name       string         `hcl:"name,optional"`
	Group      string         `hcl:"group,optional"`
	Skip       bool           `hcl:"skip_expression_chain,optional"`
	DependsOn  []string       `hcl:"depends_on,optional"`
	Parameters hcl.Expression `hcl:"parameters,optional"`
}
