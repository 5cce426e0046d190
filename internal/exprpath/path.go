// internal/exprpath/path.go
package exprpath

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// String serializes the path into its canonical form.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p.Segments {
		switch {
		case hclsyntax.ValidIdentifier(segment.Name):
			if i > 0 {
				sb.WriteRune('.')
			}
			sb.WriteString(segment.Name)
		case i == 0:
			// A root that is not an identifier cannot be written back as a
			// traversal; quote it so the output stays readable.
			sb.WriteString(fmt.Sprintf("%q", segment.Name))
		default:
			sb.WriteString(fmt.Sprintf("[%q]", segment.Name))
		}
		if segment.HasIndex() {
			sb.WriteString(fmt.Sprintf("[%d]", segment.Index))
		}
	}
	return sb.String()
}

// Equal checks for deep equality between two paths.
func (p Path) Equal(other Path) bool {
	return reflect.DeepEqual(p.Segments, other.Segments)
}
