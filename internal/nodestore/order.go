package nodestore

import "github.com/vk/plangraph/internal/node"

// OrderSiblings arranges the children of one parent along their
// previous/next chains. A chain starts at every sibling whose previous id is
// empty or points outside the set; chains are emitted in the order their
// heads appear in the input, each followed through its next ids. Siblings
// left over because of a broken chain are appended in input order.
func OrderSiblings(siblings []node.Execution) []node.Execution {
	if len(siblings) < 2 {
		return siblings
	}

	byID := make(map[string]node.Execution, len(siblings))
	for _, s := range siblings {
		byID[s.ID] = s
	}

	ordered := make([]node.Execution, 0, len(siblings))
	placed := make(map[string]bool, len(siblings))

	follow := func(cur node.Execution) {
		for {
			if placed[cur.ID] {
				return
			}
			placed[cur.ID] = true
			ordered = append(ordered, cur)
			next, ok := byID[cur.NextID]
			if cur.NextID == "" || !ok {
				return
			}
			cur = next
		}
	}

	for _, s := range siblings {
		if _, prevInSet := byID[s.PreviousID]; s.PreviousID == "" || !prevInSet {
			follow(s)
		}
	}
	for _, s := range siblings {
		if !placed[s.ID] {
			follow(s)
		}
	}
	return ordered
}
