package resolver

import (
	"context"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/treecache"
)

// Rollup reduces the statuses of every execution below exec, skip-chain
// executions included, to the highest-ranked terminal status that carries a
// signal. Without one, exec's own status is returned.
func Rollup(ctx context.Context, cache *treecache.Cache, exec node.Execution) (node.Status, error) {
	descendants, err := cache.Descendants(ctx, exec.ID)
	if err != nil {
		return "", err
	}

	best, bestRank := exec.Status, 0
	for _, d := range descendants {
		if r, ok := d.Status.Rank(); ok && r > bestRank {
			best, bestRank = d.Status, r
		}
	}
	return best, nil
}
