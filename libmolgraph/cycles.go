package libmolgraph

import (
	"github.com/mol-structures/molgraph/molgraph"
)

// maxFundamentalCycle returns the length of the longest cycle in X's
// fundamental cycle basis, or 0 if X is acyclic.
//
// The basis is taken over a breadth-first spanning tree from node 0: each
// non-tree edge (u, v) closes exactly one cycle through the tree paths of u
// and v, of length depth(u) + depth(v) - 2*depth(meet) + 1.
func maxFundamentalCycle(X *Graph) int {
	tb := X.tables
	n := tb.numNodes

	var (
		parent [molgraph.MaxNodes]int
		depth  [molgraph.MaxNodes]int
		queue  [molgraph.MaxNodes]byte
	)
	for i := range parent[:n] {
		parent[i] = -1
	}

	head, tail := 0, 0
	visited := uint16(1)
	queue[tail] = 0
	tail++

	maxCycle := 0
	for head < tail {
		u := int(queue[head])
		head++
		for v := 0; v < n; v++ {
			if !tb.isEdge(X.triu, u, v) {
				continue
			}
			if visited&(1<<v) == 0 {
				visited |= 1 << v
				parent[v] = u
				depth[v] = depth[u] + 1
				queue[tail] = byte(v)
				tail++
			} else if v != parent[u] && depth[v] <= depth[u] {
				// Non-tree edge, counted once from its deeper endpoint.
				a, b := u, v
				for depth[a] > depth[b] {
					a = parent[a]
				}
				for a != b {
					a = parent[a]
					b = parent[b]
				}
				cycleLen := depth[u] + depth[v] - 2*depth[a] + 1
				if cycleLen > maxCycle {
					maxCycle = cycleLen
				}
			}
		}
	}
	return maxCycle
}
