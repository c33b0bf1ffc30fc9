package libmolgraph

import (
	"math/bits"
	"sync"

	"github.com/mol-structures/molgraph/molgraph"
)

// upperTriuIndex returns the dense edge index of the node pair (i, j) in the
// flattened upper triangle: pairs are ordered lexicographically by (i, j).
func upperTriuIndex(i, j, numNodes int) int {
	if i > j {
		i, j = j, i
	}
	return i*numNodes - (i*i+3*i)/2 + j - 1
}

// computeTriuMasks returns one single-bit mask per edge index.
//
// Edge index 0 occupies the highest used bit (see molgraph.Triu), so
// mask[idx] selects edge idx in any Triu over numNodes nodes.
func computeTriuMasks(numNodes int) []molgraph.Triu {
	triuSize := numNodes * (numNodes - 1) / 2
	masks := make([]molgraph.Triu, triuSize)
	for idx := range masks {
		masks[idx] = molgraph.Triu(1) << (triuSize - 1 - idx)
	}
	return masks
}

// computeDegreeFilters returns, for each node k, a mask selecting every edge
// incident to k: the edges (u, k) for u < k and (k, v) for v > k.
//
// The popcount of (triu AND filter[k]) is node k's degree.
func computeDegreeFilters(numNodes int) []molgraph.Triu {
	triuSize := numNodes * (numNodes - 1) / 2
	filters := make([]molgraph.Triu, numNodes)
	for k := 0; k < numNodes; k++ {
		for u := 0; u < k; u++ {
			idx := upperTriuIndex(u, k, numNodes)
			filters[k] |= molgraph.Triu(1) << (triuSize - 1 - idx)
		}
		for v := k + 1; v < numNodes; v++ {
			idx := upperTriuIndex(k, v, numNodes)
			filters[k] |= molgraph.Triu(1) << (triuSize - 1 - idx)
		}
	}
	return filters
}

// checkDegrees returns whether every node's degree under triu lies in
// [minDegree, maxDegree].
func checkDegrees(triu molgraph.Triu, degreeFilters []molgraph.Triu, maxDegree, minDegree int) bool {
	for _, filter := range degreeFilters {
		deg := bits.OnesCount64(uint64(triu & filter))
		if deg > maxDegree || deg < minDegree {
			return false
		}
	}
	return true
}

// enumTables holds the shared read-only lookup tables for one coloring.
//
// A single instance is built per coloring and referenced (never copied) by
// every Graph enumerated under it.  All fields are immutable after
// construction; the permutation set is built once on first use since only
// isomorphism checks need it.
type enumTables struct {
	coloring     molgraph.Coloring
	numNodes     int
	triuSize     int
	triuMasks    []molgraph.Triu // one single-bit mask per edge index
	degreeFilter []molgraph.Triu // one incident-edge mask per node
	edgePairs    []molgraph.Edge // edge index -> (u, v), u < v

	permsOnce sync.Once
	perms     [][]byte // color-preserving node permutations
}

func newEnumTables(coloring molgraph.Coloring) *enumTables {
	n := len(coloring)
	tb := &enumTables{
		coloring:     append(molgraph.Coloring{}, coloring...),
		numNodes:     n,
		triuSize:     n * (n - 1) / 2,
		triuMasks:    computeTriuMasks(n),
		degreeFilter: computeDegreeFilters(n),
	}
	tb.edgePairs = make([]molgraph.Edge, 0, tb.triuSize)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			tb.edgePairs = append(tb.edgePairs, molgraph.Edge{U: byte(i), V: byte(j)})
		}
	}
	return tb
}

// permutations returns the full color-preserving permutation set, building it
// on first use.
func (tb *enumTables) permutations() [][]byte {
	tb.permsOnce.Do(func() {
		tb.perms = generatePermutations(tb.coloring)
	})
	return tb.perms
}

// isEdge returns whether triu contains the edge (u, v).
func (tb *enumTables) isEdge(triu molgraph.Triu, u, v int) bool {
	if u == v {
		return false
	}
	return triu&tb.triuMasks[upperTriuIndex(u, v, tb.numNodes)] != 0
}

var (
	tablesMu    sync.Mutex
	tablesCache = make(map[string]*enumTables)
)

// getTables returns the shared table set for the given coloring.
func getTables(coloring molgraph.Coloring) *enumTables {
	var buf [molgraph.MaxNodes + 1]byte
	key := string(coloring.AppendSpecTo(buf[:0]))

	tablesMu.Lock()
	defer tablesMu.Unlock()

	tb := tablesCache[key]
	if tb == nil {
		tb = newEnumTables(coloring)
		tablesCache[key] = tb
	}
	return tb
}
