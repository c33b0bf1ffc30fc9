package libmolgraph

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"sort"
	"sync"

	"github.com/mol-structures/molgraph/molgraph"
)

// Graph is a single enumerated colored graph: an adjacency bitset plus its
// derived connectivity flag and invariant.
//
// A Graph references (never owns) the shared tables for its coloring, so
// instances are cheap and are recycled through a pool.
type Graph struct {
	tables    *enumTables
	triu      molgraph.Triu
	connected bool
	inv       molgraph.Invariant
	labels    []string
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return new(Graph)
	},
}

// NewGraph returns a Graph over the given coloring and adjacency bits.
func NewGraph(coloring molgraph.Coloring, triu molgraph.Triu) (*Graph, error) {
	if err := coloring.Validate(); err != nil {
		return nil, err
	}
	tb := getTables(coloring)
	if bits.Len64(uint64(triu)) > tb.triuSize {
		return nil, molgraph.ErrBadGraphDef
	}
	return newGraph(tb, triu), nil
}

func newGraph(tb *enumTables, triu molgraph.Triu) *Graph {
	X := graphPool.Get().(*Graph)
	X.init(tb, triu)
	return X
}

func (X *Graph) init(tb *enumTables, triu molgraph.Triu) {
	X.tables = tb
	X.triu = triu
	X.labels = nil
	X.calcConnected()
	X.calcInvariant()
}

// Reclaim recycles this Graph into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (X *Graph) Reclaim() {
	if X != nil {
		graphPool.Put(X)
	}
}

func (X *Graph) NumNodes() int {
	return X.tables.numNodes
}

func (X *Graph) Coloring() molgraph.Coloring {
	return X.tables.coloring
}

func (X *Graph) Adjacency() molgraph.Triu {
	return X.triu
}

func (X *Graph) IsConnected() bool {
	return X.connected
}

func (X *Graph) Invariant() molgraph.Invariant {
	return X.inv
}

// Labels returns the node labels this graph was generated from, or nil.
func (X *Graph) Labels() []string {
	return X.labels
}

// SetLabels attaches node labels (one per node, in node index order).
func (X *Graph) SetLabels(labels []string) {
	X.labels = labels
}

// Edges returns this graph's edge list ordered by (U, V) ascending.
//
// Edge indices are already lexicographic by node pair, so a single pass over
// the index space yields the required ordering.
func (X *Graph) Edges() molgraph.EdgeList {
	tb := X.tables
	edges := make(molgraph.EdgeList, 0, X.triu.EdgeCount())
	for idx, mask := range tb.triuMasks {
		if X.triu&mask != 0 {
			edges = append(edges, tb.edgePairs[idx])
		}
	}
	return edges
}

// AdjacencyMatrix returns the full n x n 0/1 adjacency matrix.
func (X *Graph) AdjacencyMatrix() [][]byte {
	n := X.tables.numNodes
	matrix := make([][]byte, n)
	for i := range matrix {
		matrix[i] = make([]byte, n)
	}
	for idx, mask := range X.tables.triuMasks {
		if X.triu&mask != 0 {
			e := X.tables.edgePairs[idx]
			matrix[e.U][e.V] = 1
			matrix[e.V][e.U] = 1
		}
	}
	return matrix
}

// calcConnected runs a breadth-first traversal from node 0 and records
// whether every node was reached.
//
// This traversal is the sole source of truth for connectivity; the
// enumerator's spanning-tree edge-count lower bound is only a prune.
func (X *Graph) calcConnected() {
	tb := X.tables
	n := tb.numNodes

	var queue [molgraph.MaxNodes]byte
	head, tail := 0, 0

	visited := uint16(1)
	queue[tail] = 0
	tail++
	visitedCount := 0

	for head < tail {
		current := int(queue[head])
		head++
		visitedCount++
		for i := 0; i < n; i++ {
			if visited&(1<<i) == 0 && tb.isEdge(X.triu, current, i) {
				visited |= 1 << i
				queue[tail] = byte(i)
				tail++
			}
		}
	}
	X.connected = visitedCount == n
}

// calcInvariant builds the invariant tuple described by molgraph.Invariant:
// edge count, per-color sorted degrees, then per-color-pair edge counts.
func (X *Graph) calcInvariant() {
	tb := X.tables
	n := tb.numNodes
	coloring := tb.coloring
	numColors := coloring.NumColors()

	inv := X.inv[:0]
	inv = append(inv, int64(X.triu.EdgeCount()))

	// Node degrees, sorted ascending within each color block.  A valid
	// coloring's blocks are contiguous index runs, so sorting happens in
	// place on block-sized windows.
	var degs [molgraph.MaxNodes]int
	for i := 0; i < n; i++ {
		degs[i] = bits.OnesCount64(uint64(X.triu & tb.degreeFilter[i]))
	}
	for start := 0; start < n; {
		end := start + 1
		for end < n && coloring[end] == coloring[start] {
			end++
		}
		block := degs[start:end]
		sort.Ints(block)
		for _, d := range block {
			inv = append(inv, int64(d))
		}
		start = end
	}

	// Edge counts per color pair (a <= b), in increasing (a, b) order.
	var pairCounts [molgraph.MaxNodes][molgraph.MaxNodes]int64
	for idx, mask := range tb.triuMasks {
		if X.triu&mask != 0 {
			e := tb.edgePairs[idx]
			a, b := coloring[e.U], coloring[e.V]
			if a > b {
				a, b = b, a
			}
			pairCounts[a][b]++
		}
	}
	for a := 0; a < numColors; a++ {
		for b := a; b < numColors; b++ {
			inv = append(inv, pairCounts[a][b])
		}
	}

	X.inv = inv
}

// IsoEqual returns whether X and other are isomorphic under the
// color-preserving permutation group.
//
// Invariants are compared first as a cheap reject; only on an invariant
// collision is the full permutation set tried.
func (X *Graph) IsoEqual(other molgraph.GraphState) bool {
	if other == nil {
		return false
	}
	if !colEqual(X.Coloring(), other.Coloring()) {
		return false
	}
	if !X.inv.IsEqual(other.Invariant()) {
		return false
	}
	return isoEqualTriu(X.tables, X.triu, other.Adjacency())
}

// isoEqualTriu exhaustively tries every color-preserving permutation π,
// accepting iff some π maps every edge (i, j) of tX onto (π(i), π(j)) of tY.
//
// Worst case O(numPerms * n^2), reached only when invariants collide.
func isoEqualTriu(tb *enumTables, tX, tY molgraph.Triu) bool {
	n := tb.numNodes
	for _, perm := range tb.permutations() {
		equal := true
		for i := 0; i < n && equal; i++ {
			permI := int(perm[i])
			for j := i + 1; j < n; j++ {
				if tb.isEdge(tX, i, j) != tb.isEdge(tY, permI, int(perm[j])) {
					equal = false
					break
				}
			}
		}
		if equal {
			return true
		}
	}
	return false
}

func colEqual(a, b molgraph.Coloring) bool {
	if len(a) != len(b) {
		return false
	}
	for i, ai := range a {
		if ai != b[i] {
			return false
		}
	}
	return true
}

// WriteAsString writes a human readable rendering of this graph.
func (X *Graph) WriteAsString(out io.Writer, opts molgraph.PrintOpts) {
	fmt.Fprintf(out, "n=%d,e=%d", X.NumNodes(), X.triu.EdgeCount())

	if opts.Graph {
		out.Write([]byte{','})
		for i, e := range X.Edges() {
			if i > 0 {
				out.Write([]byte{' '})
			}
			if X.labels != nil {
				fmt.Fprintf(out, "%s%d-%s%d", X.labels[e.U], e.U, X.labels[e.V], e.V)
			} else {
				fmt.Fprintf(out, "%d-%d", e.U, e.V)
			}
		}
	}

	if opts.Invariant {
		out.Write([]byte(",inv="))
		for i, vi := range X.inv {
			if i > 0 {
				out.Write([]byte{' '})
			}
			fmt.Fprintf(out, "%d", vi)
		}
	}

	if opts.Matrix {
		for _, row := range X.AdjacencyMatrix() {
			out.Write([]byte(",|"))
			for _, cell := range row {
				fmt.Fprintf(out, "%d", cell)
			}
			out.Write([]byte{'|'})
		}
	}
}

// AppendGraphDef appends a binary encoding of this graph: the coloring spec
// followed by the adjacency bits as a uvarint.
func (X *Graph) AppendGraphDef(out []byte) []byte {
	out = X.tables.coloring.AppendSpecTo(out)
	var scrap [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scrap[:], uint64(X.triu))
	return append(out, scrap[:n]...)
}

// NewGraphFromDef reconstructs a Graph from an AppendGraphDef encoding.
func NewGraphFromDef(graphDef []byte) (*Graph, error) {
	if len(graphDef) < 2 {
		return nil, molgraph.ErrBadGraphDef
	}
	n := int(graphDef[0])
	if n == 0 || n > molgraph.MaxNodes || len(graphDef) < 1+n {
		return nil, molgraph.ErrBadGraphDef
	}
	coloring := molgraph.Coloring(graphDef[1 : 1+n])
	if err := coloring.Validate(); err != nil {
		return nil, err
	}
	triu, numRead := binary.Uvarint(graphDef[1+n:])
	if numRead <= 0 {
		return nil, molgraph.ErrBadGraphDef
	}
	return NewGraph(coloring, molgraph.Triu(triu))
}
