package molgraph

import (
	"io"
	"math/bits"
)

const (
	// MaxNodes is the max number of nodes in a single graph.
	//
	// The adjacency bitset of an n node graph needs n(n-1)/2 bits, so 11 nodes
	// is the most that fits in a uint64 (11*10/2 = 55 bits).
	MaxNodes = 11

	// MaxTriuBits is the bit width needed for the largest supported graph.
	MaxTriuBits = MaxNodes * (MaxNodes - 1) / 2
)

// Coloring assigns an integer color to each node of a graph.
//
// A valid Coloring has 1..MaxNodes elements, starts at 0, and each element
// equals the previous element or exceeds it by exactly 1, so colors form
// contiguous blocks introduced in increasing order.  Isomorphism is only
// considered under permutations that keep every node within its color block.
type Coloring []byte

// Validate returns nil if c is a well formed coloring.
func (c Coloring) Validate() error {
	if len(c) == 0 || len(c) > MaxNodes {
		return ErrInvalidArity
	}
	if c[0] != 0 {
		return ErrInvalidColoring
	}
	for i := 1; i < len(c); i++ {
		if c[i] != c[i-1] && c[i] != c[i-1]+1 {
			return ErrInvalidColoring
		}
	}
	return nil
}

// NumColors returns the number of distinct colors in c (c is assumed valid).
func (c Coloring) NumColors() int {
	if len(c) == 0 {
		return 0
	}
	return int(c[len(c)-1]) + 1
}

// GroupSizes returns the size of each color block in increasing color order.
func (c Coloring) GroupSizes() []int {
	sizes := make([]int, c.NumColors())
	for _, ci := range c {
		sizes[ci]++
	}
	return sizes
}

// NumPermutations returns the size of the color-preserving permutation group:
// the product of the factorial of each color block size.
func (c Coloring) NumPermutations() int64 {
	N := int64(1)
	for _, sz := range c.GroupSizes() {
		for k := int64(2); k <= int64(sz); k++ {
			N *= k
		}
	}
	return N
}

// AppendSpecTo appends a binary encoding of c, suitable as a cache or db key.
func (c Coloring) AppendSpecTo(out []byte) []byte {
	out = append(out, byte(len(c)))
	return append(out, c...)
}

// Triu is the upper triangular half of a graph adjacency matrix packed into a
// uint64, omitting the diagonal (no self loops) and the mirrored lower half.
//
// Edge index 0 (the edge 0-1) occupies the highest used bit so that graphs
// sort the same way their edge lists read.
type Triu uint64

// EdgeCount returns the number of edges present.
func (t Triu) EdgeCount() int {
	return bits.OnesCount64(uint64(t))
}

// Next returns the next largest Triu with the same number of set bits.
//
// This is the standard same-popcount successor step, letting the enumerator
// visit every bit pattern with a fixed edge count in increasing numeric order
// without generating and discarding patterns.
// See https://graphics.stanford.edu/~seander/bithacks.html#NextBitPermutation
func (t Triu) Next() Triu {
	c := t | (t - 1)
	return (c + 1) | (((^c & -^c) - 1) >> (bits.TrailingZeros64(uint64(t)) + 1))
}

// Edge is an unordered node pair with U < V.
type Edge struct {
	U, V byte
}

// EdgeList is a graph's edges ordered by (U, V) ascending.
type EdgeList []Edge

// GraphState is a single enumerated graph.
//
// Instances are pooled; callers that are done with one should Reclaim() it.
type GraphState interface {

	// NumNodes returns the number of nodes in this graph.
	NumNodes() int

	// Coloring returns the node coloring this graph was enumerated under.
	// The returned slice is shared and must not be mutated.
	Coloring() Coloring

	// Adjacency returns this graph's packed upper triangular adjacency bits.
	Adjacency() Triu

	// IsConnected returns whether every node is reachable from node 0.
	IsConnected() bool

	// Invariant returns this graph's structural signature.  Equal invariants
	// are necessary but not sufficient for isomorphism.
	Invariant() Invariant

	// Edges returns this graph's edge list, ordered by (U, V) ascending.
	Edges() EdgeList

	// AdjacencyMatrix returns the full n x n 0/1 adjacency matrix.
	AdjacencyMatrix() [][]byte

	// IsoEqual returns whether X and other are isomorphic under the
	// color-preserving permutation group.  Both graphs must share the same
	// coloring.
	IsoEqual(other GraphState) bool

	// Labels returns the node labels this graph was generated from
	// (e.g. element symbols), or nil if the graph has none.
	Labels() []string

	// WriteAsString writes a human readable rendering of this graph.
	WriteAsString(out io.Writer, opts PrintOpts)

	// Reclaim recycles this instance into a pool for reuse.
	// Caller asserts that no more references to this instance will persist.
	Reclaim()
}

// GraphAdder accumulates graphs, dropping ones it has already seen.
type GraphAdder interface {

	// TryAddGraph adds the given graph if an equivalent graph is not already
	// present, returning true if X was added.
	TryAddGraph(X GraphState) bool

	// Close releases all resources held by this adder.
	Close()
}

// OnGraphHit is a callback channel used to return graphs meeting a set of
// selection criteria.  Ownership of each graph travels through the channel.
type OnGraphHit chan<- GraphState

// EnumOpts are performance knobs for a single enumeration.
//
// They never influence which isomorphism classes are found, only how the work
// is scheduled (and, as a consequence, which representative of a class is the
// first one seen).
type EnumOpts struct {
	Workers int // max goroutines per parallel phase; 0 means GOMAXPROCS
}

// PrintOpts controls GraphStream.Print and GraphState.WriteAsString output.
type PrintOpts struct {
	Label     string // prefix for each output line
	Graph     bool   // include the edge list
	Matrix    bool   // include the adjacency matrix
	Invariant bool   // include the graph invariant
}

var DefaultPrintOpts = PrintOpts{
	Graph: true,
}

// GraphSelector selects graphs from a Catalog or GraphStream.
type GraphSelector struct {
	NodesMin int // min number of nodes (inclusive)
	NodesMax int // max number of nodes (inclusive)
	EdgesMax int // max number of edges; 0 means no limit
}

var DefaultGraphSelector = GraphSelector{
	NodesMin: 1,
	NodesMax: MaxNodes,
}

// AllowGraph returns whether X passes this selector.
func (sel *GraphSelector) AllowGraph(X GraphState) bool {
	Nn := X.NumNodes()
	if Nn < sel.NodesMin || Nn > sel.NodesMax {
		return false
	}
	if sel.EdgesMax > 0 && X.Adjacency().EdgeCount() > sel.EdgesMax {
		return false
	}
	return true
}

// CatalogOpts specifies params for opening a Catalog.
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// Catalog is a persistent store of enumeration results.
type Catalog interface {
	GraphAdder

	// NumGraphs returns how many unique graphs with the given node count have
	// been added, or the total for all node counts if numNodes is 0.
	NumGraphs(numNodes int) int64

	// Select calls onHit with all stored graphs matching the given selector.
	Select(sel GraphSelector, onHit OnGraphHit)

	// IsReadOnly returns whether this catalog rejects writes.
	IsReadOnly() bool

	// LoadEnum returns the adjacency sets stored for a complete enumeration,
	// or found == false if StoreEnum was never called for this key.
	LoadEnum(enumKey []byte) (trius []Triu, found bool)

	// StoreEnum records a complete enumeration's results under the given key.
	StoreEnum(enumKey []byte, coloring Coloring, trius []Triu) error
}

// FormEnumKey returns the key identifying one complete enumeration: a
// coloring plus its degree bounds and cycle cap (0 when uncapped).
func FormEnumKey(coloring Coloring, maxDegree, minDegree, maxCycleLen int) []byte {
	key := coloring.AppendSpecTo(make([]byte, 0, len(coloring)+4))
	return append(key, byte(maxDegree), byte(minDegree), byte(maxCycleLen))
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Signals all open catalogs to close, then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed.
	Done() <-chan struct{}
}
