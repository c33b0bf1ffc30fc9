package libmolgraph

import (
	"strings"
	"testing"

	"github.com/mol-structures/molgraph/molgraph"
)

func TestGraphConnectivity(t *testing.T) {
	tb := getTables(molgraph.Coloring{0, 0, 0, 0})

	cases := []struct {
		edges     [][2]int
		connected bool
	}{
		{[][2]int{{0, 1}, {1, 2}, {2, 3}}, true},           // path
		{[][2]int{{0, 1}, {0, 2}, {0, 3}}, true},           // star
		{[][2]int{{0, 1}, {2, 3}}, false},                  // two components
		{[][2]int{{1, 2}, {2, 3}, {1, 3}}, false},          // node 0 isolated
		{[][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}}, true},   // cycle
		{[][2]int{}, false},                                // no edges at all
	}
	for _, tc := range cases {
		X := newGraph(tb, edgesTriu(tb, tc.edges))
		if X.IsConnected() != tc.connected {
			t.Fatalf("edges %v: connected=%v, expected %v", tc.edges, X.IsConnected(), tc.connected)
		}
		X.Reclaim()
	}

	// A single node is trivially connected.
	X := newGraph(getTables(molgraph.Coloring{0}), 0)
	if !X.IsConnected() {
		t.Fatal("single node graph must be connected")
	}
	X.Reclaim()
}

func TestGraphEdgesOrdering(t *testing.T) {
	tb := getTables(molgraph.Coloring{0, 0, 0, 0, 0})
	X := newGraph(tb, edgesTriu(tb, [][2]int{{3, 4}, {0, 2}, {1, 3}, {0, 1}}))
	defer X.Reclaim()

	edges := X.Edges()
	expect := molgraph.EdgeList{{U: 0, V: 1}, {U: 0, V: 2}, {U: 1, V: 3}, {U: 3, V: 4}}
	if len(edges) != len(expect) {
		t.Fatalf("expected %d edges, got %d", len(expect), len(edges))
	}
	for i, e := range expect {
		if edges[i] != e {
			t.Fatalf("edge %d: expected %v, got %v", i, e, edges[i])
		}
	}

	matrix := X.AdjacencyMatrix()
	for _, e := range edges {
		if matrix[e.U][e.V] != 1 || matrix[e.V][e.U] != 1 {
			t.Fatalf("matrix missing edge %v", e)
		}
	}
}

func TestGraphInvariant(t *testing.T) {
	tb := getTables(molgraph.Coloring{0, 0, 1})

	// Path 1-0-2: degrees (1, 1) for color 0 after sorting... node0 deg 2,
	// node1 deg 1 => color 0 block sorted (1, 2); node2 deg 1 for color 1.
	X := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {0, 2}}))
	defer X.Reclaim()

	// [edges, sorted degs color 0, degs color 1, pairs (0,0) (0,1) (1,1)]
	expect := molgraph.Invariant{2, 1, 2, 1, 1, 1, 0}
	if !X.Invariant().IsEqual(expect) {
		t.Fatalf("invariant mismatch: expected %v, got %v", expect, X.Invariant())
	}

	// The mirrored path 0-1, 1-2 has the same invariant and is isomorphic
	// under swapping nodes 0 and 1.
	Y := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {1, 2}}))
	defer Y.Reclaim()

	if !X.Invariant().IsEqual(Y.Invariant()) {
		t.Fatal("isomorphic graphs must share an invariant")
	}
	if !X.IsoEqual(Y) || !Y.IsoEqual(X) {
		t.Fatal("mirrored paths must be isomorphic")
	}
}

func TestIsoEqual(t *testing.T) {
	// With all nodes distinct (one color each), no two different adjacency
	// sets are ever isomorphic.
	tb := getTables(molgraph.Coloring{0, 1, 2})
	X := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {1, 2}}))
	Y := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {0, 2}}))
	defer X.Reclaim()
	defer Y.Reclaim()

	if X.IsoEqual(Y) {
		t.Fatal("distinctly colored paths through different centers are not isomorphic")
	}
	if !X.IsoEqual(X) {
		t.Fatal("a graph is isomorphic to itself")
	}
	if X.IsoEqual(nil) {
		t.Fatal("nil comparand")
	}

	// Same adjacency sets under an all-same coloring ARE isomorphic.
	tbSame := getTables(molgraph.Coloring{0, 0, 0})
	A := newGraph(tbSame, edgesTriu(tbSame, [][2]int{{0, 1}, {1, 2}}))
	B := newGraph(tbSame, edgesTriu(tbSame, [][2]int{{0, 1}, {0, 2}}))
	defer A.Reclaim()
	defer B.Reclaim()
	if !A.IsoEqual(B) {
		t.Fatal("uncolored paths must be isomorphic")
	}
	if A.IsoEqual(X) {
		t.Fatal("different colorings never compare equal")
	}
}

func TestGraphDefRoundTrip(t *testing.T) {
	coloring := molgraph.Coloring{0, 0, 1, 2}
	tb := getTables(coloring)
	X := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {1, 2}, {2, 3}}))
	defer X.Reclaim()

	def := X.AppendGraphDef(nil)
	Y, err := NewGraphFromDef(def)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	defer Y.Reclaim()

	if Y.Adjacency() != X.Adjacency() || !colEqual(Y.Coloring(), X.Coloring()) {
		t.Fatal("graph def round trip mismatch")
	}

	if _, err = NewGraphFromDef(nil); err == nil {
		t.Fatal("empty def must fail")
	}
	if _, err = NewGraphFromDef([]byte{9, 0, 0}); err == nil {
		t.Fatal("truncated def must fail")
	}
}

func TestWriteAsString(t *testing.T) {
	tb := getTables(molgraph.Coloring{0, 0, 0})
	X := newGraph(tb, edgesTriu(tb, [][2]int{{0, 1}, {1, 2}}))
	defer X.Reclaim()

	var buf strings.Builder
	X.WriteAsString(&buf, molgraph.PrintOpts{Graph: true})
	out := buf.String()
	if !strings.HasPrefix(out, "n=3,e=2") || !strings.Contains(out, "0-1") {
		t.Fatalf("unexpected rendering: %q", out)
	}

	buf.Reset()
	X.SetLabels([]string{"C", "C", "O"})
	X.WriteAsString(&buf, molgraph.PrintOpts{Graph: true, Matrix: true, Invariant: true})
	out = buf.String()
	if !strings.Contains(out, "C0-C1") || !strings.Contains(out, "inv=") || !strings.Contains(out, "|") {
		t.Fatalf("unexpected labeled rendering: %q", out)
	}
}

func TestMaxFundamentalCycle(t *testing.T) {
	tb4 := getTables(molgraph.Coloring{0, 0, 0, 0})

	cases := []struct {
		edges    [][2]int
		maxCycle int
	}{
		{[][2]int{{0, 1}, {1, 2}, {2, 3}}, 0},                         // tree
		{[][2]int{{0, 1}, {1, 2}, {0, 2}}, 3},                         // triangle
		{[][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}}, 4},                 // 4-cycle
		{[][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}, {0, 2}}, 3},         // chorded square
	}
	for _, tc := range cases {
		X := newGraph(tb4, edgesTriu(tb4, tc.edges))
		if got := maxFundamentalCycle(X); got != tc.maxCycle {
			t.Fatalf("edges %v: max cycle %d, expected %d", tc.edges, got, tc.maxCycle)
		}
		X.Reclaim()
	}
}
