package libmolgraph

import (
	"runtime"
	"sync"

	"github.com/mol-structures/molgraph/molgraph"
)

// GenerateEdges enumerates every non-isomorphic connected graph over the
// given coloring whose node degrees all lie in [minDegree, maxDegree],
// returning one sorted edge list per isomorphism class.
//
// Which representative of a class is returned is unspecified, but the set of
// classes is deterministic.  A single node coloring yields exactly one empty
// edge list.
func GenerateEdges(coloring molgraph.Coloring, maxDegree, minDegree int, opts molgraph.EnumOpts) ([]molgraph.EdgeList, error) {
	stream, err := EnumGraphs(coloring, maxDegree, minDegree, opts)
	if err != nil {
		return nil, err
	}
	edgeLists := stream.PullEdgeLists()
	if edgeLists == nil {
		edgeLists = []molgraph.EdgeList{}
	}
	return edgeLists, nil
}

// EnumGraphs runs the same enumeration as GenerateEdges but streams each
// unique graph as it is accepted.  Ownership of each graph passes to the
// caller.
func EnumGraphs(coloring molgraph.Coloring, maxDegree, minDegree int, opts molgraph.EnumOpts) (*molgraph.GraphStream, error) {
	if err := coloring.Validate(); err != nil {
		return nil, err
	}
	if minDegree < 0 || maxDegree < minDegree {
		return nil, molgraph.ErrInvalidDegreeBounds
	}

	tb := getTables(coloring)
	stream := molgraph.NewGraphStream()

	go func() {
		defer stream.Close()

		if tb.numNodes == 1 {
			// A single node has no edge candidates but is trivially connected.
			stream.PushGraph(newGraph(tb, 0))
			return
		}

		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}

		candidates := enumerateCandidates(tb, maxDegree, minDegree, workers)
		connected := buildConnected(tb, candidates, workers)

		// Deduplication is sequential: representatives are kept in first-seen
		// order, so the processing order must be single threaded.
		dupes := NewDropDupes()
		for _, X := range connected {
			if dupes.TryAddGraph(X) {
				stream.PushGraph(X)
			} else {
				X.Reclaim()
			}
		}
		dupes.Close()
	}()

	return stream, nil
}

// enumerateCandidates walks, for every edge count in range, all adjacency
// bitsets with that many edges, keeping those that satisfy the degree bounds.
//
// The edge-count floor of numNodes-1 is the spanning-tree lower bound: it is
// purely a prune, connectivity is still checked per candidate later.  The
// walk is parallel across edge counts; each count accumulates into a private
// slice and the slices are concatenated afterward.
func enumerateCandidates(tb *enumTables, maxDegree, minDegree, workers int) []*candidateSet {
	// A degree can never exceed numNodes-1, so clamp before sizing the
	// edge-count range (also keeps the multiplication from overflowing for
	// huge but valid bounds).
	if maxDegree > tb.numNodes-1 {
		maxDegree = tb.numNodes - 1
	}
	totalMaxEdges := tb.numNodes * maxDegree / 2
	if totalMaxEdges > tb.triuSize {
		totalMaxEdges = tb.triuSize
	}
	minEdges := tb.numNodes - 1

	if totalMaxEdges < minEdges {
		return nil // empty range, empty result
	}

	results := make([]*candidateSet, totalMaxEdges-minEdges+1)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for numEdges := minEdges; numEdges <= totalMaxEdges; numEdges++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(numEdges int) {
			defer wg.Done()
			results[numEdges-minEdges] = walkEdgeCount(tb, numEdges, maxDegree, minDegree)
			<-sem
		}(numEdges)
	}
	wg.Wait()

	return results
}

// candidateSet is one edge count's private accumulator.
type candidateSet struct {
	trius []molgraph.Triu
}

// walkEdgeCount visits every bitset with exactly numEdges bits set, from the
// numEdges lowest bits up through the numEdges highest, via the same-popcount
// successor step.
func walkEdgeCount(tb *enumTables, numEdges, maxDegree, minDegree int) *candidateSet {
	set := &candidateSet{}

	v := molgraph.Triu(1)<<numEdges - 1
	end := v << (tb.triuSize - numEdges)
	for v <= end {
		if checkDegrees(v, tb.degreeFilter, maxDegree, minDegree) {
			set.trius = append(set.trius, v)
		}
		v = v.Next()
	}
	return set
}

// buildConnected constructs a Graph per candidate and keeps the connected
// ones.  Parallel across candidate chunks; each worker accumulates into a
// private slice and the slices are concatenated afterward.
func buildConnected(tb *enumTables, candidates []*candidateSet, workers int) []*Graph {
	total := 0
	for _, set := range candidates {
		if set != nil {
			total += len(set.trius)
		}
	}
	flat := make([]molgraph.Triu, 0, total)
	for _, set := range candidates {
		if set != nil {
			flat = append(flat, set.trius...)
		}
	}

	if workers > len(flat) {
		workers = len(flat)
	}
	if workers <= 1 {
		return buildConnectedChunk(tb, flat)
	}

	chunks := make([][]*Graph, workers)
	var wg sync.WaitGroup
	chunkLen := (len(flat) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunkLen
		hi := lo + chunkLen
		if hi > len(flat) {
			hi = len(flat)
		}
		wg.Add(1)
		go func(w int, trius []molgraph.Triu) {
			defer wg.Done()
			chunks[w] = buildConnectedChunk(tb, trius)
		}(w, flat[lo:hi])
	}
	wg.Wait()

	var graphs []*Graph
	for _, chunk := range chunks {
		graphs = append(graphs, chunk...)
	}
	return graphs
}

func buildConnectedChunk(tb *enumTables, trius []molgraph.Triu) []*Graph {
	var graphs []*Graph
	for _, triu := range trius {
		X := newGraph(tb, triu)
		if X.IsConnected() {
			graphs = append(graphs, X)
		} else {
			X.Reclaim()
		}
	}
	return graphs
}
