package libmolgraph

import (
	"sort"

	"github.com/plan-systems/klog"

	"github.com/mol-structures/molgraph/molgraph"
)

// GeneratorOpts configures a GraphGenerator.
type GeneratorOpts struct {
	Types       []string         // node type labels, e.g. element symbols
	MaxNodes    int              // max nodes per graph (required, 1..MaxNodes)
	MinNodes    int              // defaults to MaxNodes
	MaxDegree   int              // defaults to MaxNodes-1
	MinDegree   int              // defaults to 1
	MaxCycleLen int              // drop graphs whose cycle basis exceeds this; 0 = no cap
	Workers     int              // per enumeration; 0 means GOMAXPROCS
	Catalog     molgraph.Catalog // optional persistent result cache
}

// GraphGenerator streams every unique graph over every multiset of node types
// drawn from Types, for each node count in [MinNodes, MaxNodes].
//
// Two multisets with the same color structure share one enumeration: labels
// are first reduced to a canonical coloring (color blocks ordered by
// descending size), enumerated once, and the results replayed per multiset.
type GraphGenerator struct {
	opts GeneratorOpts

	// memCache holds completed enumerations keyed by their enum key.
	// When a Catalog is attached it serves systems above the memory limit,
	// so only small systems stay resident.
	memCache     map[string][]molgraph.Triu
	memSizeLimit int
}

const catalogNodeFloor = 5 // systems larger than this prefer the catalog

func NewGraphGenerator(opts GeneratorOpts) (*GraphGenerator, error) {
	if len(opts.Types) == 0 {
		return nil, molgraph.ErrInvalidArity
	}
	if opts.MaxNodes < 1 || opts.MaxNodes > molgraph.MaxNodes {
		return nil, molgraph.ErrInvalidArity
	}
	if opts.MinNodes == 0 {
		opts.MinNodes = opts.MaxNodes
	}
	if opts.MinNodes < 1 || opts.MinNodes > opts.MaxNodes {
		return nil, molgraph.ErrInvalidArity
	}
	if opts.MaxDegree == 0 {
		opts.MaxDegree = opts.MaxNodes - 1
	}
	if opts.MinDegree == 0 {
		opts.MinDegree = 1
	}
	if opts.MinDegree < 0 || opts.MaxDegree < opts.MinDegree {
		return nil, molgraph.ErrInvalidDegreeBounds
	}

	gg := &GraphGenerator{
		opts:         opts,
		memCache:     make(map[string][]molgraph.Triu),
		memSizeLimit: molgraph.MaxNodes,
	}
	if opts.Catalog != nil {
		gg.memSizeLimit = catalogNodeFloor
	}
	return gg, nil
}

// Iterate streams every generated graph.  Each graph carries the labels of
// its multiset (in canonical node order); ownership passes to the caller.
func (gg *GraphGenerator) Iterate() *molgraph.GraphStream {
	stream := molgraph.NewGraphStream()

	go func() {
		defer stream.Close()
		for numNodes := gg.opts.MinNodes; numNodes <= gg.opts.MaxNodes; numNodes++ {
			gg.emitMultisets(stream, make([]int, 0, numNodes), 0, numNodes)
		}
	}()

	return stream
}

// emitMultisets recursively walks combinations-with-replacement of type
// indices and emits each resulting multiset's graphs.
func (gg *GraphGenerator) emitMultisets(stream *molgraph.GraphStream, picked []int, nextType, numNodes int) {
	if len(picked) == numNodes {
		labels := make([]string, numNodes)
		for i, ti := range picked {
			labels[i] = gg.opts.Types[ti]
		}
		gg.emitGraphs(stream, labels)
		return
	}
	for ti := nextType; ti < len(gg.opts.Types); ti++ {
		gg.emitMultisets(stream, append(picked, ti), ti, numNodes)
	}
}

func (gg *GraphGenerator) emitGraphs(stream *molgraph.GraphStream, labels []string) {
	coloring, indexOrder := CanonicalColoring(labels)
	trius := gg.edgeConfigurations(coloring, len(labels))

	// Node i of each emitted graph corresponds to labels[indexOrder[i]].
	canonicalLabels := make([]string, len(labels))
	for i, orig := range indexOrder {
		canonicalLabels[i] = labels[orig]
	}

	tb := getTables(coloring)
	for _, triu := range trius {
		X := newGraph(tb, triu)
		X.SetLabels(canonicalLabels)
		stream.PushGraph(X)
	}
}

// edgeConfigurations returns the unique adjacency sets for one canonical
// coloring, consulting the memory cache and catalog before enumerating.
func (gg *GraphGenerator) edgeConfigurations(coloring molgraph.Coloring, numNodes int) []molgraph.Triu {
	opts := gg.opts
	enumKey := molgraph.FormEnumKey(coloring, opts.MaxDegree, opts.MinDegree, opts.MaxCycleLen)

	useMemCache := numNodes <= gg.memSizeLimit
	if useMemCache {
		if trius, cached := gg.memCache[string(enumKey)]; cached {
			return trius
		}
	}

	useCatalog := opts.Catalog != nil && numNodes > catalogNodeFloor
	if useCatalog {
		if trius, found := opts.Catalog.LoadEnum(enumKey); found {
			return trius
		}
	}

	klog.V(1).Infof("enumerating coloring %v, degrees [%d..%d]", coloring, opts.MinDegree, opts.MaxDegree)

	stream, err := EnumGraphs(coloring, opts.MaxDegree, opts.MinDegree, molgraph.EnumOpts{Workers: opts.Workers})
	if err != nil {
		// Opts were validated up front; only a malformed coloring could land
		// here, and CanonicalColoring cannot produce one.
		panic(err)
	}

	var trius []molgraph.Triu
	for X := range stream.Outlet {
		keep := true
		if opts.MaxCycleLen > 0 {
			if Xg, isGraph := X.(*Graph); isGraph && maxFundamentalCycle(Xg) > opts.MaxCycleLen {
				keep = false
			}
		}
		if keep {
			trius = append(trius, X.Adjacency())
		}
		X.Reclaim()
	}

	if useMemCache {
		gg.memCache[string(enumKey)] = trius
	}
	if useCatalog && !opts.Catalog.IsReadOnly() {
		if err := opts.Catalog.StoreEnum(enumKey, coloring, trius); err != nil {
			klog.Warningf("catalog store failed: %v", err)
		}
	}
	return trius
}

// CanonicalColoring reduces an arbitrary label list to a canonical coloring:
// nodes are grouped by label and groups ordered by descending size (ties keep
// first-appearance order), so [A B A] and [C C A] both map to (0 0 1).
//
// The returned index order maps canonical node positions back to positions in
// the input: canonical node i came from labels[indexOrder[i]].
func CanonicalColoring(labels []string) (molgraph.Coloring, []int) {
	type group struct {
		label   string
		indices []int
	}
	var groups []group
	byLabel := make(map[string]int, len(labels))

	for idx, label := range labels {
		gi, seen := byLabel[label]
		if !seen {
			gi = len(groups)
			byLabel[label] = gi
			groups = append(groups, group{label: label})
		}
		groups[gi].indices = append(groups[gi].indices, idx)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].indices) > len(groups[j].indices)
	})

	coloring := make(molgraph.Coloring, 0, len(labels))
	indexOrder := make([]int, 0, len(labels))
	for color, g := range groups {
		for range g.indices {
			coloring = append(coloring, byte(color))
		}
		indexOrder = append(indexOrder, g.indices...)
	}
	return coloring, indexOrder
}
