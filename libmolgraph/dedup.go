package libmolgraph

import (
	"bytes"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/mol-structures/molgraph/molgraph"
)

// dropDupes deduplicates graphs up to color-preserving isomorphism.
//
// Graphs are bucketed by coloring + invariant in an ordered tree; exact
// isomorphism checks only run within a bucket, and only the adjacency bits of
// accepted representatives are retained, so callers keep full ownership of
// every graph they offer.
type dropDupes struct {
	buckets *redblacktree.Tree // bucketKey -> []molgraph.Triu
}

// NewDropDupes returns a GraphAdder for which TryAddGraph returns true only
// for the first graph seen of each isomorphism class.
//
// Bucketing is purely a performance optimization: correctness would hold with
// a single global bucket, at the cost of running the permutation check
// against every prior representative.
func NewDropDupes() molgraph.GraphAdder {
	return &dropDupes{
		buckets: redblacktree.NewWith(func(A, B interface{}) int {
			return bytes.Compare(A.([]byte), B.([]byte))
		}),
	}
}

func (dd *dropDupes) TryAddGraph(Xg molgraph.GraphState) bool {
	tb := getTables(Xg.Coloring())
	triu := Xg.Adjacency()

	var keyBuf [molgraph.MaxNodes + 1]byte
	key := Xg.Coloring().AppendSpecTo(keyBuf[:0])
	var invBuf molgraph.InvariantSpecBuf
	key = append(key, Xg.Invariant().AppendSpecTo(invBuf[:0])...)

	existing, found := dd.buckets.Get(key)
	if !found {
		dd.buckets.Put(append([]byte{}, key...), []molgraph.Triu{triu})
		return true
	}

	bucket := existing.([]molgraph.Triu)
	for _, prior := range bucket {
		if isoEqualTriu(tb, triu, prior) {
			return false
		}
	}

	dd.buckets.Put(append([]byte{}, key...), append(bucket, triu))
	return true
}

func (dd *dropDupes) Close() {
	dd.buckets.Clear()
}
