package pymolgraph

import (
	"testing"

	"github.com/go-python/gpython/py"

	"github.com/mol-structures/molgraph/molgraph"
)

func TestLoadColoring(t *testing.T) {
	valid := []struct {
		nodes    py.Tuple
		coloring molgraph.Coloring
	}{
		{py.Tuple{py.Int(0)}, molgraph.Coloring{0}},
		{py.Tuple{py.Int(0), py.Int(0), py.Int(1)}, molgraph.Coloring{0, 0, 1}},
		{py.Tuple{py.Int(0), py.Int(1), py.Int(2)}, molgraph.Coloring{0, 1, 2}},
	}
	for _, tc := range valid {
		coloring, err := loadColoring(tc.nodes)
		if err != nil {
			t.Fatalf("%v: %v", tc.nodes, err)
		}
		if len(coloring) != len(tc.coloring) {
			t.Fatalf("%v: parsed as %v", tc.nodes, coloring)
		}
		for i, ci := range tc.coloring {
			if coloring[i] != ci {
				t.Fatalf("%v: parsed as %v, expected %v", tc.nodes, coloring, tc.coloring)
			}
		}
	}

	invalid := []py.Tuple{
		{},                           // empty
		{py.Int(1)},                  // first color nonzero
		{py.Int(0), py.Int(2)},       // skips a color
		{py.Int(0), py.Int(257)},     // only contiguous after byte truncation
		{py.Int(0), py.Int(256)},     // truncates to a repeat of 0
		{py.Int(0), py.Int(-1)},      // negative
		{py.Int(0), py.String("x")},  // not an integer
		make(py.Tuple, molgraph.MaxNodes+1), // too many nodes
	}
	for _, nodes := range invalid {
		if _, err := loadColoring(nodes); err == nil {
			t.Fatalf("%v should be rejected", nodes)
		}
	}

	// Not a tuple at all.
	if _, err := loadColoring(py.Int(0)); err == nil {
		t.Fatal("non-tuple input should be rejected")
	}
}
