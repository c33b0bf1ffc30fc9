package libmolgraph

import (
	"strings"
	"testing"

	"github.com/mol-structures/molgraph/molgraph"
)

func TestStreamDropDupes(t *testing.T) {
	tb := getTables(molgraph.Coloring{0, 0, 0})

	stream := molgraph.NewGraphStream()
	go func() {
		// Two representations of the path plus the triangle.
		for _, triu := range []molgraph.Triu{0b101, 0b110, 0b111, 0b101} {
			stream.PushGraph(newGraph(tb, triu))
		}
		stream.Close()
	}()

	dupes := NewDropDupes()
	count := stream.AddTo(dupes, molgraph.AddGraphOpts{AutoCloseAdder: true}).PullAll()
	if count != 2 {
		t.Fatalf("expected 2 unique graphs, got %d", count)
	}
}

func TestStreamSelectAndPrint(t *testing.T) {
	stream, err := EnumGraphs(molgraph.Coloring{0, 0, 0, 0}, 3, 1, molgraph.EnumOpts{})
	if err != nil {
		t.Fatal(err)
	}

	out := &closableBuf{}
	sel := molgraph.GraphSelector{NodesMin: 1, NodesMax: molgraph.MaxNodes, EdgesMax: 3}
	count := stream.SelectFromStream(sel).Print(out, molgraph.DefaultPrintOpts).PullAll()

	// A connected 4 node graph with only 3 edges is a spanning tree, and the
	// only two trees on 4 nodes are the path and the star.
	if count != 2 {
		t.Fatalf("expected 3 graphs under the edge cap, got %d", count)
	}
	if !out.closed {
		t.Fatal("Print must close its writer at end of stream")
	}
	if lines := strings.Count(out.buf.String(), "\n"); lines != count {
		t.Fatalf("printed %d lines for %d graphs", lines, count)
	}
}

type closableBuf struct {
	buf    strings.Builder
	closed bool
}

func (cb *closableBuf) Write(p []byte) (int, error) {
	return cb.buf.Write(p)
}

func (cb *closableBuf) Close() error {
	cb.closed = true
	return nil
}
