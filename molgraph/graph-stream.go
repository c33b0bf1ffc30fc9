package molgraph

import (
	"fmt"
	"io"
	"strings"
)

// AddGraphOpts modifies GraphStream.AddTo behavior.
type AddGraphOpts struct {
	AutoCloseAdder bool
}

// GraphStream is an async pipeline of graphs.
//
// Each stage owns the graphs it pulls from its upstream Outlet and either
// passes them downstream or reclaims them.
type GraphStream struct {
	Outlet chan GraphState
}

func NewGraphStream() *GraphStream {
	stream := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}
	return stream
}

// StreamGraph returns a stream that emits the single given graph.
func StreamGraph(X GraphState) *GraphStream {
	next := NewGraphStream()

	go func() {
		next.Outlet <- X
		next.Close()
	}()

	return next
}

func (stream *GraphStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *GraphStream) PushGraph(X GraphState) {
	stream.Outlet <- X
}

func (stream *GraphStream) PullGraph() GraphState {
	X := <-stream.Outlet
	return X
}

// PullAll drains this stream, reclaiming every graph, and returns how many
// graphs passed through.
func (stream *GraphStream) PullAll() int {
	count := 0
	for X := range stream.Outlet {
		count++
		X.Reclaim()
	}
	return count
}

// PullEdgeLists drains this stream, collecting every graph's edge list.
func (stream *GraphStream) PullEdgeLists() []EdgeList {
	var all []EdgeList
	for X := range stream.Outlet {
		all = append(all, X.Edges())
		X.Reclaim()
	}
	return all
}

// Print writes each passing graph to out and forwards it downstream.
func (stream *GraphStream) Print(out io.WriteCloser, opts PrintOpts) *GraphStream {
	next := NewGraphStream()

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for X := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			X.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- X
		}
		out.Close()
		next.Close()
	}()

	return next
}

// AddTo offers each graph to target, forwarding only graphs that were added.
func (stream *GraphStream) AddTo(target GraphAdder, opts AddGraphOpts) *GraphStream {
	next := NewGraphStream()

	go func() {
		for X := range stream.Outlet {
			wasAdded := target.TryAddGraph(X)
			if wasAdded {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		if opts.AutoCloseAdder {
			target.Close()
		}
		next.Close()
	}()

	return next
}

// SelectFromStream forwards only graphs passing the given selector.
func (stream *GraphStream) SelectFromStream(sel GraphSelector) *GraphStream {
	next := NewGraphStream()

	go func() {
		for X := range stream.Outlet {
			if sel.AllowGraph(X) {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

// SelectFromCatalog streams all graphs in cat passing the given selector.
func SelectFromCatalog(cat Catalog, sel GraphSelector) *GraphStream {
	next := NewGraphStream()

	onHit := make(chan GraphState, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for X := range onHit {
			if sel.AllowGraph(X) {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}
