package pymolgraph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-python/gpython/py"

	"github.com/mol-structures/molgraph/libmolgraph"
	"github.com/mol-structures/molgraph/libmolgraph/catalog"
	"github.com/mol-structures/molgraph/molgraph"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyGraphStreamType = py.NewType("GraphStream", "molgraph.GraphStream")
	pyCatalogType     = py.NewType("Catalog", "molgraph.Catalog")
	pyWorkspaceType   = py.NewType("Workspace", "collects active session resources and catalogs")
)

// loadColoring converts and validates the node color tuple, mirroring the
// precondition checks the core assumes have already run.
func loadColoring(nodesObj py.Object) (molgraph.Coloring, error) {
	nodeTuple, isTuple := nodesObj.(py.Tuple)
	if !isTuple {
		return nil, py.ExceptionNewf(py.TypeError, "first argument must be a tuple of integer node colors")
	}

	size := len(nodeTuple)
	if size == 0 {
		return nil, py.ExceptionNewf(py.ValueError, "node color tuple must not be empty")
	} else if size > molgraph.MaxNodes {
		return nil, py.ExceptionNewf(py.ValueError, "only up to %d nodes are supported", molgraph.MaxNodes)
	}

	// Validation runs on the untruncated values; a valid sequence starts at
	// 0 and steps by at most 1, so every accepted color fits a byte.
	coloring := make(molgraph.Coloring, 0, size)
	prev := py.Int(0)
	for i, nodeObj := range nodeTuple {
		node, isInt := nodeObj.(py.Int)
		if !isInt {
			return nil, py.ExceptionNewf(py.TypeError, "all node colors must be integers")
		}
		if node < 0 {
			return nil, py.ExceptionNewf(py.ValueError, "all node colors must be non-negative integers")
		}
		if i == 0 {
			if node != 0 {
				return nil, py.ExceptionNewf(py.ValueError, "the first node color must be 0")
			}
		} else if node != prev && node != prev+1 {
			return nil, py.ExceptionNewf(py.ValueError, "node colors must be non-decreasing and contiguous")
		}
		prev = node
		coloring = append(coloring, byte(node))
	}
	return coloring, nil
}

// loadDegreeBounds pulls max_degree and min_degree from args[1:] and kwargs.
func loadDegreeBounds(args py.Tuple, kwargs py.StringDict) (maxDegree, minDegree int, err error) {
	var maxObj, minObj py.Object
	if len(args) > 1 {
		maxObj = args[1]
	}
	if len(args) > 2 {
		minObj = args[2]
	}
	if v, present := kwargs["max_degree"]; present {
		maxObj = v
	}
	if v, present := kwargs["min_degree"]; present {
		minObj = v
	}
	if maxObj == nil || minObj == nil {
		return 0, 0, py.ExceptionNewf(py.TypeError, "expected a tuple of node colors, an integer max_degree, and an integer min_degree")
	}

	maxInt, maxIsInt := maxObj.(py.Int)
	minInt, minIsInt := minObj.(py.Int)
	if !maxIsInt || !minIsInt {
		return 0, 0, py.ExceptionNewf(py.TypeError, "max_degree and min_degree must be integers")
	}
	if minInt < 0 {
		return 0, 0, py.ExceptionNewf(py.ValueError, "min_degree must be a non-negative integer")
	}
	if maxInt < minInt {
		return 0, 0, py.ExceptionNewf(py.ValueError, "max_degree must be greater than or equal to min_degree")
	}
	return int(maxInt), int(minInt), nil
}

func edgesAsPy(edges molgraph.EdgeList) py.Object {
	pyEdges := make(py.Tuple, len(edges))
	for i, edge := range edges {
		pyEdges[i] = py.Tuple{py.Int(edge.U), py.Int(edge.V)}
	}
	return pyEdges
}

// generate(nodes, max_degree, min_degree)
//
// Returns every non-isomorphic connected graph over the colored nodes whose
// degrees all lie in [min_degree, max_degree], as a tuple of edge tuples.
func py_Generate(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "expected a tuple of integer node colors")
	}
	coloring, err := loadColoring(args[0])
	if err != nil {
		return nil, err
	}
	maxDegree, minDegree, err := loadDegreeBounds(args, kwargs)
	if err != nil {
		return nil, err
	}

	edgeLists, err := libmolgraph.GenerateEdges(coloring, maxDegree, minDegree, molgraph.EnumOpts{})
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}

	result := make(py.Tuple, len(edgeLists))
	for i, edges := range edgeLists {
		result[i] = edgesAsPy(edges)
	}
	return result, nil
}

// enum_graphs(nodes, max_degree, min_degree)
//
// Same enumeration as generate() but returns a GraphStream.
func py_EnumGraphs(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "expected a tuple of integer node colors")
	}
	coloring, err := loadColoring(args[0])
	if err != nil {
		return nil, err
	}
	maxDegree, minDegree, err := loadDegreeBounds(args, kwargs)
	if err != nil {
		return nil, err
	}

	stream, err := libmolgraph.EnumGraphs(coloring, maxDegree, minDegree, molgraph.EnumOpts{})
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return wrapGraphStream(stream), nil
}

// parse_formula(formula)
//
// Expands a composition formula such as "C2 H6 O" into a tuple of labels.
func py_ParseFormula(module py.Object, args py.Tuple) (py.Object, error) {
	var formula string
	err := py.LoadTuple(args, []interface{}{&formula})
	if err != nil {
		return nil, err
	}
	labels, err := libmolgraph.ParseFormula(formula)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	result := make(py.Tuple, len(labels))
	for i, label := range labels {
		result[i] = py.String(label)
	}
	return result, nil
}

// graph_generator(types, max_nodes, ...)
//
// Streams every unique graph over every multiset of node types for each node
// count in [min_nodes, max_nodes].  Keyword options: min_nodes, max_degree,
// min_degree, max_cycle, catalog.
func py_GraphGenerator(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 2 {
		return nil, py.ExceptionNewf(py.TypeError, "expected a tuple of node types and an integer max_nodes")
	}
	typesTuple, isTuple := args[0].(py.Tuple)
	if !isTuple {
		return nil, py.ExceptionNewf(py.TypeError, "first argument must be a tuple of node type strings")
	}
	maxNodes, isInt := args[1].(py.Int)
	if !isInt {
		return nil, py.ExceptionNewf(py.TypeError, "max_nodes must be an integer")
	}

	opts := libmolgraph.GeneratorOpts{
		MaxNodes: int(maxNodes),
	}
	opts.Types = make([]string, len(typesTuple))
	for i, typeObj := range typesTuple {
		typeStr, isStr := typeObj.(py.String)
		if !isStr {
			return nil, py.ExceptionNewf(py.TypeError, "all node types must be strings")
		}
		opts.Types[i] = string(typeStr)
	}

	py.LoadAttr(kwargs, "min_nodes", &opts.MinNodes)
	py.LoadAttr(kwargs, "max_degree", &opts.MaxDegree)
	py.LoadAttr(kwargs, "min_degree", &opts.MinDegree)
	py.LoadAttr(kwargs, "max_cycle", &opts.MaxCycleLen)
	if catObj, present := kwargs["catalog"]; present {
		cat, isCat := catObj.(pyCatalog)
		if !isCat {
			return nil, py.ExceptionNewf(py.TypeError, "catalog must be a Catalog object")
		}
		opts.Catalog = cat.Catalog
	}

	gg, err := libmolgraph.NewGraphGenerator(opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return wrapGraphStream(gg.Iterate()), nil
}

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx molgraph.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: molgraph.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := molgraph.CatalogOpts{
		DbPathName: pathname,
		ReadOnly:   (flags & READ_ONLY) != 0,
	}
	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	pyCat := pyCatalog{cat}
	return py.Object(pyCat), nil
}

type pyCatalog struct {
	molgraph.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	sel := molgraph.DefaultGraphSelector
	if len(args) > 0 {
		if err := getGraphSelector(args[0], &sel); err != nil {
			return nil, err
		}
	}
	next := molgraph.SelectFromCatalog(cat, sel)
	return wrapGraphStream(next), nil
}

func py_Catalog_NumGraphs(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	numNodes := 0
	if len(args) > 0 {
		Nn, err := py.GetInt(args[0])
		if err != nil {
			return nil, err
		}
		numNodes = int(Nn)
	}
	return py.Int(cat.NumGraphs(numNodes)), nil
}

// getGraphSelector reads selector fields from a python dict.
func getGraphSelector(obj py.Object, sel *molgraph.GraphSelector) error {
	dict, isDict := obj.(py.StringDict)
	if !isDict {
		return py.ExceptionNewf(py.TypeError, "expected a dict of selector options")
	}
	loadInt := func(name string, dst *int) error {
		valObj, present := dict[name]
		if !present {
			return nil
		}
		val, err := py.GetInt(valObj)
		if err != nil {
			return err
		}
		*dst = int(val)
		return nil
	}
	if err := loadInt("nodes_min", &sel.NodesMin); err != nil {
		return err
	}
	if err := loadInt("nodes_max", &sel.NodesMax); err != nil {
		return err
	}
	return loadInt("edges_max", &sel.EdgesMax)
}

type graphStream struct {
	*molgraph.GraphStream
}

func (stream graphStream) Type() *py.Type {
	return pyGraphStreamType
}

func wrapGraphStream(stream *molgraph.GraphStream) py.Object {
	return py.Object(graphStream{stream})
}

// Go() drains the stream, returning how many graphs passed through.
func py_GraphStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(graphStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

// EdgeLists() drains the stream, returning every graph's edge list.
func py_GraphStream_EdgeLists(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(graphStream)

	var result py.Tuple
	for X := range stream.Outlet {
		result = append(result, edgesAsPy(X.Edges()))
		X.Reclaim()
	}
	return result, nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

func py_GraphStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(graphStream)
	var pathname string

	opts := molgraph.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", atomic.AddInt32(&gOutCount, 1))
	}

	py.LoadAttr(kwargs, "graph", &opts.Graph)
	py.LoadAttr(kwargs, "matrix", &opts.Matrix)
	py.LoadAttr(kwargs, "inv", &opts.Invariant)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapGraphStream(next), nil
}

func py_GraphStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(graphStream)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "expected a Catalog object")
	}
	cat, isCat := args[0].(pyCatalog)
	if !isCat {
		return nil, py.ExceptionNewf(py.TypeError, "expected a Catalog object")
	}
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", molgraph.ErrCatalogReadOnly)
	}

	next := stream.AddTo(cat, molgraph.AddGraphOpts{})
	return wrapGraphStream(next), nil
}

func py_GraphStream_DropDupes(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(graphStream)

	// Memory resident; auto-closed when the stream closes.
	dupes := libmolgraph.NewDropDupes()
	next := stream.AddTo(dupes, molgraph.AddGraphOpts{AutoCloseAdder: true})
	return wrapGraphStream(next), nil
}

func init() {

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumGraphs"] = py.MustNewMethod("NumGraphs", py_Catalog_NumGraphs, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// GraphStream
	{
		pyGraphStreamType.Dict["Go"] = py.MustNewMethod("Go", py_GraphStream_Go, 0, "counts the number of graphs output from the GraphStream")
		pyGraphStreamType.Dict["EdgeLists"] = py.MustNewMethod("EdgeLists", py_GraphStream_EdgeLists, 0, "drains the GraphStream into a tuple of edge lists")
		pyGraphStreamType.Dict["Print"] = py.MustNewMethod("Print", py_GraphStream_Print, 0, "prints each graph from the GraphStream")
		pyGraphStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_GraphStream_AddTo, 0, "")
		pyGraphStreamType.Dict["DropDupes"] = py.MustNewMethod("DropDupes", py_GraphStream_DropDupes, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("generate", py_Generate, 0,
				"generate all unique edge configurations for a tuple of ordered node colors and min/max degrees per node"),
			py.MustNewMethod("enum_graphs", py_EnumGraphs, 0, ""),
			py.MustNewMethod("graph_generator", py_GraphGenerator, 0, ""),
			py.MustNewMethod("parse_formula", py_ParseFormula, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"MAX_NODES":   py.Int(molgraph.MaxNodes),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pymolgraph",
				Doc:  "colored graph enumeration gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
