package molgraph

import "errors"

// Errors
var (
	ErrInvalidArity        = errors.New("coloring must contain 1 to 11 nodes")
	ErrInvalidColoring     = errors.New("coloring must start at 0 and increase by at most 1")
	ErrInvalidDegreeBounds = errors.New("degree bounds must satisfy 0 <= minDegree <= maxDegree")
	ErrNilGraph            = errors.New("nil graph")
	ErrColoringMismatch    = errors.New("graphs do not share a coloring")
	ErrBadGraphDef         = errors.New("bad graph encoding")
	ErrBadCatalogParam     = errors.New("bad catalog param")
	ErrCatalogReadOnly     = errors.New("catalog is in read-only mode")
	ErrBadFormula          = errors.New("bad composition formula")
	ErrUnmarshal           = errors.New("unmarshal failed")
)
