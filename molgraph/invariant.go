package molgraph

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Invariant is a graph's structural signature: total edge count, then each
// color block's sorted degree sequence in increasing color order, then the
// edge count for every color pair (a,b), a <= b, in increasing (a,b) order.
//
// Isomorphic graphs always have equal Invariants; the converse does not hold,
// so an Invariant is a cheap reject filter, not a canonical label.
type Invariant []int64

// InvariantSpec is a binary encoding of an Invariant, used as a bucket and
// db key.  Each element is varint encoded in order.
type InvariantSpec []byte

// InvariantSpecBuf is large enough to hold any InvariantSpec:
// 1 + MaxNodes values plus one value per color pair.
type InvariantSpecBuf [(1 + MaxNodes + MaxNodes*(MaxNodes+1)/2) * binary.MaxVarintLen64]byte

// IsEqual returns whether two invariants are element-wise identical.
func (inv Invariant) IsEqual(other Invariant) bool {
	if len(inv) != len(other) {
		return false
	}
	for i, vi := range inv {
		if vi != other[i] {
			return false
		}
	}
	return true
}

// AppendSpecTo appends a canonical binary encoding of inv to out, returning
// it as an InvariantSpec.
func (inv Invariant) AppendSpecTo(out []byte) InvariantSpec {
	var scrap [binary.MaxVarintLen64]byte

	for _, vi := range inv {
		n := binary.PutVarint(scrap[:], vi)
		out = append(out, scrap[:n]...)
	}
	return out
}

// SetLen resizes inv, reusing its backing array when possible.
func (inv *Invariant) SetLen(numElems int) {
	if cap(*inv) < numElems {
		dimLen := numElems
		if dimLen < 16 {
			dimLen = 16 // prevent rapid resizing
		}
		*inv = make([]int64, numElems, dimLen)
	} else {
		*inv = (*inv)[:numElems]
	}
}

// InitFromSpec assigns inv from an encoding made with AppendSpecTo.
func (inv *Invariant) InitFromSpec(spec InvariantSpec) error {
	out := (*inv)[:0]
	rdr := bytes.NewReader(spec)

	for {
		vi, err := binary.ReadVarint(rdr)
		if err != nil {
			if err == io.EOF {
				break
			}
			return ErrUnmarshal
		}
		out = append(out, vi)
	}

	*inv = out
	return nil
}
