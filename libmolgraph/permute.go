package libmolgraph

import (
	"github.com/mol-structures/molgraph/molgraph"
)

// generatePermutations returns every node permutation that preserves the
// coloring: position i may only receive an original index of the same color.
//
// The result has exactly product(blockSize!) entries over all color blocks.
// Order among the permutations is irrelevant; the set is always consumed
// exhaustively.
func generatePermutations(coloring molgraph.Coloring) [][]byte {
	n := len(coloring)

	total := coloring.NumPermutations()
	perms := make([][]byte, 0, total)

	// Backing storage for all permutations in one allocation.
	backing := make([]byte, total*int64(n))

	var (
		current [molgraph.MaxNodes]byte
		used    uint16 // bit i set means original index i is taken
	)

	var permute func(pos int)
	permute = func(pos int) {
		if pos == n {
			row := backing[:n:n]
			backing = backing[n:]
			copy(row, current[:n])
			perms = append(perms, row)
			return
		}
		color := coloring[pos]
		for i := 0; i < n; i++ {
			if coloring[i] != color || used&(1<<i) != 0 {
				continue
			}
			used |= 1 << i
			current[pos] = byte(i)
			permute(pos + 1)
			used &^= 1 << i
		}
	}
	permute(0)

	return perms
}
