package layout

import (
	"math/rand/v2"

	"github.com/nvandessel/neuralgraph/internal/contrib"
)

// DefaultDiscoverySeed seeds the discovery shuffle so repeated runs over
// the same grid reveal cells in the same order.
const DefaultDiscoverySeed = 42

// NewDiscoveryRand returns the deterministic source used for discovery
// ordering.
func NewDiscoveryRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// DiscoveryOrder assigns every active cell of g a distinct index in
// 0..k-1, where k is the number of active cells. Cells are collected in
// column-major order and then shuffled with rng.
func DiscoveryOrder(g *contrib.Grid, rng *rand.Rand) map[Cell]int {
	var cells []Cell
	for x := 0; x < contrib.Weeks; x++ {
		for y := 0; y < contrib.Days; y++ {
			if g.At(x, y) > 0 {
				cells = append(cells, Cell{x, y})
			}
		}
	}

	rng.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	order := make(map[Cell]int, len(cells))
	for i, c := range cells {
		order[c] = i
	}
	return order
}
