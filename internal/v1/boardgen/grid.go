package boardgen

import (
	"github.com/loteria-live/backend/go/internal/v1/shuffle"
)

// layoutGrid arranges a board's items into rows x cols cells. Cell order is
// a per-board permutation drawn from the request PRNG, so two boards with
// overlapping item sets still look different on screen. Layout has no effect
// on the uniqueness or overlap guarantees, which are about item sets.
func layoutGrid(items []ItemRef, rows, cols int, rng *shuffle.RNG) [][]ItemRef {
	placed := shuffle.Permute(items, int32(rng.Intn(1<<31-1)))

	grid := make([][]ItemRef, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]ItemRef, cols)
		for c := 0; c < cols; c++ {
			grid[r][c] = placed[r*cols+c]
		}
	}
	return grid
}
