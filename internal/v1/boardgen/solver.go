package boardgen

import (
	"context"
	"errors"
	"sort"

	"k8s.io/utils/set"

	"github.com/loteria-live/backend/go/internal/v1/shuffle"
)

// SolverName identifies the embedded solver in generation stats.
const SolverName = "greedy+local-search"

// ErrNoDistinctAssignment means a frequency-exact assignment exists but
// every attempt to keep the boards pairwise distinct failed. The feasibility
// gates make this unreachable for sane inputs.
var ErrNoDistinctAssignment = errors.New("boardgen: could not produce pairwise distinct boards")

// Solve assigns items to boards so that board b gets exactly slotsPerBoard
// distinct items and item i appears on exactly freqs[i] boards, then drives
// pairwise overlap down with 2-swap local search until it converges or ctx
// expires. The returned flag is true when the deadline cut the search short;
// the boards are still the best incumbent found.
//
// All tie-breaks draw from the seeded PRNG, so results are reproducible for
// a given (input, seed) pair whenever the search converges within budget.
func Solve(ctx context.Context, numBoards, slotsPerBoard int, freqs []int, seed int32) ([]set.Set[int], bool, error) {
	rng := shuffle.NewRNG(seed)

	boards, err := greedyAssign(numBoards, slotsPerBoard, freqs, rng)
	if err != nil {
		return nil, false, err
	}

	timedOut := localSearch(ctx, boards, rng)
	return boards, timedOut, nil
}

// greedyAssign fills boards one at a time, always taking the slotsPerBoard
// items with the most remaining appearances. Any item whose remaining count
// equals the number of unfilled boards must be on all of them, and at most
// slotsPerBoard items can be in that position at once, so largest-first
// never paints itself into a corner on a gate-checked instance.
func greedyAssign(numBoards, slotsPerBoard int, freqs []int, rng *shuffle.RNG) ([]set.Set[int], error) {
	n := len(freqs)
	remaining := make([]int, n)
	copy(remaining, freqs)

	boards := make([]set.Set[int], 0, numBoards)
	for b := 0; b < numBoards; b++ {
		order := rankedItems(remaining, rng)
		if len(order) < slotsPerBoard {
			return nil, ErrNoDistinctAssignment
		}

		board := set.New[int]()
		for _, i := range order[:slotsPerBoard] {
			board.Insert(i)
			remaining[i]--
		}

		boardsLeftAfter := numBoards - b - 1
		if isDuplicate(board, boards) {
			if !breakDuplicate(board, boards, remaining, boardsLeftAfter, rng) {
				return nil, ErrNoDistinctAssignment
			}
		}
		boards = append(boards, board)
	}
	return boards, nil
}

// rankedItems returns the indices of items with appearances left, most
// remaining first, equal counts shuffled by the PRNG.
func rankedItems(remaining []int, rng *shuffle.RNG) []int {
	order := make([]int, 0, len(remaining))
	for i, r := range remaining {
		if r > 0 {
			order = append(order, i)
		}
	}
	pri := make([]float64, len(remaining))
	for _, i := range order {
		pri[i] = rng.Float64()
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if remaining[ia] != remaining[ib] {
			return remaining[ia] > remaining[ib]
		}
		return pri[ia] < pri[ib]
	})
	return order
}

// breakDuplicate swaps one member of board for an outside item so the board
// no longer matches any earlier one. A member whose remaining count already
// equals the boards left cannot be released (it is needed on every one of
// them), so only looser members are candidates. Mutates board and remaining
// on success.
func breakDuplicate(board set.Set[int], prior []set.Set[int], remaining []int, boardsLeft int, rng *shuffle.RNG) bool {
	members := shuffle.Permute(board.SortedList(), int32(rng.Intn(1<<31-1)))
	outside := make([]int, 0, len(remaining))
	for j, r := range remaining {
		if r > 0 && !board.Has(j) {
			outside = append(outside, j)
		}
	}
	outside = shuffle.Permute(outside, int32(rng.Intn(1<<31-1)))

	for _, i := range members {
		if remaining[i]+1 > boardsLeft {
			continue
		}
		for _, j := range outside {
			board.Delete(i)
			board.Insert(j)
			if !isDuplicate(board, prior) {
				remaining[i]++
				remaining[j]--
				return true
			}
			board.Delete(j)
			board.Insert(i)
		}
	}
	return false
}

func isDuplicate(board set.Set[int], prior []set.Set[int]) bool {
	for _, p := range prior {
		if board.Equal(p) {
			return true
		}
	}
	return false
}

// localSearch runs first-improvement hill climbing on the sum of squared
// pairwise overlaps. The total overlap across all pairs is fixed by the
// frequency vector, so pushing down the squared sum flattens the worst
// pairs. Moves exchange one item between two boards, which preserves both
// the board sizes and the per-item frequencies. Returns true if the context
// deadline ended the search before it converged.
func localSearch(ctx context.Context, boards []set.Set[int], rng *shuffle.RNG) bool {
	if len(boards) < 2 {
		return false
	}

	for {
		if ctx.Err() != nil {
			return true
		}
		if !improveOnce(ctx, boards, rng) {
			return ctx.Err() != nil
		}
	}
}

// improveOnce scans board pairs from worst overlap down and applies the
// first strictly improving exchange it finds.
func improveOnce(ctx context.Context, boards []set.Set[int], rng *shuffle.RNG) bool {
	type pair struct{ p, q, overlap int }
	pairs := make([]pair, 0, len(boards)*(len(boards)-1)/2)
	for p := 0; p < len(boards); p++ {
		for q := p + 1; q < len(boards); q++ {
			pairs = append(pairs, pair{p, q, boards[p].Intersection(boards[q]).Len()})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].overlap > pairs[b].overlap })

	for _, pr := range pairs {
		if ctx.Err() != nil {
			return false
		}
		if tryExchange(boards, pr.p, pr.q, rng) {
			return true
		}
	}
	return false
}

// tryExchange looks for i in p only and j in q only whose swap lowers the
// squared-overlap objective while keeping all boards distinct.
func tryExchange(boards []set.Set[int], p, q int, rng *shuffle.RNG) bool {
	onlyP := shuffle.Permute(boards[p].Difference(boards[q]).SortedList(), int32(rng.Intn(1<<31-1)))
	onlyQ := shuffle.Permute(boards[q].Difference(boards[p]).SortedList(), int32(rng.Intn(1<<31-1)))

	before := pairObjective(boards, p) + pairObjective(boards, q) - squaredOverlap(boards[p], boards[q])

	for _, i := range onlyP {
		for _, j := range onlyQ {
			applyExchange(boards, p, q, i, j)
			after := pairObjective(boards, p) + pairObjective(boards, q) - squaredOverlap(boards[p], boards[q])
			if after < before && !hasAnyDuplicate(boards, p, q) {
				return true
			}
			applyExchange(boards, p, q, j, i) // undo
		}
	}
	return false
}

// applyExchange moves item i from board p to q and item j from q to p.
func applyExchange(boards []set.Set[int], p, q, i, j int) {
	boards[p].Delete(i)
	boards[p].Insert(j)
	boards[q].Delete(j)
	boards[q].Insert(i)
}

// pairObjective sums the squared overlaps between board p and every other.
func pairObjective(boards []set.Set[int], p int) int {
	total := 0
	for r := range boards {
		if r == p {
			continue
		}
		total += squaredOverlap(boards[p], boards[r])
	}
	return total
}

func squaredOverlap(a, b set.Set[int]) int {
	o := a.Intersection(b).Len()
	return o * o
}

// hasAnyDuplicate reports whether board p or q now equals any other board.
func hasAnyDuplicate(boards []set.Set[int], p, q int) bool {
	for r := range boards {
		if r != p && boards[r].Equal(boards[p]) {
			return true
		}
		if r != q && boards[r].Equal(boards[q]) {
			return true
		}
	}
	return false
}
