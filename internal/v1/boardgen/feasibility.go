package boardgen

import (
	"fmt"
	"math/big"
)

// CheckFeasibility runs the up-front gates on (N, B, S, f). It returns the
// full list of violations so a caller can fix everything in one pass; an
// empty slice means the instance is solvable.
func CheckFeasibility(n, numBoards, slotsPerBoard int, freqs []int) []string {
	var errs []string

	if n < slotsPerBoard {
		errs = append(errs, fmt.Sprintf(
			"item pool too small: %d items cannot fill a board of %d slots", n, slotsPerBoard))
	}

	total := 0
	for i, f := range freqs {
		total += f
		if f < 1 || f > numBoards {
			errs = append(errs, fmt.Sprintf(
				"item %d frequency %d out of bounds [1, %d]", i, f, numBoards))
		}
	}
	wantTotal := numBoards * slotsPerBoard
	if total != wantTotal {
		errs = append(errs, fmt.Sprintf(
			"slot balance violated: frequencies sum to %d but %d boards x %d slots = %d",
			total, numBoards, slotsPerBoard, wantTotal))
	}

	if n >= slotsPerBoard {
		distinct := binomial(n, slotsPerBoard)
		if distinct.Cmp(big.NewInt(int64(numBoards))) < 0 {
			errs = append(errs, uniquenessRepairs(n, numBoards, slotsPerBoard, distinct)...)
		}
	}

	return errs
}

// uniquenessRepairs builds the actionable messages for a C(N, S) < B
// violation: the minimum number of items to add, the largest smaller board
// size that works, and the board-count cap the current pool supports.
func uniquenessRepairs(n, numBoards, slotsPerBoard int, distinct *big.Int) []string {
	want := big.NewInt(int64(numBoards))
	errs := []string{fmt.Sprintf(
		"cannot build %d unique boards: only %s distinct %d-item boards exist for %d items",
		numBoards, distinct.String(), slotsPerBoard, n)}

	added := 0
	for m := n; binomial(m, slotsPerBoard).Cmp(want) < 0; m++ {
		added++
	}
	errs = append(errs, fmt.Sprintf("suggestion: add at least %d more item(s)", added))

	for s := slotsPerBoard - 1; s >= 1; s-- {
		if binomial(n, s).Cmp(want) >= 0 {
			errs = append(errs, fmt.Sprintf("suggestion: reduce the board to %d slots", s))
			break
		}
	}

	errs = append(errs, fmt.Sprintf("suggestion: cap the board count at %s", distinct.String()))
	return errs
}

// binomial returns C(n, k) exactly. Exact arithmetic matters here: the gate
// compares against a user-supplied board count and must not overflow.
func binomial(n, k int) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}
