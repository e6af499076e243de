package boardgen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loteria-live/backend/go/internal/v1/shuffle"
)

// validateRequest rejects structurally bad requests before any math runs.
func validateRequest(req *Request) []string {
	var errs []string
	if len(req.Items) == 0 {
		errs = append(errs, "items must not be empty")
	}
	seen := make(map[string]bool, len(req.Items))
	for i, item := range req.Items {
		if item.ID == "" {
			errs = append(errs, fmt.Sprintf("item %d has an empty id", i))
			continue
		}
		if seen[item.ID] {
			errs = append(errs, fmt.Sprintf("duplicate item id %q", item.ID))
		}
		seen[item.ID] = true
	}
	if req.NumBoards < 1 {
		errs = append(errs, "numBoards must be at least 1")
	}
	if req.BoardConfig.Rows < 1 || req.BoardConfig.Cols < 1 {
		errs = append(errs, "boardConfig rows and cols must be at least 1")
	}
	return errs
}

// Generate runs the full pipeline for one request: frequency derivation,
// feasibility gates, solve, layout, stats. Infeasible inputs come back as an
// unsuccessful Result carrying the gate messages, not as an error; the error
// return is reserved for solver failure.
func Generate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	freqs, err := BuildFrequencies(req)
	if err != nil {
		return &Result{Success: false, Errors: []string{err.Error()}}, nil
	}

	slotsPerBoard := req.BoardConfig.Rows * req.BoardConfig.Cols
	if gateErrs := CheckFeasibility(len(req.Items), req.NumBoards, slotsPerBoard, freqs); len(gateErrs) > 0 {
		return &Result{Success: false, Errors: gateErrs}, nil
	}

	seed := shuffle.MustSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sets, bestEffort, err := Solve(ctx, req.NumBoards, slotsPerBoard, freqs, seed)
	if err != nil {
		return nil, err
	}

	layoutRNG := shuffle.NewRNG(seed)
	boards := make([]Board, len(sets))
	for b, s := range sets {
		items := make([]ItemRef, 0, s.Len())
		for _, i := range s.SortedList() {
			items = append(items, req.Items[i])
		}
		boards[b] = Board{
			ID:          uuid.New().String(),
			BoardNumber: b + 1,
			Items:       items,
			Grid:        layoutGrid(items, req.BoardConfig.Rows, req.BoardConfig.Cols, layoutRNG),
		}
	}

	stats := computeStats(sets, len(req.Items))
	stats.SeedUsed = seed
	stats.SolverUsed = SolverName
	stats.GenerationTimeMs = time.Since(start).Milliseconds()
	stats.BestEffort = bestEffort

	return &Result{Success: true, Boards: boards, Stats: &stats}, nil
}
