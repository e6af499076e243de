package boardgen

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loteria-live/backend/go/internal/v1/logging"
	"github.com/loteria-live/backend/go/internal/v1/metrics"
)

// Handler serves POST /generate. Each request gets its own solve context
// bounded by the configured budget; gin already runs handlers on separate
// goroutines, so concurrent requests solve in parallel.
type Handler struct {
	budget time.Duration
}

// NewHandler creates a generator handler with the given per-request solve
// budget.
func NewHandler(budget time.Duration) *Handler {
	return &Handler{budget: budget}
}

// Generate handles one board generation request. Malformed bodies and
// structural validation failures are 400s; infeasible but well-formed
// requests return 200 with success=false and the gate messages so the
// client can render the repair suggestions.
func (h *Handler) Generate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.BoardGenerations.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, Result{Success: false, Errors: []string{"invalid request body: " + err.Error()}})
		return
	}

	if errs := validateRequest(&req); len(errs) > 0 {
		metrics.BoardGenerations.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, Result{Success: false, Errors: errs})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.budget)
	defer cancel()

	start := time.Now()
	result, err := Generate(ctx, &req)
	metrics.BoardGenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BoardGenerations.WithLabelValues("error").Inc()
		logging.Error(c.Request.Context(), "Board generation failed",
			zap.Int("numBoards", req.NumBoards), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Result{Success: false, Errors: []string{err.Error()}})
		return
	}

	switch {
	case !result.Success:
		metrics.BoardGenerations.WithLabelValues("infeasible").Inc()
		logging.Info(c.Request.Context(), "Board generation infeasible",
			zap.Int("numBoards", req.NumBoards), zap.Strings("errors", result.Errors))
	case result.Stats.BestEffort:
		metrics.BoardGenerations.WithLabelValues("best_effort").Inc()
		logging.Warn(c.Request.Context(), "Board generation hit time budget, returning best incumbent",
			zap.Int("numBoards", req.NumBoards), zap.Int64("generationTimeMs", result.Stats.GenerationTimeMs))
	default:
		metrics.BoardGenerations.WithLabelValues("success").Inc()
		logging.Info(c.Request.Context(), "Board generation complete",
			zap.Int("numBoards", req.NumBoards),
			zap.Int("maxOverlap", result.Stats.MaxOverlap),
			zap.Int64("generationTimeMs", result.Stats.GenerationTimeMs))
	}

	c.JSON(http.StatusOK, result)
}
