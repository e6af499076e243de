// Package boardgen generates batches of distinct R×C boards from an item
// pool, honoring an exact per-item frequency vector and minimizing pairwise
// overlap. Generation is deterministic for a given request seed.
package boardgen

// ItemRef identifies one item of the request pool.
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GridConfig is the board geometry. S = Rows*Cols slots per board.
type GridConfig struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Group assigns one frequency to a contiguous index range [StartIndex,
// EndIndex] of the item list.
type Group struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
	Frequency  int `json:"frequency"`
}

// ItemFrequency assigns a frequency to a single item by ID.
type ItemFrequency struct {
	ItemID    string `json:"itemId"`
	Frequency int    `json:"frequency"`
}

// Distribution types.
const (
	DistUniform = "uniform"
	DistGrouped = "grouped"
	DistCustom  = "custom"
)

// Distribution selects how target frequencies are derived.
type Distribution struct {
	Type        string          `json:"type"`
	Groups      []Group         `json:"groups,omitempty"`
	Frequencies []ItemFrequency `json:"frequencies,omitempty"`
}

// Request is the POST /generate body.
type Request struct {
	Items        []ItemRef    `json:"items"`
	NumBoards    int          `json:"numBoards"`
	BoardConfig  GridConfig   `json:"boardConfig"`
	Distribution Distribution `json:"distribution"`
	Seed         *int32       `json:"seed,omitempty"`
}

// Board is one generated board: the selected item set plus its grid layout.
// Uniqueness constraints apply to the item set, not grid positions.
type Board struct {
	ID          string      `json:"id"`
	BoardNumber int         `json:"boardNumber"`
	Items       []ItemRef   `json:"items"`
	Grid        [][]ItemRef `json:"grid"`
}

// Stats summarizes batch quality.
type Stats struct {
	MaxOverlap        int     `json:"maxOverlap"`
	AvgOverlap        float64 `json:"avgOverlap"`
	JaccardMin        float64 `json:"jaccardMin"`
	JaccardAvg        float64 `json:"jaccardAvg"`
	JaccardMax        float64 `json:"jaccardMax"`
	FrequencyVariance float64 `json:"frequencyVariance"`
	SeedUsed          int32   `json:"seedUsed"`
	SolverUsed        string  `json:"solverUsed"`
	GenerationTimeMs  int64   `json:"generationTimeMs"`
	BestEffort        bool    `json:"bestEffort"`
}

// Result is the POST /generate response body.
type Result struct {
	Success bool     `json:"success"`
	Boards  []Board  `json:"boards,omitempty"`
	Stats   *Stats   `json:"stats,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
