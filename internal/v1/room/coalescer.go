package room

import (
	"sync"
	"time"

	"github.com/loteria-live/backend/go/internal/v1/protocol"
)

// CoalescerWindow is the tumbling-window length for reaction aggregation.
// Bounds burst fan-out to at most 10 frames per second per room.
const CoalescerWindow = 100 * time.Millisecond

// Coalescer aggregates per-emoji reaction counts over a tumbling window. The
// first reaction of a window arms the timer; on expiry the window flushes as
// one burst and the mapping resets. Empty windows emit nothing.
type Coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	counts  map[string]int
	order   []string // first-arrival order, preserved in the burst
	timer   *time.Timer
	emit    func([]protocol.ReactionCount)
	stopped bool
}

// NewCoalescer creates a coalescer that calls emit with the aggregated
// entries of each non-empty window. emit runs on the timer goroutine.
func NewCoalescer(window time.Duration, emit func([]protocol.ReactionCount)) *Coalescer {
	return &Coalescer{
		window: window,
		counts: make(map[string]int),
		emit:   emit,
	}
}

// Add buffers one reaction. Arms the window timer if this is the first
// reaction of the window.
func (c *Coalescer) Add(emoji string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if _, seen := c.counts[emoji]; !seen {
		c.order = append(c.order, emoji)
	}
	c.counts[emoji]++

	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.flush)
	}
}

// flush emits the window contents and resets the mapping.
func (c *Coalescer) flush() {
	c.mu.Lock()
	if c.stopped || len(c.counts) == 0 {
		c.timer = nil
		c.mu.Unlock()
		return
	}

	entries := make([]protocol.ReactionCount, 0, len(c.order))
	for _, emoji := range c.order {
		entries = append(entries, protocol.ReactionCount{Emoji: emoji, Count: c.counts[emoji]})
	}
	c.counts = make(map[string]int)
	c.order = nil
	c.timer = nil
	emit := c.emit
	c.mu.Unlock()

	emit(entries)
}

// Stop cancels any pending window. Called on room destruction; pending
// reactions are discarded.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.counts = make(map[string]int)
	c.order = nil
}
