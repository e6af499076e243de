package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loteria-live/backend/go/internal/v1/protocol"
)

// burstCollector gathers emitted windows for assertions.
type burstCollector struct {
	mu     sync.Mutex
	bursts [][]protocol.ReactionCount
	done   chan struct{}
}

func newBurstCollector() *burstCollector {
	return &burstCollector{done: make(chan struct{}, 16)}
}

func (b *burstCollector) emit(entries []protocol.ReactionCount) {
	b.mu.Lock()
	b.bursts = append(b.bursts, entries)
	b.mu.Unlock()
	b.done <- struct{}{}
}

func (b *burstCollector) wait(t *testing.T) []protocol.ReactionCount {
	t.Helper()
	select {
	case <-b.done:
	case <-time.After(time.Second):
		t.Fatal("no burst emitted within a second")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bursts[len(b.bursts)-1]
}

func (b *burstCollector) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bursts)
}

func TestCoalescer_AggregatesOneWindow(t *testing.T) {
	collector := newBurstCollector()
	c := NewCoalescer(20*time.Millisecond, collector.emit)
	defer c.Stop()

	// 30 claps and 5 fires land inside one window, in mixed order.
	for i := 0; i < 30; i++ {
		c.Add("👏")
		if i < 5 {
			c.Add("🔥")
		}
	}

	burst := collector.wait(t)
	require.Len(t, burst, 2)
	assert.Equal(t, protocol.ReactionCount{Emoji: "👏", Count: 30}, burst[0], "first-arrival order is preserved")
	assert.Equal(t, protocol.ReactionCount{Emoji: "🔥", Count: 5}, burst[1])
	assert.Equal(t, 1, collector.count(), "one window emits exactly one burst")
}

func TestCoalescer_EmptyWindowEmitsNothing(t *testing.T) {
	collector := newBurstCollector()
	c := NewCoalescer(10*time.Millisecond, collector.emit)
	defer c.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, collector.count())
}

func TestCoalescer_WindowsAreIndependent(t *testing.T) {
	collector := newBurstCollector()
	c := NewCoalescer(10*time.Millisecond, collector.emit)
	defer c.Stop()

	c.Add("🎉")
	first := collector.wait(t)
	assert.Equal(t, []protocol.ReactionCount{{Emoji: "🎉", Count: 1}}, first)

	c.Add("😂")
	c.Add("😂")
	second := collector.wait(t)
	assert.Equal(t, []protocol.ReactionCount{{Emoji: "😂", Count: 2}}, second, "counts reset between windows")
}

func TestCoalescer_StopDiscardsPending(t *testing.T) {
	collector := newBurstCollector()
	c := NewCoalescer(20*time.Millisecond, collector.emit)

	c.Add("👏")
	c.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, collector.count(), "pending reactions are dropped on stop")

	c.Add("👏")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, collector.count(), "a stopped coalescer accepts nothing")
}

// TestRoom_ReactionBurst exercises the full path: spectator reactions enter
// through the router and one aggregated burst frame reaches the host and all
// spectators, but not the controller.
func TestRoom_ReactionBurst(t *testing.T) {
	r, host, ctrl, s1, s2 := fullRoom(t)
	r.coalescer.window = 20 * time.Millisecond

	spectators := []*MockClient{s1, s2}
	for i := 0; i < 30; i++ {
		r.Router(context.Background(), spectators[i%2], protocol.Reaction{Type: protocol.TypeReaction, Emoji: "👏"})
	}
	for i := 0; i < 5; i++ {
		r.Router(context.Background(), spectators[i%2], protocol.Reaction{Type: protocol.TypeReaction, Emoji: "🔥"})
	}

	require.Eventually(t, func() bool {
		return len(host.FramesOfType(protocol.TypeReactionBurst)) == 1
	}, time.Second, 5*time.Millisecond, "host receives exactly one burst")

	burst := host.FramesOfType(protocol.TypeReactionBurst)[0].(protocol.ReactionBurst)
	assert.Equal(t, []protocol.ReactionCount{{Emoji: "👏", Count: 30}, {Emoji: "🔥", Count: 5}}, burst.Reactions)

	for _, s := range spectators {
		assert.Len(t, s.FramesOfType(protocol.TypeReactionBurst), 1, "spectators see the burst")
	}
	assert.Empty(t, ctrl.FramesOfType(protocol.TypeReactionBurst), "controller is not in the burst audience")
}
