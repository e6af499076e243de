// Package game implements the authoritative per-room state machine: a seeded
// shuffle over the bound deck, the ready/playing/paused/finished status
// machine, and the draw-history bookkeeping.
package game

import (
	"errors"
	"fmt"

	"github.com/loteria-live/backend/go/internal/v1/deck"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/shuffle"
)

// Transition errors. A rejected command leaves the state untouched; callers
// typically resync the offender with a fresh snapshot.
var (
	ErrEmptyDeck    = errors.New("cannot draw from an empty deck")
	ErrGameFinished = errors.New("game is finished; reset to draw again")
	ErrGamePaused   = errors.New("game is paused; resume to draw")
	ErrNotPaused    = errors.New("game is not paused")
)

// State is one room's game state. Not safe for concurrent use; the owning
// room serializes access.
type State struct {
	deck               deck.Deck
	shuffledIDs        []deck.ItemID
	seed               int32
	currentIndex       int
	status             protocol.Status
	isFlipped          bool
	isDetailedExpanded bool
}

// New binds a deck and shuffles it with the given seed. currentIndex starts
// at -1: nothing has been drawn yet.
func New(d deck.Deck, seed int32) (*State, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("cannot start game: %w", err)
	}
	return &State{
		deck:         d,
		shuffledIDs:  shuffle.Permute(d.IDs(), seed),
		seed:         seed,
		currentIndex: -1,
		status:       protocol.StatusReady,
	}, nil
}

// Seed returns the seed the current permutation was produced with.
func (s *State) Seed() int32 { return s.seed }

// Status returns the current game status.
func (s *State) Status() protocol.Status { return s.status }

// CurrentIndex returns the position of the current item in the shuffled
// order, or -1 before the first draw.
func (s *State) CurrentIndex() int { return s.currentIndex }

// ShuffledIDs returns the full permutation, for auditing against the seed.
func (s *State) ShuffledIDs() []deck.ItemID {
	out := make([]deck.ItemID, len(s.shuffledIDs))
	copy(out, s.shuffledIDs)
	return out
}

// CurrentItem returns the item at currentIndex, if any has been drawn.
func (s *State) CurrentItem() (deck.Item, bool) {
	if s.currentIndex < 0 || s.currentIndex >= len(s.shuffledIDs) {
		return deck.Item{}, false
	}
	return s.deck.ItemByID(s.shuffledIDs[s.currentIndex])
}

// History returns the items drawn before the current one, oldest first. The
// current item is not part of history.
func (s *State) History() []deck.Item {
	n := s.currentIndex
	if n < 0 {
		n = 0
	}
	out := make([]deck.Item, 0, n)
	for _, id := range s.shuffledIDs[:n] {
		if item, ok := s.deck.ItemByID(id); ok {
			out = append(out, item)
		}
	}
	return out
}

// Draw advances to the next item. The previous current item moves into
// history and both display toggles reset. Drawing the last item transitions
// to finished; drawing while paused or finished is rejected.
func (s *State) Draw() (deck.Item, error) {
	switch s.status {
	case protocol.StatusPaused:
		return deck.Item{}, ErrGamePaused
	case protocol.StatusFinished:
		return deck.Item{}, ErrGameFinished
	}
	if s.deck.Len() == 0 {
		return deck.Item{}, ErrEmptyDeck
	}
	if s.currentIndex+1 >= s.deck.Len() {
		// Defensive: finished should already have been set by the last draw.
		s.status = protocol.StatusFinished
		return deck.Item{}, ErrGameFinished
	}

	s.currentIndex++
	s.isFlipped = false
	s.isDetailedExpanded = false
	if s.currentIndex == s.deck.Len()-1 {
		s.status = protocol.StatusFinished
	} else {
		s.status = protocol.StatusPlaying
	}

	item, _ := s.CurrentItem()
	return item, nil
}

// Pause suspends drawing. Only meaningful while playing.
func (s *State) Pause() error {
	if s.status != protocol.StatusPlaying {
		return fmt.Errorf("cannot pause while %s", s.status)
	}
	s.status = protocol.StatusPaused
	return nil
}

// Resume returns a paused game to playing.
func (s *State) Resume() error {
	if s.status != protocol.StatusPaused {
		return ErrNotPaused
	}
	s.status = protocol.StatusPlaying
	return nil
}

// Reset reshuffles with a new seed and returns to the pristine ready state.
// Legal from every status.
func (s *State) Reset(seed int32) {
	s.seed = seed
	s.shuffledIDs = shuffle.Permute(s.deck.IDs(), seed)
	s.currentIndex = -1
	s.status = protocol.StatusReady
	s.isFlipped = false
	s.isDetailedExpanded = false
}

// SetFlipped records the card face toggle.
func (s *State) SetFlipped(flipped bool) { s.isFlipped = flipped }

// SetDetailedExpanded records the detail-panel toggle.
func (s *State) SetDetailedExpanded(expanded bool) { s.isDetailedExpanded = expanded }

// SyncFromUpdate folds a host-authored snapshot into the server state so late
// joiners see what the host display shows. The permutation and seed are
// server-owned and never change here; index and status are clamped to legal
// values relative to the bound deck.
func (s *State) SyncFromUpdate(u protocol.StateUpdate) {
	idx := u.CurrentIndex
	if idx < -1 {
		idx = -1
	}
	if idx > s.deck.Len()-1 {
		idx = s.deck.Len() - 1
	}
	s.currentIndex = idx

	switch u.Status {
	case protocol.StatusReady, protocol.StatusPlaying, protocol.StatusPaused, protocol.StatusFinished:
		s.status = u.Status
	}
	if s.status == protocol.StatusReady {
		s.currentIndex = -1
	}
	s.isFlipped = u.IsFlipped
	s.isDetailedExpanded = u.IsDetailedExpanded
}

// Snapshot builds the STATE_UPDATE frame describing the current state.
func (s *State) Snapshot() protocol.StateUpdate {
	history := s.History()
	u := protocol.StateUpdate{
		Type:               protocol.TypeStateUpdate,
		CurrentIndex:       s.currentIndex,
		TotalItems:         s.deck.Len(),
		Status:             s.status,
		HistoryCount:       len(history),
		History:            history,
		IsFlipped:          s.isFlipped,
		IsDetailedExpanded: s.isDetailedExpanded,
	}
	if item, ok := s.CurrentItem(); ok {
		u.CurrentItem = &item
	}
	return u
}
