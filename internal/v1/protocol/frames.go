// Package protocol defines the closed, type-discriminated frame set exchanged
// over the websocket, plus the textual JSON codec for it. Frames decode at the
// boundary into strongly typed values; nothing untyped reaches the room.
package protocol

import "github.com/loteria-live/backend/go/internal/v1/deck"

// FrameType is the mandatory discriminator carried by every frame.
type FrameType string

const (
	TypeStateUpdate        FrameType = "STATE_UPDATE"
	TypeDrawCard           FrameType = "DRAW_CARD"
	TypePauseGame          FrameType = "PAUSE_GAME"
	TypeResumeGame         FrameType = "RESUME_GAME"
	TypeResetGame          FrameType = "RESET_GAME"
	TypeFlipCard           FrameType = "FLIP_CARD"
	TypeToggleDetailed     FrameType = "TOGGLE_DETAILED"
	TypeSoundPreference    FrameType = "SOUND_PREFERENCE"
	TypeSoundPreferenceAck FrameType = "SOUND_PREFERENCE_ACK"
	TypeReaction           FrameType = "REACTION"
	TypeReactionBurst      FrameType = "REACTION_BURST"
	TypeSpectatorCount     FrameType = "SPECTATOR_COUNT"
)

// Status is the wire game-status enum. "waiting" only appears before a host
// has claimed the room and is effectively unused by v1 clients.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusReady    Status = "ready"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// SoundScope controls how far a sound preference propagates.
type SoundScope string

const (
	ScopeLocal    SoundScope = "local"
	ScopeHostOnly SoundScope = "host_only"
	ScopeBoth     SoundScope = "both"
)

// SoundSource identifies which side a sound preference originated from.
type SoundSource string

const (
	SourceHost       SoundSource = "host"
	SourceController SoundSource = "controller"
)

// Emojis is the closed reaction alphabet. Anything else fails decode.
var Emojis = map[string]struct{}{
	"👏": {}, "🎉": {}, "❤️": {}, "🔥": {}, "😂": {}, "😮": {},
}

// Frame is implemented by every protocol frame.
type Frame interface {
	FrameType() FrameType
}

// StateUpdate is the host's authoritative snapshot, fanned out to the
// controller and all spectators and replayed to late joiners.
type StateUpdate struct {
	Type               FrameType   `json:"type"`
	CurrentItem        *deck.Item  `json:"currentItem,omitempty"`
	CurrentIndex       int         `json:"currentIndex"`
	TotalItems         int         `json:"totalItems"`
	Status             Status      `json:"status"`
	HistoryCount       int         `json:"historyCount"`
	History            []deck.Item `json:"history"`
	IsFlipped          bool        `json:"isFlipped"`
	IsDetailedExpanded bool        `json:"isDetailedExpanded"`
}

func (f StateUpdate) FrameType() FrameType { return TypeStateUpdate }

// GameCommand covers the four payload-less controller commands. The concrete
// command is the Type field itself.
type GameCommand struct {
	Type FrameType `json:"type"`
}

func (f GameCommand) FrameType() FrameType { return f.Type }

// FlipCard toggles the face of the current card on the host display.
type FlipCard struct {
	Type      FrameType `json:"type"`
	IsFlipped bool      `json:"isFlipped"`
}

func (f FlipCard) FrameType() FrameType { return TypeFlipCard }

// ToggleDetailed expands or collapses the detailed-text panel.
type ToggleDetailed struct {
	Type       FrameType `json:"type"`
	IsExpanded bool      `json:"isExpanded"`
}

func (f ToggleDetailed) FrameType() FrameType { return TypeToggleDetailed }

// SoundPreference carries an enable/disable toggle with a propagation scope.
type SoundPreference struct {
	Type    FrameType   `json:"type"`
	Enabled bool        `json:"enabled"`
	Source  SoundSource `json:"source"`
	Scope   SoundScope  `json:"scope"`
}

func (f SoundPreference) FrameType() FrameType { return TypeSoundPreference }

// SoundPreferenceAck confirms the host's effective sound preference back to
// the controller.
type SoundPreferenceAck struct {
	Type    FrameType  `json:"type"`
	Enabled bool       `json:"enabled"`
	Scope   SoundScope `json:"scope"`
}

func (f SoundPreferenceAck) FrameType() FrameType { return TypeSoundPreferenceAck }

// Reaction is a single spectator emoji. Reactions are buffered by the
// coalescer, never fanned out individually.
type Reaction struct {
	Type  FrameType `json:"type"`
	Emoji string    `json:"emoji"`
}

func (f Reaction) FrameType() FrameType { return TypeReaction }

// ReactionCount is one aggregated entry of a burst.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ReactionBurst is the server-built aggregate of one coalescer window.
type ReactionBurst struct {
	Type      FrameType       `json:"type"`
	Reactions []ReactionCount `json:"reactions"`
}

func (f ReactionBurst) FrameType() FrameType { return TypeReactionBurst }

// SpectatorCount informs the host how many spectators are attached.
type SpectatorCount struct {
	Type  FrameType `json:"type"`
	Count int       `json:"count"`
}

func (f SpectatorCount) FrameType() FrameType { return TypeSpectatorCount }

// NewGameCommand builds one of the payload-less controller commands.
func NewGameCommand(t FrameType) GameCommand {
	return GameCommand{Type: t}
}

// IsGameCommand reports whether t is one of the controller game commands that
// mutate game status.
func IsGameCommand(t FrameType) bool {
	switch t {
	case TypeDrawCard, TypePauseGame, TypeResumeGame, TypeResetGame, TypeFlipCard:
		return true
	}
	return false
}
