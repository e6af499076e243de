// Package room implements the per-room runtime: membership slots, the
// authoritative game state, audience fan-out, and the reaction coalescer.
// All mutation and fan-out for a room runs under its mutex, which gives every
// participant the same total order of events.
package room

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/loteria-live/backend/go/internal/v1/deck"
	"github.com/loteria-live/backend/go/internal/v1/game"
	"github.com/loteria-live/backend/go/internal/v1/logging"
	"github.com/loteria-live/backend/go/internal/v1/metrics"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/shuffle"
	"github.com/loteria-live/backend/go/internal/v1/types"
)

// maxAuthViolations is how many unauthorized frames a connection may send
// before it is closed with BadFrame.
const maxAuthViolations = 10

// Attach errors; the transport maps these onto typed close reasons.
var (
	ErrHostSlotTaken       = errors.New("room already has a host")
	ErrControllerSlotTaken = errors.New("room already has a controller")
	ErrNoHost              = errors.New("room has no host")
	ErrGameEnded           = errors.New("game has ended")
	ErrRoomClosed          = errors.New("room is closed")
)

// Room is one live session. It exclusively owns its game state; participants
// post frames through Router and observe through their outbound queues.
type Room struct {
	ID types.RoomIDType

	mu         sync.Mutex
	state      *game.State
	host       types.ClientInterface
	controller types.ClientInterface
	spectators map[types.ParticipantIDType]types.ClientInterface

	// Host's effective sound preference, replayed to a joining controller.
	soundEnabled bool
	soundScope   protocol.SoundScope

	coalescer      *Coalescer
	authViolations map[types.ParticipantIDType]int

	onHostless func(types.RoomIDType)
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRoom creates a room bound to the given deck with a fresh random seed.
// onHostless is invoked (on its own goroutine) whenever the room loses its
// host or empties out, so the hub can schedule destruction.
func NewRoom(ctx context.Context, id types.RoomIDType, d deck.Deck, onHostless func(types.RoomIDType)) (*Room, error) {
	state, err := game.New(d, shuffle.MustSeed())
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:             id,
		state:          state,
		spectators:     make(map[types.ParticipantIDType]types.ClientInterface),
		soundEnabled:   true,
		soundScope:     protocol.ScopeBoth,
		authViolations: make(map[types.ParticipantIDType]int),
		onHostless:     onHostless,
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.coalescer = NewCoalescer(CoalescerWindow, r.emitBurst)
	return r, nil
}

// GetID returns the room ID.
func (r *Room) GetID() types.RoomIDType {
	return r.ID
}

// HasHost reports whether the host slot is occupied.
func (r *Room) HasHost() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host != nil
}

// IsEmpty reports whether no participant of any role is attached.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host == nil && r.controller == nil && len(r.spectators) == 0
}

// Seed returns the seed behind the current shuffle, for auditing.
func (r *Room) Seed() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Seed()
}

// Snapshot returns the current STATE_UPDATE view of the room.
func (r *Room) Snapshot() protocol.StateUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Snapshot()
}

// AttachHost claims the host slot. On reconnection within the grace window
// the host receives the preserved state snapshot.
func (r *Room) AttachHost(client types.ClientInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if r.host != nil {
		return ErrHostSlotTaken
	}

	r.host = client
	metrics.RoomParticipants.WithLabelValues(string(r.ID), string(types.RoleTypeHost)).Set(1)
	logging.Info(r.ctx, "Host attached",
		zap.String("room", string(r.ID)),
		zap.String("participantId", string(client.GetID())))

	// Acceptance doubles as state restore after a reconnect.
	r.sendFrameLocked(client, r.state.Snapshot())
	return nil
}

// AttachController claims the controller slot; a second controller is
// rejected. The new controller is synced with a state snapshot and the host's
// current sound preference.
func (r *Room) AttachController(client types.ClientInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.host == nil {
		return ErrNoHost
	}
	if r.controller != nil {
		return ErrControllerSlotTaken
	}

	r.controller = client
	metrics.RoomParticipants.WithLabelValues(string(r.ID), string(types.RoleTypeController)).Set(1)
	logging.Info(r.ctx, "Controller attached",
		zap.String("room", string(r.ID)),
		zap.String("participantId", string(client.GetID())))

	r.sendFrameLocked(client, r.state.Snapshot())
	r.sendFrameLocked(client, protocol.SoundPreferenceAck{
		Type:    protocol.TypeSoundPreferenceAck,
		Enabled: r.soundEnabled,
		Scope:   r.soundScope,
	})
	return nil
}

// AttachSpectator adds a read-only viewer. Joining a finished game is
// rejected so latecomers get a terminal screen instead of a dead room.
func (r *Room) AttachSpectator(client types.ClientInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.host == nil {
		return ErrNoHost
	}
	if r.state.Status() == protocol.StatusFinished {
		return ErrGameEnded
	}

	r.spectators[client.GetID()] = client
	metrics.RoomParticipants.WithLabelValues(string(r.ID), string(types.RoleTypeSpectator)).Set(float64(len(r.spectators)))

	r.notifySpectatorCountLocked()
	r.sendFrameLocked(client, r.state.Snapshot())
	return nil
}

// HandleClientDisconnect removes a departed participant. Losing the host (or
// the last participant) hands the room to the hub for grace-window cleanup.
func (r *Room) HandleClientDisconnect(client types.ClientInterface) {
	r.mu.Lock()

	hostless := false
	switch {
	case r.host == client:
		r.host = nil
		metrics.RoomParticipants.DeleteLabelValues(string(r.ID), string(types.RoleTypeHost))
		hostless = true
	case r.controller == client:
		r.controller = nil
		metrics.RoomParticipants.DeleteLabelValues(string(r.ID), string(types.RoleTypeController))
	default:
		if _, ok := r.spectators[client.GetID()]; ok {
			delete(r.spectators, client.GetID())
			metrics.RoomParticipants.WithLabelValues(string(r.ID), string(types.RoleTypeSpectator)).Set(float64(len(r.spectators)))
			r.notifySpectatorCountLocked()
		}
	}
	delete(r.authViolations, client.GetID())

	empty := r.host == nil && r.controller == nil && len(r.spectators) == 0
	r.mu.Unlock()

	logging.Info(r.ctx, "Participant disconnected",
		zap.String("room", string(r.ID)),
		zap.String("participantId", string(client.GetID())),
		zap.String("role", string(client.GetRole())))

	if (hostless || empty) && r.onHostless != nil {
		go r.onHostless(r.ID)
	}
}

// CloseRoom notifies all remaining participants with a finished-marker state
// update, disconnects them, and stops the coalescer window.
func (r *Room) CloseRoom(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeRoomLocked(reason)
}

func (r *Room) closeRoomLocked(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	logging.Info(r.ctx, "Closing room", zap.String("room", string(r.ID)), zap.String("reason", reason))

	r.coalescer.Stop()
	r.cancel()

	terminal := r.state.Snapshot()
	terminal.Status = protocol.StatusFinished

	for _, c := range r.participantsLocked() {
		r.sendFrameLocked(c, terminal)
		c.CloseWithReason(protocol.CloseGameEnded)
	}

	r.host = nil
	r.controller = nil
	r.spectators = make(map[types.ParticipantIDType]types.ClientInterface)
	metrics.RoomParticipants.DeletePartialMatch(map[string]string{"room_id": string(r.ID)})
}

// participantsLocked snapshots every attached participant.
func (r *Room) participantsLocked() []types.ClientInterface {
	var out []types.ClientInterface
	if r.host != nil {
		out = append(out, r.host)
	}
	if r.controller != nil {
		out = append(out, r.controller)
	}
	for _, c := range r.spectators {
		out = append(out, c)
	}
	return out
}

// --- Fan-out helpers ---

// sendFrameLocked encodes and enqueues a frame for a single participant.
func (r *Room) sendFrameLocked(client types.ClientInterface, f protocol.Frame) {
	data, err := protocol.Encode(f)
	if err != nil {
		logging.Error(r.ctx, "Failed to encode frame", zap.String("room", string(r.ID)), zap.Error(err))
		return
	}
	metrics.FramesTotal.WithLabelValues(string(f.FrameType()), "outbound").Inc()
	client.SendRaw(data)
}

// fanOutLocked encodes once and writes to every target. Best effort: a full
// queue on one target never blocks the others.
func (r *Room) fanOutLocked(f protocol.Frame, targets []types.ClientInterface) {
	if len(targets) == 0 {
		return
	}
	data, err := protocol.Encode(f)
	if err != nil {
		logging.Error(r.ctx, "Failed to encode fan-out frame", zap.String("room", string(r.ID)), zap.Error(err))
		return
	}
	for _, c := range targets {
		metrics.FramesTotal.WithLabelValues(string(f.FrameType()), "outbound").Inc()
		c.SendRaw(data)
	}
}

// audienceLocked computes the controller-plus-spectators audience.
func (r *Room) audienceLocked() []types.ClientInterface {
	var out []types.ClientInterface
	if r.controller != nil {
		out = append(out, r.controller)
	}
	for _, c := range r.spectators {
		out = append(out, c)
	}
	return out
}

// hostAndSpectatorsLocked computes the reaction-burst audience.
func (r *Room) hostAndSpectatorsLocked() []types.ClientInterface {
	var out []types.ClientInterface
	if r.host != nil {
		out = append(out, r.host)
	}
	for _, c := range r.spectators {
		out = append(out, c)
	}
	return out
}

func (r *Room) notifySpectatorCountLocked() {
	if r.host == nil {
		return
	}
	r.sendFrameLocked(r.host, protocol.SpectatorCount{
		Type:  protocol.TypeSpectatorCount,
		Count: len(r.spectators),
	})
}

// emitBurst is the coalescer sink: one burst frame per non-empty window,
// fanned out to the host and all spectators.
func (r *Room) emitBurst(entries []protocol.ReactionCount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	metrics.ReactionBursts.Inc()
	r.fanOutLocked(protocol.ReactionBurst{
		Type:      protocol.TypeReactionBurst,
		Reactions: entries,
	}, r.hostAndSpectatorsLocked())
}
