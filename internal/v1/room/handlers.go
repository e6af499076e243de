package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/loteria-live/backend/go/internal/v1/logging"
	"github.com/loteria-live/backend/go/internal/v1/metrics"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/shuffle"
	"github.com/loteria-live/backend/go/internal/v1/types"
)

// Router dispatches one decoded inbound frame. Authorization is by role: a
// frame type a role may not send is dropped and counted, and the offender is
// closed after repeated violations. State transitions happen here, under the
// room lock, before any fan-out.
func (r *Room) Router(ctx context.Context, client types.ClientInterface, frame protocol.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	switch client.GetRole() {
	case types.RoleTypeHost:
		r.routeHostFrameLocked(ctx, client, frame)
	case types.RoleTypeController:
		r.routeControllerFrameLocked(ctx, client, frame)
	case types.RoleTypeSpectator:
		r.routeSpectatorFrameLocked(ctx, client, frame)
	default:
		r.recordViolationLocked(ctx, client, frame)
	}
}

func (r *Room) routeHostFrameLocked(ctx context.Context, client types.ClientInterface, frame protocol.Frame) {
	switch f := frame.(type) {
	case protocol.StateUpdate:
		// The host display is authoritative for what it shows; mirror it so
		// late joiners sync to the same view, then fan out.
		r.state.SyncFromUpdate(f)
		r.fanOutLocked(f, r.audienceLocked())

	case protocol.SoundPreference:
		r.soundEnabled = f.Enabled
		if f.Scope != protocol.ScopeLocal {
			r.soundScope = f.Scope
		}

	case protocol.SoundPreferenceAck:
		if r.controller != nil {
			r.sendFrameLocked(r.controller, f)
		}

	default:
		r.recordViolationLocked(ctx, client, frame)
	}
}

func (r *Room) routeControllerFrameLocked(ctx context.Context, client types.ClientInterface, frame protocol.Frame) {
	switch f := frame.(type) {
	case protocol.GameCommand:
		if err := r.applyCommandLocked(f.Type); err != nil {
			// Illegal in the current status; resync the offender instead of
			// propagating a command the host would also reject.
			logging.Warn(ctx, "Rejected game command",
				zap.String("room", string(r.ID)),
				zap.String("command", string(f.Type)),
				zap.Error(err))
			r.sendFrameLocked(client, r.state.Snapshot())
			return
		}
		r.forwardToHostLocked(f)

	case protocol.FlipCard:
		r.state.SetFlipped(f.IsFlipped)
		r.forwardToHostLocked(f)

	case protocol.ToggleDetailed:
		r.state.SetDetailedExpanded(f.IsExpanded)
		r.forwardToHostLocked(f)

	case protocol.SoundPreference:
		if f.Scope == protocol.ScopeLocal {
			return // local preferences never leave the client
		}
		r.forwardToHostLocked(f)

	default:
		r.recordViolationLocked(ctx, client, frame)
	}
}

func (r *Room) routeSpectatorFrameLocked(ctx context.Context, client types.ClientInterface, frame protocol.Frame) {
	f, ok := frame.(protocol.Reaction)
	if !ok {
		r.recordViolationLocked(ctx, client, frame)
		return
	}
	metrics.ReactionsCoalesced.Inc()
	r.coalescer.Add(f.Emoji)
}

// applyCommandLocked runs a validated game command against the server state
// machine. Reset reseeds and reshuffles.
func (r *Room) applyCommandLocked(t protocol.FrameType) error {
	switch t {
	case protocol.TypeDrawCard:
		_, err := r.state.Draw()
		return err
	case protocol.TypePauseGame:
		return r.state.Pause()
	case protocol.TypeResumeGame:
		return r.state.Resume()
	case protocol.TypeResetGame:
		r.state.Reset(shuffle.MustSeed())
		return nil
	default:
		return nil
	}
}

func (r *Room) forwardToHostLocked(f protocol.Frame) {
	if r.host == nil {
		return // no host, nothing to drive; frame is dropped silently
	}
	r.sendFrameLocked(r.host, f)
}

// recordViolationLocked drops an unauthorized frame and closes the offender
// once it crosses the violation threshold.
func (r *Room) recordViolationLocked(ctx context.Context, client types.ClientInterface, frame protocol.Frame) {
	r.authViolations[client.GetID()]++
	count := r.authViolations[client.GetID()]

	logging.Warn(ctx, "Dropped unauthorized frame",
		zap.String("room", string(r.ID)),
		zap.String("participantId", string(client.GetID())),
		zap.String("role", string(client.GetRole())),
		zap.String("frameType", string(frame.FrameType())),
		zap.Int("violations", count))

	if count >= maxAuthViolations {
		client.CloseWithReason(protocol.CloseBadFrame)
	}
}
