// Package types holds the shared identifiers and interfaces the room and
// transport layers exchange, so neither depends on the other's package.
package types

import (
	"context"

	"github.com/loteria-live/backend/go/internal/v1/protocol"
)

// RoleType defines the participant roles in a session.
type RoleType string

// ParticipantIDType is the stable per-connection identity assigned at connect.
type ParticipantIDType string

// RoomIDType is the 4-character session code.
type RoomIDType string

// DisplayNameType is the human-readable participant name.
type DisplayNameType string

const (
	RoleTypeHost       RoleType = "host"       // Authoritative display; owns the deck
	RoleTypeController RoleType = "controller" // Remote input; at most one per room
	RoleTypeSpectator  RoleType = "spectator"  // Read-only viewer with reactions
	RoleTypeUnknown    RoleType = "unknown"
)

// ParseRole maps the ?role= query value to a RoleType.
func ParseRole(s string) RoleType {
	switch s {
	case string(RoleTypeHost):
		return RoleTypeHost
	case string(RoleTypeController):
		return RoleTypeController
	case string(RoleTypeSpectator):
		return RoleTypeSpectator
	default:
		return RoleTypeUnknown
	}
}

// ClientInterface is the behavior the room layer needs from a connection. The
// transport package implements it; rooms never see the socket.
type ClientInterface interface {
	GetID() ParticipantIDType
	GetDisplayName() DisplayNameType
	GetRole() RoleType
	SendFrame(f protocol.Frame)
	SendRaw(data []byte)
	// CloseWithReason schedules a typed close; repeated calls are no-ops.
	CloseWithReason(reason protocol.CloseReason)
}

// Roomer is the room behavior a connection needs: frame routing and
// disconnect notification.
type Roomer interface {
	GetID() RoomIDType
	Router(ctx context.Context, client ClientInterface, frame protocol.Frame)
	HandleClientDisconnect(client ClientInterface)
}
