package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loteria-live/backend/go/internal/v1/deck"
	"github.com/loteria-live/backend/go/internal/v1/logging"
	"github.com/loteria-live/backend/go/internal/v1/metrics"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/ratelimit"
	"github.com/loteria-live/backend/go/internal/v1/room"
	"github.com/loteria-live/backend/go/internal/v1/types"
)

// hostGracePeriod is how long a hostless room is held for a host
// reconnection before it is closed and destroyed.
const hostGracePeriod = 5 * time.Second

// HeaderRoomCode carries a server-generated room code back to a host that
// connected without one. It rides the websocket handshake response.
const HeaderRoomCode = "X-Room-Code"

// Hub is the process-wide registry of live rooms and the websocket entry
// point. The registry mutex is touched only at connect and room
// creation/destruction.
type Hub struct {
	rooms               map[types.RoomIDType]*room.Room
	mu                  sync.Mutex
	pendingRoomCleanups map[types.RoomIDType]*time.Timer
	cleanupGracePeriod  time.Duration
	deck                deck.Deck
	rateLimiter         *ratelimit.RateLimiter
	allowedOrigins      []string
}

// NewHub creates a hub serving rooms bound to the given deck.
func NewHub(d deck.Deck, rl *ratelimit.RateLimiter, allowedOrigins []string) *Hub {
	return &Hub{
		rooms:               make(map[types.RoomIDType]*room.Room),
		pendingRoomCleanups: make(map[types.RoomIDType]*time.Timer),
		cleanupGracePeriod:  hostGracePeriod,
		deck:                d,
		rateLimiter:         rl,
		allowedOrigins:      allowedOrigins,
	}
}

// RoomCount returns the number of live rooms. Used by the readiness probe.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// ServeWs upgrades the connection and binds it to a room under the requested
// role. A host connecting without a code is assigned a generated one, echoed
// in the handshake response so the client can share it. Capacity and
// lifecycle rejections are delivered as typed websocket close frames so
// clients can render them.
func (h *Hub) ServeWs(c *gin.Context) {
	if h.rateLimiter != nil && !h.rateLimiter.CheckWebSocket(c) {
		return
	}

	roomID := types.RoomIDType(strings.ToUpper(c.Param("roomId")))
	role := types.ParseRole(c.Query("role"))
	if role == types.RoleTypeUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be host, controller, or spectator"})
		return
	}

	var respHeader http.Header
	if roomID == "" {
		if role != types.RoleTypeHost {
			c.JSON(http.StatusNotFound, gin.H{"error": "room code required"})
			return
		}
		roomID = h.generateRoomID()
		respHeader = http.Header{HeaderRoomCode: []string{string(roomID)}}
	}

	conn, err := h.upgradeWebSocket(c, respHeader)
	if err != nil {
		return
	}

	if !room.ValidRoomID(roomID) {
		rejectConn(conn, protocol.CloseBadFrame)
		return
	}

	displayName := types.DisplayNameType(c.Query("name"))
	client := NewClient(conn, types.ParticipantIDType(uuid.New().String()), displayName, role)

	r, reason := h.bindClient(roomID, role, client)
	if reason != "" {
		rejectConn(conn, reason)
		return
	}
	client.room = r

	metrics.IncConnection()
	logging.Info(c.Request.Context(), "Participant connected",
		zap.String("roomId", string(roomID)),
		zap.String("participantId", string(client.ID)),
		zap.String("role", string(role)))

	go client.writePump()
	go client.readPump()
}

// bindClient attaches the client to its room per role, returning the close
// reason on rejection.
func (h *Hub) bindClient(roomID types.RoomIDType, role types.RoleType, client *Client) (*room.Room, protocol.CloseReason) {
	switch role {
	case types.RoleTypeHost:
		r, err := h.claimRoom(roomID)
		if err != nil {
			logging.Error(context.Background(), "Failed to create room", zap.String("roomId", string(roomID)), zap.Error(err))
			return nil, protocol.CloseInternalError
		}
		if err := r.AttachHost(client); err != nil {
			return nil, closeReasonFor(err)
		}
		return r, ""

	case types.RoleTypeController:
		r := h.getRoom(roomID)
		if r == nil {
			return nil, protocol.CloseRoomNotFound
		}
		if err := r.AttachController(client); err != nil {
			return nil, closeReasonFor(err)
		}
		return r, ""

	default: // spectator
		r := h.getRoom(roomID)
		if r == nil {
			return nil, protocol.CloseRoomNotFound
		}
		if err := r.AttachSpectator(client); err != nil {
			return nil, closeReasonFor(err)
		}
		return r, ""
	}
}

// closeReasonFor maps room attach errors onto wire close reasons.
func closeReasonFor(err error) protocol.CloseReason {
	switch err {
	case room.ErrHostSlotTaken, room.ErrControllerSlotTaken:
		return protocol.CloseAlreadyConnected
	case room.ErrGameEnded:
		return protocol.CloseGameEnded
	case room.ErrNoHost, room.ErrRoomClosed:
		return protocol.CloseRoomNotFound
	default:
		return protocol.CloseInternalError
	}
}

// generateRoomID draws codes until one misses the live registry. The room
// itself is claimed on attach, same as a client-supplied code; the losing
// side of a claim race is turned away AlreadyConnected like any other
// second host.
func (h *Hub) generateRoomID() types.RoomIDType {
	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		id := room.NewRoomID()
		if _, taken := h.rooms[id]; !taken {
			return id
		}
	}
}

// getRoom returns the live room for an ID, or nil.
func (h *Hub) getRoom(roomID types.RoomIDType) *room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID]
}

// claimRoom retrieves or creates the room for a host join, cancelling any
// pending grace-window cleanup on reconnection.
func (h *Hub) claimRoom(roomID types.RoomIDType) (*room.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[roomID]; ok {
		if timer, pending := h.pendingRoomCleanups[roomID]; pending {
			timer.Stop()
			delete(h.pendingRoomCleanups, roomID)
			logging.Info(context.Background(), "Cancelled pending room cleanup due to host reconnection",
				zap.String("roomId", string(roomID)))
		}
		return r, nil
	}

	logging.Info(context.Background(), "Creating room", zap.String("roomId", string(roomID)))
	r, err := room.NewRoom(context.Background(), roomID, h.deck, h.scheduleCleanup)
	if err != nil {
		return nil, err
	}
	h.rooms[roomID] = r
	metrics.ActiveRooms.Inc()
	return r, nil
}

// scheduleCleanup arms the grace-window timer for a hostless or empty room.
// If a host reconnects before it fires, claimRoom cancels it.
func (h *Hub) scheduleCleanup(roomID types.RoomIDType) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.pendingRoomCleanups[roomID]; ok {
		existing.Stop()
		delete(h.pendingRoomCleanups, roomID)
	}

	timer := time.AfterFunc(h.cleanupGracePeriod, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		delete(h.pendingRoomCleanups, roomID)
		r, ok := h.rooms[roomID]
		if !ok {
			return
		}
		if r.HasHost() {
			logging.Info(context.Background(), "Cancelled room cleanup - host returned",
				zap.String("roomId", string(roomID)))
			return
		}

		if !r.IsEmpty() {
			logging.Info(context.Background(), "Closing hostless room", zap.String("roomId", string(roomID)))
		}
		r.CloseRoom("host did not return within grace period")
		delete(h.rooms, roomID)
		metrics.ActiveRooms.Dec()
		logging.Info(context.Background(), "Removed room after grace period", zap.String("roomId", string(roomID)))
	})

	h.pendingRoomCleanups[roomID] = timer
}

// Shutdown gracefully closes all active rooms and connections.
func (h *Hub) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "Shutting down Hub - closing all active rooms...")

	h.mu.Lock()
	for roomID, timer := range h.pendingRoomCleanups {
		timer.Stop()
		delete(h.pendingRoomCleanups, roomID)
	}

	rooms := make([]*room.Room, 0, len(h.rooms))
	for id, r := range h.rooms {
		rooms = append(rooms, r)
		delete(h.rooms, id)
		metrics.ActiveRooms.Dec()
	}
	h.mu.Unlock()

	for _, r := range rooms {
		r.CloseRoom("server shutting down")
	}

	logging.Info(ctx, "All rooms closed", zap.Int("count", len(rooms)))
	return nil
}
