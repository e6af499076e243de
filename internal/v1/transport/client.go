package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/loteria-live/backend/go/internal/v1/logging"
	"github.com/loteria-live/backend/go/internal/v1/metrics"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/types"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second
	// pingPeriod is the heartbeat interval.
	pingPeriod = 20 * time.Second
	// pongWait allows two missed pongs (plus scheduling slack) before the
	// read deadline fires and the connection is closed HeartbeatLost.
	pongWait = 2*pingPeriod + 10*time.Second
	// sendQueueDepth is the outbound frame queue; overflow closes the
	// connection SlowConsumer.
	sendQueueDepth = 64
	// maxFrameBytes caps a single inbound frame.
	maxFrameBytes = 64 * 1024
)

// wsConnection is the subset of *websocket.Conn the client uses; tests
// substitute a mock.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
}

// Client is a single participant's connection: one read pump decoding frames
// into the room, one write pump draining the outbound queue. It implements
// types.ClientInterface.
type Client struct {
	conn        wsConnection
	room        types.Roomer
	ID          types.ParticipantIDType
	DisplayName types.DisplayNameType
	Role        types.RoleType

	mu          sync.RWMutex
	closed      bool
	closeReason protocol.CloseReason
	closeOnce   sync.Once

	send chan []byte
}

// NewClient wraps an upgraded connection. The room is bound by the hub
// before the pumps start.
func NewClient(conn wsConnection, id types.ParticipantIDType, name types.DisplayNameType, role types.RoleType) *Client {
	return &Client{
		conn:        conn,
		ID:          id,
		DisplayName: name,
		Role:        role,
		send:        make(chan []byte, sendQueueDepth),
	}
}

func (c *Client) GetID() types.ParticipantIDType {
	return c.ID
}

func (c *Client) GetDisplayName() types.DisplayNameType {
	return c.DisplayName
}

func (c *Client) GetRole() types.RoleType {
	return c.Role
}

// SendFrame encodes and enqueues a frame for this participant.
func (c *Client) SendFrame(f protocol.Frame) {
	data, err := protocol.Encode(f)
	if err != nil {
		logging.Error(context.Background(), "Failed to encode frame", zap.Error(err))
		return
	}
	c.SendRaw(data)
}

// SendRaw enqueues pre-encoded bytes. A full queue means the peer cannot
// keep up; the connection is closed rather than letting the room block.
// The read lock is held across the channel send so CloseWithReason cannot
// close the channel underneath an in-flight sender.
func (c *Client) SendRaw(data []byte) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}

	select {
	case c.send <- data:
		c.mu.RUnlock()
	default:
		c.mu.RUnlock()
		logging.Warn(context.Background(), "Outbound queue full, dropping slow consumer",
			zap.String("participantId", string(c.ID)))
		c.CloseWithReason(protocol.CloseSlowConsumer)
	}
}

// CloseWithReason schedules a typed close. The write pump drains the queue,
// sends the close frame, and tears down the socket. Safe to call repeatedly;
// only the first reason wins.
func (c *Client) CloseWithReason(reason protocol.CloseReason) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.closeReason = reason
		// Closing under the write lock serializes against senders, which hold
		// the read lock from the closed-flag check through the channel send.
		close(c.send)
		c.mu.Unlock()

		if reason != "" {
			metrics.ConnectionCloses.WithLabelValues(string(reason)).Inc()
		}
	})
}

func (c *Client) getCloseReason() protocol.CloseReason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closeReason
}

// readPump decodes inbound frames and dispatches them into the room. It owns
// disconnect detection: read errors, heartbeat loss, and malformed frames
// all end here.
func (c *Client) readPump() {
	defer func() {
		// Closing the send channel hands teardown to the write pump, which
		// drains the queue, delivers the typed close frame, and only then
		// closes the socket.
		c.CloseWithReason("")
		if c.room != nil {
			c.room.HandleClientDisconnect(c)
		}
		metrics.DecConnection()
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.CloseWithReason(protocol.CloseHeartbeatLost)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := protocol.Decode(data)
		if err != nil {
			logging.Warn(context.Background(), "Failed to decode frame",
				zap.String("participantId", string(c.ID)), zap.Error(err))
			c.CloseWithReason(protocol.CloseBadFrame)
			return
		}

		metrics.FramesTotal.WithLabelValues(string(frame.FrameType()), "inbound").Inc()
		if c.room != nil {
			c.room.Router(context.Background(), c, frame)
		}
	}
}

// writePump drains the outbound queue to the socket and keeps the heartbeat
// going. Per-connection FIFO order is the queue order.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.writeCloseFrame()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.GetLogger().Debug("error writing message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeCloseFrame sends the typed close frame carrying the recorded reason,
// or a normal closure when the connection ended without one.
func (c *Client) writeCloseFrame() {
	reason := c.getCloseReason()
	code := websocket.CloseNormalClosure
	if reason != "" {
		code = reason.Code()
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, string(reason)))
}
