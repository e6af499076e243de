package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loteria-live/backend/go/internal/v1/deck"
	"github.com/loteria-live/backend/go/internal/v1/protocol"
	"github.com/loteria-live/backend/go/internal/v1/room"
	"github.com/loteria-live/backend/go/internal/v1/types"
)

func testDeck() deck.Deck {
	return deck.Deck{ID: "test", Items: []deck.Item{
		{ID: "a1", Name: "A1"},
		{ID: "a2", Name: "A2"},
		{ID: "a3", Name: "A3"},
	}}
}

// newTestServer spins up a hub behind an httptest server and tears both down
// with the test.
func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(testDeck(), nil, nil)
	router := gin.New()
	router.GET("/ws/room/:roomId", hub.ServeWs)
	router.GET("/ws/room", hub.ServeWs)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, roomID, role string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/room/" + roomID + "?role=" + role
	return websocket.DefaultDialer.Dial(url, nil)
}

// mustDial connects and registers cleanup; callers own reading.
func mustDial(t *testing.T, srv *httptest.Server, roomID, role string) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, srv, roomID, role)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readFrame reads one frame with a deadline so a broken fan-out fails fast.
func readFrame(t *testing.T, conn *websocket.Conn) protocol.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := protocol.Decode(data)
	require.NoError(t, err)
	return frame
}

// readCloseCode reads until the peer closes and returns the close code.
func readCloseCode(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			closeErr, ok := err.(*websocket.CloseError)
			require.True(t, ok, "expected a close frame, got %v", err)
			return closeErr.Code
		}
	}
}

func TestServeWs_HostCreatesRoom(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := mustDial(t, srv, "ABCD", "host")

	frame := readFrame(t, conn)
	update, ok := frame.(protocol.StateUpdate)
	require.True(t, ok, "host is accepted with a state snapshot")
	assert.Equal(t, protocol.StatusReady, update.Status)
	assert.Equal(t, -1, update.CurrentIndex)
	assert.Equal(t, 3, update.TotalItems)

	assert.Equal(t, 1, hub.RoomCount())
}

// dialNoCode connects without a room code in the path.
func dialNoCode(t *testing.T, srv *httptest.Server, role string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/room?role=" + role
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestServeWs_HostWithoutCode(t *testing.T) {
	hub, srv := newTestServer(t)

	conn, resp, err := dialNoCode(t, srv, "host")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	code := types.RoomIDType(resp.Header.Get(HeaderRoomCode))
	require.True(t, room.ValidRoomID(code), "handshake carries a generated room code, got %q", code)

	frame := readFrame(t, conn)
	_, ok := frame.(protocol.StateUpdate)
	require.True(t, ok, "host is accepted with a state snapshot")
	assert.Equal(t, 1, hub.RoomCount())

	// The generated code is live: a controller can join with it.
	ctrl := mustDial(t, srv, string(code), "controller")
	readFrame(t, ctrl)
}

func TestServeWs_NonHostWithoutCode(t *testing.T) {
	_, srv := newTestServer(t)

	_, resp, err := dialNoCode(t, srv, "spectator")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeWs_RoomCodeIsCaseInsensitive(t *testing.T) {
	hub, srv := newTestServer(t)

	host := mustDial(t, srv, "abcd", "host")
	readFrame(t, host)

	// The lower-case dial landed in room ABCD; a controller joining with the
	// canonical code finds it.
	ctrl := mustDial(t, srv, "ABCD", "controller")
	readFrame(t, ctrl)

	assert.Equal(t, 1, hub.RoomCount())
}

func TestServeWs_UnknownRoleIsRejected(t *testing.T) {
	_, srv := newTestServer(t)

	_, resp, err := dial(t, srv, "ABCD", "referee")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeWs_InvalidRoomID(t *testing.T) {
	_, srv := newTestServer(t)

	conn := mustDial(t, srv, "AB", "host")
	assert.Equal(t, protocol.CloseBadFrame.Code(), readCloseCode(t, conn))
}

func TestServeWs_JoinBeforeHost(t *testing.T) {
	t.Run("controller", func(t *testing.T) {
		_, srv := newTestServer(t)
		conn := mustDial(t, srv, "ZZZZ", "controller")
		assert.Equal(t, protocol.CloseRoomNotFound.Code(), readCloseCode(t, conn))
	})

	t.Run("spectator", func(t *testing.T) {
		_, srv := newTestServer(t)
		conn := mustDial(t, srv, "ZZZZ", "spectator")
		assert.Equal(t, protocol.CloseRoomNotFound.Code(), readCloseCode(t, conn))
	})
}

func TestServeWs_DuplicateController(t *testing.T) {
	_, srv := newTestServer(t)

	host := mustDial(t, srv, "WXYZ", "host")
	readFrame(t, host)

	first := mustDial(t, srv, "WXYZ", "controller")
	readFrame(t, first) // snapshot
	readFrame(t, first) // sound preference ack

	second := mustDial(t, srv, "WXYZ", "controller")
	assert.Equal(t, protocol.CloseAlreadyConnected.Code(), readCloseCode(t, second))

	// The established controller still works: its command reaches the host.
	require.NoError(t, first.WriteMessage(websocket.TextMessage, []byte(`{"type":"DRAW_CARD"}`)))
	frame := readFrame(t, host)
	assert.Equal(t, protocol.TypeDrawCard, frame.FrameType())
}

func TestServeWs_DuplicateHost(t *testing.T) {
	_, srv := newTestServer(t)

	host := mustDial(t, srv, "WXYZ", "host")
	readFrame(t, host)

	second := mustDial(t, srv, "WXYZ", "host")
	assert.Equal(t, protocol.CloseAlreadyConnected.Code(), readCloseCode(t, second))
}

func TestServeWs_BadFrameClosesConnection(t *testing.T) {
	_, srv := newTestServer(t)

	host := mustDial(t, srv, "ABCD", "host")
	readFrame(t, host)

	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte(`{"type":"NOT_A_FRAME"}`)))
	assert.Equal(t, protocol.CloseBadFrame.Code(), readCloseCode(t, host))
}

func TestHub_Shutdown(t *testing.T) {
	hub, srv := newTestServer(t)

	host := mustDial(t, srv, "ABCD", "host")
	readFrame(t, host)
	require.Equal(t, 1, hub.RoomCount())

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.RoomCount())

	// The room broadcast a terminal snapshot and closed GameEnded.
	require.NoError(t, host.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := host.ReadMessage()
		if err != nil {
			closeErr, ok := err.(*websocket.CloseError)
			require.True(t, ok)
			assert.Equal(t, protocol.CloseGameEnded.Code(), closeErr.Code)
			return
		}
		frame, err := protocol.Decode(data)
		require.NoError(t, err)
		if u, ok := frame.(protocol.StateUpdate); ok {
			assert.Equal(t, protocol.StatusFinished, u.Status)
		}
	}
}

func TestHub_HostGraceWindow(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.cleanupGracePeriod = 50 * time.Millisecond

	host := mustDial(t, srv, "GRCE", "host")
	readFrame(t, host)
	require.Equal(t, 1, hub.RoomCount())

	t.Run("room survives if the host returns in time", func(t *testing.T) {
		require.NoError(t, host.Close())

		// Wait for the server to register the departure, then reconnect
		// inside the grace window.
		require.Eventually(t, func() bool {
			r := hub.getRoom("GRCE")
			return r != nil && !r.HasHost()
		}, time.Second, 5*time.Millisecond)

		again := mustDial(t, srv, "GRCE", "host")
		frame := readFrame(t, again)
		_, ok := frame.(protocol.StateUpdate)
		require.True(t, ok, "reconnecting host is restored with a snapshot")
		assert.Equal(t, 1, hub.RoomCount())

		require.NoError(t, again.Close())
	})

	t.Run("room is destroyed after the window lapses", func(t *testing.T) {
		assert.Eventually(t, func() bool {
			return hub.RoomCount() == 0
		}, 2*time.Second, 20*time.Millisecond)
	})
}
