package protocol

// CloseReason names the out-of-band closure causes surfaced to clients in the
// websocket close frame.
type CloseReason string

const (
	CloseRoomNotFound     CloseReason = "RoomNotFound"
	CloseAlreadyConnected CloseReason = "AlreadyConnected"
	CloseGameEnded        CloseReason = "GameEnded"
	CloseBadFrame         CloseReason = "BadFrame"
	CloseSlowConsumer     CloseReason = "SlowConsumer"
	CloseHeartbeatLost    CloseReason = "HeartbeatLost"
	CloseInternalError    CloseReason = "InternalError"
)

// Application close codes in the private 4000 range; stable so clients can
// switch on them without parsing the reason text.
var closeCodes = map[CloseReason]int{
	CloseBadFrame:         4002,
	CloseRoomNotFound:     4004,
	CloseGameEnded:        4005,
	CloseHeartbeatLost:    4006,
	CloseSlowConsumer:     4008,
	CloseAlreadyConnected: 4009,
	CloseInternalError:    4011,
}

// Code returns the websocket close code for a reason.
func (r CloseReason) Code() int {
	if code, ok := closeCodes[r]; ok {
		return code
	}
	return closeCodes[CloseInternalError]
}
