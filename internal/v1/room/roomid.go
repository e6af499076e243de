package room

import (
	"crypto/rand"
	"strings"

	"github.com/loteria-live/backend/go/internal/v1/types"
)

// RoomIDAlphabet omits I, O, 0, and 1 to reduce transcription error when a
// code is read off a screen.
const RoomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomIDLength is the fixed code length.
const RoomIDLength = 4

// NewRoomID draws a random 4-character code from the room alphabet.
// Uniqueness is the hub registry's job; collisions simply retry there.
func NewRoomID() types.RoomIDType {
	buf := make([]byte, RoomIDLength)
	// crypto/rand never fails on supported platforms; fall back to the first
	// alphabet symbol rather than panicking on a hypothetical read error.
	_, _ = rand.Read(buf)
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(RoomIDAlphabet[int(b)%len(RoomIDAlphabet)])
	}
	return types.RoomIDType(sb.String())
}

// ValidRoomID reports whether id is a well-formed room code. IDs are
// case-sensitive: codes are always upper case.
func ValidRoomID(id types.RoomIDType) bool {
	if len(id) != RoomIDLength {
		return false
	}
	for _, r := range string(id) {
		if !strings.ContainsRune(RoomIDAlphabet, r) {
			return false
		}
	}
	return true
}
