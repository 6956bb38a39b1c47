package session

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const (
	roomCodeLength  = 6
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewID returns a globally unique identifier for games, players, and
// statements.
func NewID() string {
	return uuid.NewString()
}

// generateRoomCode returns a random 6-character uppercase alphanumeric
// code. Uniqueness against live games is the caller's responsibility.
func generateRoomCode() string {
	// Reject bytes above the largest multiple of the charset size so every
	// character is equally likely.
	limit := byte(256 - 256%len(roomCodeCharset))

	code := make([]byte, roomCodeLength)
	buf := make([]byte, 1)
	for i := 0; i < roomCodeLength; {
		rand.Read(buf)
		if buf[0] >= limit {
			continue
		}
		code[i] = roomCodeCharset[int(buf[0])%len(roomCodeCharset)]
		i++
	}
	return string(code)
}
