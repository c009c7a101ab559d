package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrActivationNotFound = errors.New("activation not found in room")
	ErrTemplateNotArmable = errors.New("templates cannot be armed")
)

// GameSession is the per-room pointer to the live activation. There is exactly
// one row per room.
type GameSession struct {
	ID                  int64      `json:"id"`
	SessionID           uuid.UUID  `json:"sessionId"`
	RoomID              uuid.UUID  `json:"roomId"`
	CurrentActivationID *uuid.UUID `json:"currentActivationId"`
	IsLive              bool       `json:"isLive"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Idle returns the state reported for a room that has never armed anything.
func Idle(roomID uuid.UUID) *GameSession {
	return &GameSession{RoomID: roomID}
}

// HasCurrent reports whether the session points at the given activation.
func (s *GameSession) HasCurrent(activationID uuid.UUID) bool {
	return s.CurrentActivationID != nil && *s.CurrentActivationID == activationID
}
