package room

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/session"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrInactive = errors.New("room is not active")
)

// ResetMode selects what a room reset does to participants.
type ResetMode string

const (
	// ResetScores zeroes scores and stats but keeps participant rows.
	ResetScores ResetMode = "SCORES"
	// ResetFull deletes participant rows.
	ResetFull ResetMode = "FULL"
)

func (m ResetMode) Valid() bool {
	return m == ResetScores || m == ResetFull
}

// Room is owned by the tenant management system. The live core only reads it.
type Room struct {
	ID        int64     `json:"id"`
	RoomID    uuid.UUID `json:"roomId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository reads rooms and performs room-wide resets.
type Repository interface {
	GetByID(ctx context.Context, roomID uuid.UUID) (*Room, error)
	// Reset clears the session's current activation, deactivates live
	// activations and zeroes or deletes participants in one transaction.
	Reset(ctx context.Context, roomID uuid.UUID, mode ResetMode) (*session.GameSession, error)
}
