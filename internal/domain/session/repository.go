package session

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists game sessions. Every method is a single atomic write.
type Repository interface {
	// Arm upserts the room's session onto activationID, marks that activation
	// active and every other live activation in the room inactive. Poll state
	// is reset to PENDING unless preservePollState is set.
	Arm(ctx context.Context, roomID, activationID uuid.UUID, preservePollState bool, actor string) (*GameSession, error)
	// Clear nulls the current activation. When onlyIf is non-nil the pointer is
	// cleared only if it still references that activation; cleared reports
	// whether a row changed.
	Clear(ctx context.Context, roomID uuid.UUID, onlyIf *uuid.UUID) (sess *GameSession, cleared bool, err error)
	GetByRoom(ctx context.Context, roomID uuid.UUID) (*GameSession, error)
}
