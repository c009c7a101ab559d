package activation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/session"
)

// Repository defines persistence for activations.
type Repository interface {
	Create(ctx context.Context, a *Activation) error
	GetByID(ctx context.Context, activationID uuid.UUID) (*Activation, error)
	ListTemplates(ctx context.Context, roomID uuid.UUID) ([]*Activation, error)

	// Launch inserts the live copy, deactivates every other live activation in
	// the room and repoints the room session, all in one transaction.
	Launch(ctx context.Context, live *Activation) (*session.GameSession, error)

	// TransitionPoll moves the poll from -> to only if the stored state is
	// still from, appending entry to the history. applied is false when the
	// stored state did not match; the returned activation is then the current
	// row (nil if it does not exist).
	TransitionPoll(ctx context.Context, activationID uuid.UUID, from, to PollState, entry HistoryEntry) (a *Activation, applied bool, err error)

	// Deactivate clears the active flag and, if the room session pointed at the
	// activation, clears that pointer in the same transaction. changed is false
	// when the activation was already inactive; cleared is nil when the session
	// was untouched.
	Deactivate(ctx context.Context, activationID uuid.UUID, actor string) (a *Activation, changed bool, cleared *session.GameSession, err error)

	// Delete removes a live activation (votes cascade) and clears the session
	// pointer if it referenced it.
	Delete(ctx context.Context, activationID uuid.UUID) (a *Activation, cleared *session.GameSession, err error)
}
