package participant

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines participant persistence.
type Repository interface {
	Create(ctx context.Context, p *Participant) error
	GetByID(ctx context.Context, participantID uuid.UUID) (*Participant, error)
	// ListByRoom returns participants in join order.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*Participant, error)
	// RecordAnswer inserts the answer and applies it to the participant's score
	// and stats in one transaction. recorded is false when the participant had
	// already answered; the participant is returned unchanged then.
	RecordAnswer(ctx context.Context, a *Answer) (p *Participant, recorded bool, err error)
}
