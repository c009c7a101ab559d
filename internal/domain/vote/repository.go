package vote

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the durable vote ledger.
type Repository interface {
	// Insert writes v only if its activation is a poll in VOTING and no vote
	// exists for the pair. On OutcomeDuplicate the existing vote is returned.
	Insert(ctx context.Context, v *Vote) (Outcome, *Vote, error)
	// Replay writes a previously attempted vote, ignoring the voting window.
	// inserted is false when a vote for the pair already exists.
	Replay(ctx context.Context, v *Vote) (inserted bool, err error)
	ListByActivation(ctx context.Context, activationID uuid.UUID) ([]*Vote, error)

	CreateFailure(ctx context.Context, f *WriteFailure) error
	// ClaimRetryable selects up to limit failures with retry_count < maxRetries
	// whose last retry is older than lease, increments retry_count, stamps
	// last_retry_at with now and returns them, all in one statement. A claimed
	// row is invisible to other sweeps until its lease runs out.
	ClaimRetryable(ctx context.Context, maxRetries, limit int, now time.Time, lease time.Duration) ([]*WriteFailure, error)
	RecordFailureError(ctx context.Context, failureID uuid.UUID, msg string) error
	DeleteFailure(ctx context.Context, failureID uuid.UUID) error
	ListFailures(ctx context.Context, exhaustedOnly bool, limit int) ([]*WriteFailure, error)
}
