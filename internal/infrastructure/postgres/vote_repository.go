package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/vote"
)

const (
	voteColumns    = `id, vote_id, activation_id, participant_id, option_id, option_text, created_at`
	failureColumns = `id, failure_id, vote_id, activation_id, participant_id, option_id, option_text, error, retry_count, last_retry_at, created_at`
)

// VoteRepository implements vote.Repository.
type VoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

// Insert relies on the (activation_id, participant_id) unique key and a
// voting-window predicate in the same statement.
func (r *VoteRepository) Insert(ctx context.Context, v *vote.Vote) (vote.Outcome, *vote.Vote, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO votes (vote_id, activation_id, participant_id, option_id, option_text, created_at)
		SELECT $1,$2,$3,$4,$5,$6
		WHERE EXISTS (
			SELECT 1 FROM activations
			WHERE activation_id=$2 AND kind=$7 AND poll_state=$8
		)
		ON CONFLICT (activation_id, participant_id) DO NOTHING
		RETURNING id
	`, v.VoteID, v.ActivationID, v.ParticipantID, v.OptionID, v.OptionText, v.CreatedAt,
		string(activation.KindPoll), string(activation.PollVoting)).Scan(&id)
	if err == nil {
		v.ID = id
		return vote.OutcomeInserted, v, nil
	}
	if err != pgx.ErrNoRows {
		return 0, nil, err
	}

	existing, err := r.getByPair(ctx, v.ActivationID, v.ParticipantID)
	if err != nil {
		return 0, nil, err
	}
	if existing != nil {
		return vote.OutcomeDuplicate, existing, nil
	}

	var pollState *string
	err = r.pool.QueryRow(ctx, `SELECT poll_state FROM activations WHERE activation_id=$1`, v.ActivationID).Scan(&pollState)
	if err == pgx.ErrNoRows {
		return vote.OutcomeActivationMissing, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return vote.OutcomeOutOfWindow, nil, nil
}

func (r *VoteRepository) Replay(ctx context.Context, v *vote.Vote) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO votes (vote_id, activation_id, participant_id, option_id, option_text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, v.VoteID, v.ActivationID, v.ParticipantID, v.OptionID, v.OptionText, v.CreatedAt).Scan(&id)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *VoteRepository) ListByActivation(ctx context.Context, activationID uuid.UUID) ([]*vote.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE activation_id=$1 ORDER BY id
	`, activationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vote.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VoteRepository) getByPair(ctx context.Context, activationID, participantID uuid.UUID) (*vote.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE activation_id=$1 AND participant_id=$2
	`, activationID, participantID)
	return scanVote(row)
}

func (r *VoteRepository) CreateFailure(ctx context.Context, f *vote.WriteFailure) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vote_write_failures
		(failure_id, vote_id, activation_id, participant_id, option_id, option_text, error, retry_count, last_retry_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, f.FailureID, f.VoteID, f.ActivationID, f.ParticipantID, f.OptionID, f.OptionText, f.Error, f.RetryCount, f.LastRetryAt, f.CreatedAt)
	return err
}

// ClaimRetryable uses SKIP LOCKED so concurrent sweeps split the backlog
// instead of queueing behind each other.
func (r *VoteRepository) ClaimRetryable(ctx context.Context, maxRetries, limit int, now time.Time, lease time.Duration) ([]*vote.WriteFailure, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE vote_write_failures
		SET retry_count=retry_count + 1, last_retry_at=$3
		WHERE id IN (
			SELECT id FROM vote_write_failures
			WHERE retry_count < $1 AND (last_retry_at IS NULL OR last_retry_at <= $4)
			ORDER BY retry_count, created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+failureColumns, maxRetries, limit, now, now.Add(-lease))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFailures(rows)
}

func (r *VoteRepository) RecordFailureError(ctx context.Context, failureID uuid.UUID, msg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE vote_write_failures SET error=$2 WHERE failure_id=$1`, failureID, msg)
	return err
}

func (r *VoteRepository) DeleteFailure(ctx context.Context, failureID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM vote_write_failures WHERE failure_id=$1`, failureID)
	return err
}

func (r *VoteRepository) ListFailures(ctx context.Context, exhaustedOnly bool, limit int) ([]*vote.WriteFailure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+failureColumns+` FROM vote_write_failures
		WHERE NOT $1 OR retry_count >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, exhaustedOnly, vote.MaxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFailures(rows)
}

func scanVote(row pgx.Row) (*vote.Vote, error) {
	var v vote.Vote
	if err := row.Scan(&v.ID, &v.VoteID, &v.ActivationID, &v.ParticipantID, &v.OptionID, &v.OptionText, &v.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func scanFailures(rows pgx.Rows) ([]*vote.WriteFailure, error) {
	var out []*vote.WriteFailure
	for rows.Next() {
		var f vote.WriteFailure
		if err := rows.Scan(&f.ID, &f.FailureID, &f.VoteID, &f.ActivationID, &f.ParticipantID, &f.OptionID, &f.OptionText, &f.Error, &f.RetryCount, &f.LastRetryAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
