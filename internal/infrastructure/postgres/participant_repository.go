package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livestage/livestage/internal/domain/participant"
)

const participantColumns = `id, participant_id, room_id, display_name, score, total_points, correct_count, total_answers, avg_latency_ms, joined_at, updated_at`

// ParticipantRepository implements participant.Repository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO participants
		(participant_id, room_id, display_name, score, total_points, correct_count, total_answers, avg_latency_ms, joined_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, p.ParticipantID, p.RoomID, p.DisplayName, p.Score, p.Stats.TotalPoints, p.Stats.CorrectCount, p.Stats.TotalAnswers, p.Stats.AvgLatencyMs, p.JoinedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID uuid.UUID) (*participant.Participant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE participant_id=$1`, participantID)
	return scanParticipant(row)
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*participant.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+participantColumns+` FROM participants WHERE room_id=$1 ORDER BY id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*participant.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordAnswer inserts the answer and increments the score in one
// transaction. The stats update reads the pre-update row values.
func (r *ParticipantRepository) RecordAnswer(ctx context.Context, a *participant.Answer) (*participant.Participant, bool, error) {
	var (
		p        *participant.Participant
		recorded bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO answers (answer_id, activation_id, participant_id, answer, correct, points, latency_ms, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (activation_id, participant_id) DO NOTHING
			RETURNING id
		`, a.AnswerID, a.ActivationID, a.ParticipantID, a.Answer, a.Correct, a.Points, a.LatencyMs, a.CreatedAt).Scan(&id)
		if err == pgx.ErrNoRows {
			p, err = scanParticipant(tx.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE participant_id=$1`, a.ParticipantID))
			return err
		}
		if err != nil {
			return err
		}
		a.ID = id
		recorded = true

		correct := 0
		if a.Correct {
			correct = 1
		}
		p, err = scanParticipant(tx.QueryRow(ctx, `
			UPDATE participants
			SET score=score + $2,
				total_points=total_points + $2,
				correct_count=correct_count + $3,
				avg_latency_ms=(avg_latency_ms * total_answers + $4) / (total_answers + 1),
				total_answers=total_answers + 1,
				updated_at=$5
			WHERE participant_id=$1
			RETURNING `+participantColumns,
			a.ParticipantID, a.Points, correct, float64(a.LatencyMs), a.CreatedAt))
		if err != nil {
			return err
		}
		if p == nil {
			return participant.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return p, recorded, nil
}

func scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var p participant.Participant
	if err := row.Scan(&p.ID, &p.ParticipantID, &p.RoomID, &p.DisplayName, &p.Score,
		&p.Stats.TotalPoints, &p.Stats.CorrectCount, &p.Stats.TotalAnswers, &p.Stats.AvgLatencyMs,
		&p.JoinedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
