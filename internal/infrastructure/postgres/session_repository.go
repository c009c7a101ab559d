package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

const sessionColumns = `id, session_id, room_id, current_activation_id, is_live, created_at, updated_at`

// SessionRepository implements session.Repository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Arm(ctx context.Context, roomID, activationID uuid.UUID, preservePollState bool, actor string) (*session.GameSession, error) {
	var out *session.GameSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := deactivateLive(ctx, tx, roomID, &activationID, actor, now); err != nil {
			return err
		}

		patch, err := historyPatch(activation.HistoryEntry{Action: activation.HistoryArmed, Actor: actor, At: now})
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE activations
			SET active=TRUE,
				poll_state=CASE WHEN kind=$3 AND NOT $4 THEN $5 ELSE poll_state END,
				history=history || $6::jsonb,
				updated_at=$7
			WHERE activation_id=$1 AND room_id=$2 AND NOT is_template
		`, activationID, roomID, string(activation.KindPoll), preservePollState, string(activation.PollPending), patch, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return session.ErrActivationNotFound
		}

		out, err = upsertSession(ctx, tx, roomID, activationID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SessionRepository) Clear(ctx context.Context, roomID uuid.UUID, onlyIf *uuid.UUID) (*session.GameSession, bool, error) {
	sess, err := clearSession(ctx, r.pool, roomID, onlyIf, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	if sess != nil {
		return sess, true, nil
	}
	sess, err = r.GetByRoom(ctx, roomID)
	return sess, false, err
}

func (r *SessionRepository) GetByRoom(ctx context.Context, roomID uuid.UUID) (*session.GameSession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE room_id=$1`, roomID)
	return scanSession(row)
}

// lockRoom serialises session writers of one room for the rest of tx.
func lockRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE room_id=$1 FOR UPDATE`, roomID).Scan(&id)
	if err == pgx.ErrNoRows {
		return room.ErrNotFound
	}
	return err
}

// deactivateLive switches off every live activation in the room except keep.
func deactivateLive(ctx context.Context, db dbtx, roomID uuid.UUID, keep *uuid.UUID, actor string, now time.Time) error {
	patch, err := historyPatch(activation.HistoryEntry{Action: activation.HistoryDeactivated, Actor: actor, At: now})
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		UPDATE activations
		SET active=FALSE, history=history || $3::jsonb, updated_at=$4
		WHERE room_id=$1 AND active AND NOT is_template
			AND ($2::uuid IS NULL OR activation_id <> $2)
	`, roomID, keep, patch, now)
	return err
}

// upsertSession points the room's single session row at activationID,
// creating it on first use.
func upsertSession(ctx context.Context, db dbtx, roomID, activationID uuid.UUID, now time.Time) (*session.GameSession, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO game_sessions (session_id, room_id, current_activation_id, is_live, created_at, updated_at)
		VALUES ($1,$2,$3,TRUE,$4,$4)
		ON CONFLICT (room_id) DO UPDATE
		SET current_activation_id=EXCLUDED.current_activation_id, is_live=TRUE, updated_at=EXCLUDED.updated_at
		RETURNING `+sessionColumns, uuid.New(), roomID, activationID, now)
	return scanSession(row)
}

// clearSession nulls the pointer, optionally only if it still references
// onlyIf. Returns nil when nothing changed.
func clearSession(ctx context.Context, db dbtx, roomID uuid.UUID, onlyIf *uuid.UUID, now time.Time) (*session.GameSession, error) {
	row := db.QueryRow(ctx, `
		UPDATE game_sessions
		SET current_activation_id=NULL, updated_at=$3
		WHERE room_id=$1 AND current_activation_id IS NOT NULL
			AND ($2::uuid IS NULL OR current_activation_id=$2)
		RETURNING `+sessionColumns, roomID, onlyIf, now)
	return scanSession(row)
}

func scanSession(row pgx.Row) (*session.GameSession, error) {
	var s session.GameSession
	var current *uuid.UUID
	if err := row.Scan(&s.ID, &s.SessionID, &s.RoomID, &current, &s.IsLive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.CurrentActivationID = current
	return &s, nil
}
