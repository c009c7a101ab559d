package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

// RoomRepository implements room.Repository. Room rows belong to tenant
// management; apart from Ensure this repository only reads them.
type RoomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	var rm room.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, room_id, tenant_id, code, name, active, created_at FROM rooms WHERE room_id=$1
	`, roomID).Scan(&rm.ID, &rm.RoomID, &rm.TenantID, &rm.Code, &rm.Name, &rm.Active, &rm.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// Ensure inserts a room if it does not exist. Used to seed development rooms.
func (r *RoomRepository) Ensure(ctx context.Context, rm *room.Room) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rooms (room_id, tenant_id, code, name, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (room_id) DO NOTHING
	`, rm.RoomID, rm.TenantID, rm.Code, rm.Name, rm.Active, rm.CreatedAt)
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *RoomRepository) Reset(ctx context.Context, roomID uuid.UUID, mode room.ResetMode) (*session.GameSession, error) {
	var out *session.GameSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := deactivateLive(ctx, tx, roomID, nil, "reset", now); err != nil {
			return err
		}
		sess, err := clearSession(ctx, tx, roomID, nil, now)
		if err != nil {
			return err
		}
		if sess == nil {
			sess, err = scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE room_id=$1`, roomID))
			if err != nil {
				return err
			}
		}
		if sess == nil {
			sess = session.Idle(roomID)
		}
		out = sess

		switch mode {
		case room.ResetFull:
			_, err = tx.Exec(ctx, `DELETE FROM participants WHERE room_id=$1`, roomID)
			return err
		default:
			if _, err := tx.Exec(ctx, `
				DELETE FROM answers
				WHERE participant_id IN (SELECT participant_id FROM participants WHERE room_id=$1)
			`, roomID); err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				UPDATE participants
				SET score=0, total_points=0, correct_count=0, total_answers=0, avg_latency_ms=0, updated_at=$2
				WHERE room_id=$1
			`, roomID, now)
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
