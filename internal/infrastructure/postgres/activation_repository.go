package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/session"
)

const activationColumns = `id, activation_id, room_id, template_id, kind, is_template, active, poll_state, content, history, created_at, updated_at`

// ActivationRepository implements activation.Repository.
type ActivationRepository struct {
	pool *pgxpool.Pool
}

func NewActivationRepository(pool *pgxpool.Pool) *ActivationRepository {
	return &ActivationRepository{pool: pool}
}

func (r *ActivationRepository) Create(ctx context.Context, a *activation.Activation) error {
	return insertActivation(ctx, r.pool, a)
}

func (r *ActivationRepository) GetByID(ctx context.Context, activationID uuid.UUID) (*activation.Activation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+activationColumns+` FROM activations WHERE activation_id=$1`, activationID)
	return scanActivation(row)
}

func (r *ActivationRepository) ListTemplates(ctx context.Context, roomID uuid.UUID) ([]*activation.Activation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activationColumns+`
		FROM activations WHERE room_id=$1 AND is_template
		ORDER BY created_at, id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*activation.Activation
	for rows.Next() {
		a, err := scanActivation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ActivationRepository) Launch(ctx context.Context, live *activation.Activation) (*session.GameSession, error) {
	var out *session.GameSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, live.RoomID); err != nil {
			return err
		}
		actor := ""
		if len(live.History) > 0 {
			actor = live.History[0].Actor
		}
		if err := deactivateLive(ctx, tx, live.RoomID, nil, actor, live.CreatedAt); err != nil {
			return err
		}
		if err := insertActivation(ctx, tx, live); err != nil {
			return err
		}
		sess, err := upsertSession(ctx, tx, live.RoomID, live.ActivationID, live.CreatedAt)
		if err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ActivationRepository) TransitionPoll(ctx context.Context, activationID uuid.UUID, from, to activation.PollState, entry activation.HistoryEntry) (*activation.Activation, bool, error) {
	patch, err := historyPatch(entry)
	if err != nil {
		return nil, false, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE activations
		SET poll_state=$3, history=history || $4::jsonb, updated_at=$5
		WHERE activation_id=$1 AND kind=$6 AND poll_state=$2
		RETURNING `+activationColumns,
		activationID, string(from), string(to), patch, entry.At, string(activation.KindPoll))
	a, err := scanActivation(row)
	if err != nil {
		return nil, false, err
	}
	if a != nil {
		return a, true, nil
	}
	current, err := r.GetByID(ctx, activationID)
	return current, false, err
}

func (r *ActivationRepository) Deactivate(ctx context.Context, activationID uuid.UUID, actor string) (*activation.Activation, bool, *session.GameSession, error) {
	var (
		a       *activation.Activation
		changed bool
		cleared *session.GameSession
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		patch, err := historyPatch(activation.HistoryEntry{Action: activation.HistoryDeactivated, Actor: actor, At: now})
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
			UPDATE activations
			SET active=FALSE, history=history || $2::jsonb, updated_at=$3
			WHERE activation_id=$1 AND active
			RETURNING `+activationColumns, activationID, patch, now)
		a, err = scanActivation(row)
		if err != nil {
			return err
		}
		if a == nil {
			a, err = scanActivation(tx.QueryRow(ctx, `SELECT `+activationColumns+` FROM activations WHERE activation_id=$1`, activationID))
			return err
		}
		changed = true
		cleared, err = clearSession(ctx, tx, a.RoomID, &activationID, now)
		return err
	})
	if err != nil {
		return nil, false, nil, err
	}
	return a, changed, cleared, nil
}

func (r *ActivationRepository) Delete(ctx context.Context, activationID uuid.UUID) (*activation.Activation, *session.GameSession, error) {
	var (
		a       *activation.Activation
		cleared *session.GameSession
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		a, err = scanActivation(tx.QueryRow(ctx, `
			SELECT `+activationColumns+` FROM activations WHERE activation_id=$1 FOR UPDATE
		`, activationID))
		if err != nil || a == nil {
			return err
		}
		cleared, err = clearSession(ctx, tx, a.RoomID, &activationID, time.Now().UTC())
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM activations WHERE activation_id=$1`, activationID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return a, cleared, nil
}

func insertActivation(ctx context.Context, db dbtx, a *activation.Activation) error {
	content, err := json.Marshal(a.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	history := a.History
	if history == nil {
		history = []activation.HistoryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	var pollState *string
	if a.PollState != "" {
		s := string(a.PollState)
		pollState = &s
	}
	_, err = db.Exec(ctx, `
		INSERT INTO activations
		(activation_id, room_id, template_id, kind, is_template, active, poll_state, content, history, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, a.ActivationID, a.RoomID, a.TemplateID, string(a.Kind), a.IsTemplate, a.Active, pollState, content, historyJSON, a.CreatedAt, a.UpdatedAt)
	return err
}

func scanActivation(row pgx.Row) (*activation.Activation, error) {
	var a activation.Activation
	var templateID *uuid.UUID
	var kind string
	var pollState *string
	var content, history []byte
	if err := row.Scan(&a.ID, &a.ActivationID, &a.RoomID, &templateID, &kind, &a.IsTemplate, &a.Active, &pollState, &content, &history, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.TemplateID = templateID
	a.Kind = activation.Kind(kind)
	if pollState != nil {
		a.PollState = activation.PollState(*pollState)
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &a.Content); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &a.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return &a, nil
}
