package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Arm(ctx context.Context, roomID, activationID uuid.UUID, preservePollState bool, actor string) (*session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[roomID]; !ok {
		return nil, room.ErrNotFound
	}
	a, ok := r.s.activations[activationID]
	if !ok || a.RoomID != roomID || a.IsTemplate {
		return nil, session.ErrActivationNotFound
	}
	now := time.Now().UTC()
	r.s.deactivateLive(roomID, &activationID, actor, now)

	a.Active = true
	if a.IsPoll() && !preservePollState {
		a.PollState = activation.PollPending
	}
	a.History = append(a.History, activation.HistoryEntry{Action: activation.HistoryArmed, Actor: actor, At: now})
	a.UpdatedAt = now

	return cloneSession(r.s.upsertSession(roomID, activationID, now)), nil
}

func (r *SessionRepository) Clear(ctx context.Context, roomID uuid.UUID, onlyIf *uuid.UUID) (*session.GameSession, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[roomID]
	if !ok {
		return nil, false, nil
	}
	cleared := r.s.clearSession(roomID, onlyIf, time.Now().UTC())
	return cloneSession(sess), cleared != nil, nil
}

func (r *SessionRepository) GetByRoom(ctx context.Context, roomID uuid.UUID) (*session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneSession(r.s.sessions[roomID]), nil
}

// the helpers below expect s.mu to be held

func (s *Store) deactivateLive(roomID uuid.UUID, keep *uuid.UUID, actor string, now time.Time) {
	for id, a := range s.activations {
		if a.RoomID != roomID || !a.Active || a.IsTemplate {
			continue
		}
		if keep != nil && id == *keep {
			continue
		}
		a.Active = false
		a.History = append(a.History, activation.HistoryEntry{Action: activation.HistoryDeactivated, Actor: actor, At: now})
		a.UpdatedAt = now
	}
}

func (s *Store) upsertSession(roomID, activationID uuid.UUID, now time.Time) *session.GameSession {
	sess, ok := s.sessions[roomID]
	if !ok {
		sess = &session.GameSession{
			ID:        s.id(),
			SessionID: uuid.New(),
			RoomID:    roomID,
			CreatedAt: now,
		}
		s.sessions[roomID] = sess
	}
	id := activationID
	sess.CurrentActivationID = &id
	sess.IsLive = true
	sess.UpdatedAt = now
	return sess
}

func (s *Store) clearSession(roomID uuid.UUID, onlyIf *uuid.UUID, now time.Time) *session.GameSession {
	sess, ok := s.sessions[roomID]
	if !ok || sess.CurrentActivationID == nil {
		return nil
	}
	if onlyIf != nil && *sess.CurrentActivationID != *onlyIf {
		return nil
	}
	sess.CurrentActivationID = nil
	sess.UpdatedAt = now
	return sess
}
