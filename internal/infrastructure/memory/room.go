package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

// RoomRepository implements room.Repository.
type RoomRepository struct {
	s *Store
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rm, ok := r.s.rooms[roomID]
	if !ok {
		return nil, nil
	}
	out := *rm
	return &out, nil
}

// Ensure inserts a room if it does not exist.
func (r *RoomRepository) Ensure(ctx context.Context, rm *room.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[rm.RoomID]; ok {
		return nil
	}
	stored := *rm
	stored.ID = r.s.id()
	r.s.rooms[rm.RoomID] = &stored
	return nil
}

func (r *RoomRepository) Reset(ctx context.Context, roomID uuid.UUID, mode room.ResetMode) (*session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[roomID]; !ok {
		return nil, room.ErrNotFound
	}
	now := time.Now().UTC()
	r.s.deactivateLive(roomID, nil, "reset", now)
	r.s.clearSession(roomID, nil, now)

	for id, p := range r.s.participants {
		if p.RoomID != roomID {
			continue
		}
		for key := range r.s.answers {
			if key.participantID == id {
				delete(r.s.answers, key)
			}
		}
		if mode == room.ResetFull {
			for key := range r.s.votes {
				if key.participantID == id {
					delete(r.s.votes, key)
				}
			}
			delete(r.s.participants, id)
			continue
		}
		p.ResetScore()
	}

	sess, ok := r.s.sessions[roomID]
	if !ok {
		return session.Idle(roomID), nil
	}
	return cloneSession(sess), nil
}
