package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

var (
	errDuplicateKey      = errors.New("duplicate key")
	errMissingActivation = errors.New("activation does not exist")
)

// ActivationRepository implements activation.Repository.
type ActivationRepository struct {
	s *Store
}

func (r *ActivationRepository) Create(ctx context.Context, a *activation.Activation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertActivation(a)
}

func (r *ActivationRepository) GetByID(ctx context.Context, activationID uuid.UUID) (*activation.Activation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneActivation(r.s.activations[activationID]), nil
}

func (r *ActivationRepository) ListTemplates(ctx context.Context, roomID uuid.UUID) ([]*activation.Activation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*activation.Activation
	for _, a := range r.s.activations {
		if a.RoomID == roomID && a.IsTemplate {
			out = append(out, cloneActivation(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ActivationRepository) Launch(ctx context.Context, live *activation.Activation) (*session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[live.RoomID]; !ok {
		return nil, room.ErrNotFound
	}
	actor := ""
	if len(live.History) > 0 {
		actor = live.History[0].Actor
	}
	r.s.deactivateLive(live.RoomID, nil, actor, live.CreatedAt)
	if err := r.s.insertActivation(live); err != nil {
		return nil, err
	}
	return cloneSession(r.s.upsertSession(live.RoomID, live.ActivationID, live.CreatedAt)), nil
}

func (r *ActivationRepository) TransitionPoll(ctx context.Context, activationID uuid.UUID, from, to activation.PollState, entry activation.HistoryEntry) (*activation.Activation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.activations[activationID]
	if !ok {
		return nil, false, nil
	}
	if !a.IsPoll() || a.PollState != from {
		return cloneActivation(a), false, nil
	}
	a.PollState = to
	a.History = append(a.History, entry)
	a.UpdatedAt = entry.At
	return cloneActivation(a), true, nil
}

func (r *ActivationRepository) Deactivate(ctx context.Context, activationID uuid.UUID, actor string) (*activation.Activation, bool, *session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.activations[activationID]
	if !ok {
		return nil, false, nil, nil
	}
	if !a.Active {
		return cloneActivation(a), false, nil, nil
	}
	now := time.Now().UTC()
	a.Active = false
	a.History = append(a.History, activation.HistoryEntry{Action: activation.HistoryDeactivated, Actor: actor, At: now})
	a.UpdatedAt = now
	cleared := r.s.clearSession(a.RoomID, &activationID, now)
	return cloneActivation(a), true, cloneSession(cleared), nil
}

func (r *ActivationRepository) Delete(ctx context.Context, activationID uuid.UUID) (*activation.Activation, *session.GameSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.activations[activationID]
	if !ok {
		return nil, nil, nil
	}
	cleared := r.s.clearSession(a.RoomID, &activationID, time.Now().UTC())
	delete(r.s.activations, activationID)
	for key := range r.s.votes {
		if key.activationID == activationID {
			delete(r.s.votes, key)
		}
	}
	for key := range r.s.answers {
		if key.activationID == activationID {
			delete(r.s.answers, key)
		}
	}
	return a, cloneSession(cleared), nil
}

func (s *Store) insertActivation(a *activation.Activation) error {
	if _, exists := s.activations[a.ActivationID]; exists {
		return errDuplicateKey
	}
	a.ID = s.id()
	s.activations[a.ActivationID] = cloneActivation(a)
	return nil
}
