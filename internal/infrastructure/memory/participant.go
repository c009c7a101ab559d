package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/participant"
)

// ParticipantRepository implements participant.Repository.
type ParticipantRepository struct {
	s *Store
}

func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.participants[p.ParticipantID]; exists {
		return errDuplicateKey
	}
	p.ID = r.s.id()
	r.s.participants[p.ParticipantID] = cloneParticipant(p)
	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID uuid.UUID) (*participant.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneParticipant(r.s.participants[participantID]), nil
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*participant.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*participant.Participant
	for _, p := range r.s.participants {
		if p.RoomID == roomID {
			out = append(out, cloneParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ParticipantRepository) RecordAnswer(ctx context.Context, a *participant.Answer) (*participant.Participant, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.participants[a.ParticipantID]
	if !ok {
		return nil, false, participant.ErrNotFound
	}
	key := pairKey{activationID: a.ActivationID, participantID: a.ParticipantID}
	if _, exists := r.s.answers[key]; exists {
		return cloneParticipant(p), false, nil
	}
	a.ID = r.s.id()
	stored := *a
	r.s.answers[key] = &stored
	p.Apply(a)
	return cloneParticipant(p), true, nil
}
