// Package memory is an in-process datastore implementing every repository.
// Each method holds the store lock for its whole read-modify-write, which
// gives the same atomicity the SQL statements give in postgres.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
	"github.com/livestage/livestage/internal/domain/vote"
)

type pairKey struct {
	activationID  uuid.UUID
	participantID uuid.UUID
}

// Store holds all tables.
type Store struct {
	mu     sync.Mutex
	nextID int64

	rooms        map[uuid.UUID]*room.Room
	sessions     map[uuid.UUID]*session.GameSession // by room
	activations  map[uuid.UUID]*activation.Activation
	participants map[uuid.UUID]*participant.Participant
	votes        map[pairKey]*vote.Vote
	failures     map[uuid.UUID]*vote.WriteFailure
	answers      map[pairKey]*participant.Answer
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[uuid.UUID]*room.Room),
		sessions:     make(map[uuid.UUID]*session.GameSession),
		activations:  make(map[uuid.UUID]*activation.Activation),
		participants: make(map[uuid.UUID]*participant.Participant),
		votes:        make(map[pairKey]*vote.Vote),
		failures:     make(map[uuid.UUID]*vote.WriteFailure),
		answers:      make(map[pairKey]*participant.Answer),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Rooms() *RoomRepository               { return &RoomRepository{s: s} }
func (s *Store) Sessions() *SessionRepository         { return &SessionRepository{s: s} }
func (s *Store) Activations() *ActivationRepository   { return &ActivationRepository{s: s} }
func (s *Store) Participants() *ParticipantRepository { return &ParticipantRepository{s: s} }
func (s *Store) Votes() *VoteRepository               { return &VoteRepository{s: s} }

func cloneActivation(a *activation.Activation) *activation.Activation {
	if a == nil {
		return nil
	}
	out := *a
	if a.TemplateID != nil {
		id := *a.TemplateID
		out.TemplateID = &id
	}
	if a.Content.Options != nil {
		out.Content.Options = append([]activation.Option(nil), a.Content.Options...)
	}
	if a.History != nil {
		out.History = append([]activation.HistoryEntry(nil), a.History...)
	}
	return &out
}

func cloneSession(sess *session.GameSession) *session.GameSession {
	if sess == nil {
		return nil
	}
	out := *sess
	if sess.CurrentActivationID != nil {
		id := *sess.CurrentActivationID
		out.CurrentActivationID = &id
	}
	return &out
}

func cloneParticipant(p *participant.Participant) *participant.Participant {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func cloneVote(v *vote.Vote) *vote.Vote {
	if v == nil {
		return nil
	}
	out := *v
	if v.OptionID != nil {
		id := *v.OptionID
		out.OptionID = &id
	}
	return &out
}

func cloneFailure(f *vote.WriteFailure) *vote.WriteFailure {
	out := *f
	if f.OptionID != nil {
		id := *f.OptionID
		out.OptionID = &id
	}
	if f.LastRetryAt != nil {
		t := *f.LastRetryAt
		out.LastRetryAt = &t
	}
	return &out
}
