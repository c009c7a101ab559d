package leaderboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/livestage/livestage/internal/domain/leaderboard"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
)

type roomBoard struct {
	mu     sync.Mutex
	engine *leaderboard.Engine
}

// Board is the payload of leaderboard events.
type Board struct {
	RoomID  uuid.UUID            `json:"roomId"`
	Ranking *leaderboard.Ranking `json:"ranking"`
}

// Service keeps one ranking engine per room so rank deltas and leader changes
// are tracked across refreshes.
type Service struct {
	participants participant.Repository
	publisher    notification.Publisher
	logger       zerolog.Logger

	mu     sync.Mutex
	boards map[uuid.UUID]*roomBoard
}

// NewService creates a leaderboard service.
func NewService(participants participant.Repository, publisher notification.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		participants: participants,
		publisher:    publisher,
		logger:       logger.With().Str("service", "leaderboard").Logger(),
		boards:       make(map[uuid.UUID]*roomBoard),
	}
}

func (s *Service) board(roomID uuid.UUID) *roomBoard {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[roomID]
	if !ok {
		b = &roomBoard{engine: leaderboard.NewEngine()}
		s.boards[roomID] = b
	}
	return b
}

// Refresh reranks the room from current scores and publishes the result.
// Refreshes of one room are serialised so deltas are computed in order.
func (s *Service) Refresh(ctx context.Context, roomID uuid.UUID) (*leaderboard.Ranking, error) {
	b := s.board(roomID)
	b.mu.Lock()
	defer b.mu.Unlock()

	ps, err := s.participants.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ranking := b.engine.Rank(ps)

	s.publish(roomID, notification.EventLeaderboardUpdated, ranking)
	if ranking.LeaderChanged {
		leader := ranking.Leader()
		s.logger.Info().
			Str("room_id", roomID.String()).
			Str("participant_id", leader.ParticipantID.String()).
			Int64("score", leader.Score).
			Msg("new leader")
		s.publish(roomID, notification.EventLeaderChanged, ranking)
	}
	return ranking, nil
}

// Current returns the last published ranking, computing one if the room has
// never been ranked.
func (s *Service) Current(ctx context.Context, roomID uuid.UUID) (*leaderboard.Ranking, error) {
	if last := s.board(roomID).engine.Last(); last != nil {
		return last, nil
	}
	return s.Refresh(ctx, roomID)
}

// Forget drops the room's rank memory, used after a reset.
func (s *Service) Forget(roomID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, roomID)
}

func (s *Service) publish(roomID uuid.UUID, eventType notification.EventType, ranking *leaderboard.Ranking) {
	channel := notification.RoomChannel(roomID)
	ev, err := notification.NewEvent(eventType, channel, Board{RoomID: roomID, Ranking: ranking})
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("encode leaderboard event")
		return
	}
	s.publisher.Publish(channel, ev)
}
