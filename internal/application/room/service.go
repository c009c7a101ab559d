package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	appSession "github.com/livestage/livestage/internal/application/session"
	appVote "github.com/livestage/livestage/internal/application/vote"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
	"github.com/livestage/livestage/internal/domain/vote"
)

// LiveState is what a client loads on connect and reconnect.
type LiveState struct {
	Room  *room.Room        `json:"room"`
	State *appSession.State `json:"state"`
	Tally *vote.Tally       `json:"tally,omitempty"`
}

// ResetEvent is published after a room reset.
type ResetEvent struct {
	RoomID  uuid.UUID            `json:"roomId"`
	Mode    room.ResetMode       `json:"mode"`
	Session *session.GameSession `json:"session"`
}

// Service handles room level operations.
type Service struct {
	rooms        room.Repository
	participants participant.Repository
	activations  activation.Repository
	coordinator  *appSession.Coordinator
	votes        *appVote.Service
	leaderboard  *appLeaderboard.Service
	publisher    notification.Publisher
	logger       zerolog.Logger

	liveReads singleflight.Group
}

// NewService creates a room service.
func NewService(
	rooms room.Repository,
	participants participant.Repository,
	activations activation.Repository,
	coordinator *appSession.Coordinator,
	votes *appVote.Service,
	leaderboard *appLeaderboard.Service,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		rooms:        rooms,
		participants: participants,
		activations:  activations,
		coordinator:  coordinator,
		votes:        votes,
		leaderboard:  leaderboard,
		publisher:    publisher,
		logger:       logger.With().Str("service", "room").Logger(),
	}
}

// Get returns an existing room.
func (s *Service) Get(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, room.ErrNotFound
	}
	return r, nil
}

// JoinRoom registers a participant in an active room.
func (s *Service) JoinRoom(ctx context.Context, roomID uuid.UUID, displayName string) (*participant.Participant, error) {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !r.Active {
		return nil, room.ErrInactive
	}
	p, err := participant.New(roomID, displayName)
	if err != nil {
		return nil, err
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(roomID, notification.EventParticipantJoined, p)
	return p, nil
}

// ResetRoom clears the current activation and either zeroes or deletes the
// room's participants in one write.
func (s *Service) ResetRoom(ctx context.Context, roomID uuid.UUID, mode room.ResetMode) (*session.GameSession, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid reset mode %q", mode)
	}
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}
	sess, err := s.rooms.Reset(ctx, roomID, mode)
	if err != nil {
		return nil, fmt.Errorf("reset room: %w", err)
	}
	s.leaderboard.Forget(roomID)
	s.publish(roomID, notification.EventRoomReset, ResetEvent{RoomID: roomID, Mode: mode, Session: sess})
	s.logger.Info().Str("room_id", roomID.String()).Str("mode", string(mode)).Msg("room reset")
	return sess, nil
}

// liveReadTimeout bounds a shared live state read, which no single caller
// can cancel.
const liveReadTimeout = 5 * time.Second

// GetLiveState reads the room's session and current activation. Concurrent
// reads for the same room share one datastore round trip. A caller whose ctx
// ends stops waiting without failing the others.
func (s *Service) GetLiveState(ctx context.Context, roomID uuid.UUID) (*LiveState, error) {
	ch := s.liveReads.DoChan(roomID.String(), func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), liveReadTimeout)
		defer cancel()
		return s.loadLiveState(readCtx, roomID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*LiveState), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) loadLiveState(ctx context.Context, roomID uuid.UUID) (*LiveState, error) {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	sess, err := s.coordinator.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	live := &LiveState{Room: r, State: appSession.NewState(sess, nil)}
	if sess.CurrentActivationID == nil {
		return live, nil
	}

	act, err := s.activations.GetByID(ctx, *sess.CurrentActivationID)
	if err != nil {
		return nil, err
	}
	if act == nil {
		return live, nil
	}
	live.State = appSession.NewState(sess, act)
	if act.IsPoll() {
		tally, err := s.votes.Tally(ctx, act.ActivationID)
		if err != nil {
			s.logger.Warn().Err(err).Str("activation_id", act.ActivationID.String()).Msg("tally for live state")
		} else {
			live.Tally = tally
		}
	}
	return live, nil
}

func (s *Service) publish(roomID uuid.UUID, eventType notification.EventType, payload interface{}) {
	channel := notification.RoomChannel(roomID)
	ev, err := notification.NewEvent(eventType, channel, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("encode room event")
		return
	}
	s.publisher.Publish(channel, ev)
}
