package activation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appSession "github.com/livestage/livestage/internal/application/session"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
)

// Service runs the activation lifecycle.
type Service struct {
	repo        activation.Repository
	rooms       room.Repository
	coordinator *appSession.Coordinator
	publisher   notification.Publisher
	logger      zerolog.Logger
}

// NewService creates an activation service.
func NewService(
	repo activation.Repository,
	rooms room.Repository,
	coordinator *appSession.Coordinator,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		rooms:       rooms,
		coordinator: coordinator,
		publisher:   publisher,
		logger:      logger.With().Str("service", "activation").Logger(),
	}
}

// LaunchResult is the outcome of Launch.
type LaunchResult struct {
	Activation *activation.Activation `json:"activation"`
	Session    *session.GameSession   `json:"session"`
}

// CreateTemplate stores a reusable definition. Content is validated on launch.
func (s *Service) CreateTemplate(ctx context.Context, roomID uuid.UUID, kind activation.Kind, content activation.Content) (*activation.Activation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", activation.ErrInvalidContent, kind)
	}
	if _, err := s.requireRoom(ctx, roomID, false); err != nil {
		return nil, err
	}
	t := activation.NewTemplate(roomID, kind, content)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("room_id", roomID.String()).
		Str("activation_id", t.ActivationID.String()).
		Str("kind", string(kind)).
		Msg("template created")
	return t, nil
}

// ListTemplates lists a room's templates.
func (s *Service) ListTemplates(ctx context.Context, roomID uuid.UUID) ([]*activation.Activation, error) {
	return s.repo.ListTemplates(ctx, roomID)
}

// Get retrieves an activation by ID.
func (s *Service) Get(ctx context.Context, activationID uuid.UUID) (*activation.Activation, error) {
	a, err := s.repo.GetByID(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, activation.ErrNotFound
	}
	return a, nil
}

// Launch copies a template into a new live activation and makes it the room's
// current one. Insert, deactivation of the previous activation and the session
// upsert commit together.
func (s *Service) Launch(ctx context.Context, roomID, templateID uuid.UUID, actor string) (*LaunchResult, error) {
	if _, err := s.requireRoom(ctx, roomID, true); err != nil {
		return nil, err
	}
	tmpl, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, activation.ErrNotFound
	}
	if !tmpl.IsTemplate {
		return nil, activation.ErrNotTemplate
	}
	if tmpl.RoomID != roomID {
		return nil, activation.ErrRoomMismatch
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	live := tmpl.LaunchCopy(roomID, actor)
	sess, err := s.repo.Launch(ctx, live)
	if err != nil {
		return nil, fmt.Errorf("launch activation: %w", err)
	}

	s.coordinator.Announce(appSession.NewState(sess, live))
	s.logger.Info().
		Str("room_id", roomID.String()).
		Str("template_id", templateID.String()).
		Str("activation_id", live.ActivationID.String()).
		Str("actor", actor).
		Msg("activation launched")
	return &LaunchResult{Activation: live, Session: sess}, nil
}

// TransitionPoll moves a poll to the requested state through a compare and
// swap on its predecessor. Requesting the state the poll is already in is a
// no-op that returns the activation unchanged and publishes nothing.
func (s *Service) TransitionPoll(ctx context.Context, activationID uuid.UUID, to activation.PollState, actor string) (*activation.Activation, error) {
	from, err := activation.Predecessor(to)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if !current.IsPoll() {
		return nil, activation.ErrNotPoll
	}

	a, applied, err := s.repo.TransitionPoll(ctx, activationID, from, to, activation.NewPollHistory(from, to, actor))
	if err != nil {
		return nil, fmt.Errorf("transition poll: %w", err)
	}
	if a == nil {
		return nil, activation.ErrNotFound
	}
	if !applied {
		// a repeated start is a no-op; a closed poll accepts nothing
		if a.PollState == to && to == activation.PollVoting {
			return a, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", activation.ErrInvalidTransition, a.PollState, to)
	}

	s.publishActivation(notification.EventActivationUpdated, a)
	s.logger.Info().
		Str("activation_id", activationID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", actor).
		Msg("poll transitioned")
	return a, nil
}

// Deactivate takes a live activation off air. If it was the room's current
// activation the session pointer is cleared in the same write. Deactivating
// an inactive activation returns it unchanged and publishes nothing.
func (s *Service) Deactivate(ctx context.Context, activationID uuid.UUID, actor string) (*activation.Activation, error) {
	a, changed, cleared, err := s.repo.Deactivate(ctx, activationID, actor)
	if err != nil {
		return nil, fmt.Errorf("deactivate activation: %w", err)
	}
	if a == nil {
		return nil, activation.ErrNotFound
	}
	if !changed {
		return a, nil
	}
	s.publishActivation(notification.EventActivationUpdated, a)
	if cleared != nil {
		s.coordinator.Announce(appSession.NewState(cleared, nil))
	}
	return a, nil
}

// Delete removes an activation and its votes. A session still pointing at it
// is cleared in the same write.
func (s *Service) Delete(ctx context.Context, activationID uuid.UUID) error {
	a, cleared, err := s.repo.Delete(ctx, activationID)
	if err != nil {
		return fmt.Errorf("delete activation: %w", err)
	}
	if a == nil {
		return activation.ErrNotFound
	}
	s.publishActivation(notification.EventActivationDeleted, a)
	if cleared != nil {
		s.coordinator.Announce(appSession.NewState(cleared, nil))
	}
	s.logger.Info().Str("activation_id", activationID.String()).Msg("activation deleted")
	return nil
}

func (s *Service) requireRoom(ctx context.Context, roomID uuid.UUID, mustBeActive bool) (*room.Room, error) {
	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, room.ErrNotFound
	}
	if mustBeActive && !r.Active {
		return nil, room.ErrInactive
	}
	return r, nil
}

func (s *Service) publishActivation(eventType notification.EventType, a *activation.Activation) {
	channel := notification.RoomChannel(a.RoomID)
	ev, err := notification.NewEvent(eventType, channel, a)
	if err != nil {
		s.logger.Error().Err(err).Str("activation_id", a.ActivationID.String()).Msg("encode activation event")
		return
	}
	s.publisher.Publish(channel, ev)
}
