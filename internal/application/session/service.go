package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/session"
)

// State is what clients see for a room: the session pointer plus the payload
// of the activation it points at.
type State struct {
	RoomID              uuid.UUID              `json:"roomId"`
	CurrentActivationID *uuid.UUID             `json:"currentActivationId"`
	IsLive              bool                   `json:"isLive"`
	Activation          *activation.Activation `json:"activation,omitempty"`
}

// NewState builds a State from a session and its current activation.
func NewState(sess *session.GameSession, act *activation.Activation) *State {
	st := &State{
		RoomID:              sess.RoomID,
		CurrentActivationID: sess.CurrentActivationID,
		IsLive:              sess.IsLive,
	}
	if act != nil && sess.HasCurrent(act.ActivationID) {
		st.Activation = act
	}
	return st
}

// ArmOptions tunes an Arm call.
type ArmOptions struct {
	// PreservePollState keeps a poll's current state instead of resetting it
	// to PENDING, for resuming after an operator reconnects.
	PreservePollState bool
	Actor             string
}

// Coordinator owns the per-room session pointer.
type Coordinator struct {
	repo        session.Repository
	activations activation.Repository
	publisher   notification.Publisher
	logger      zerolog.Logger
}

// NewCoordinator creates a session coordinator.
func NewCoordinator(repo session.Repository, activations activation.Repository, publisher notification.Publisher, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		repo:        repo,
		activations: activations,
		publisher:   publisher,
		logger:      logger.With().Str("service", "session").Logger(),
	}
}

// Arm points the room's session at an existing live activation.
func (c *Coordinator) Arm(ctx context.Context, roomID, activationID uuid.UUID, opts ArmOptions) (*State, error) {
	act, err := c.activations.GetByID(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if act == nil || act.RoomID != roomID {
		return nil, session.ErrActivationNotFound
	}
	if act.IsTemplate {
		return nil, session.ErrTemplateNotArmable
	}

	sess, err := c.repo.Arm(ctx, roomID, activationID, opts.PreservePollState, opts.Actor)
	if err != nil {
		return nil, fmt.Errorf("arm session: %w", err)
	}

	// reread so the payload carries the post-arm poll state
	armed, err := c.activations.GetByID(ctx, activationID)
	if err != nil {
		c.logger.Warn().Err(err).Str("activation_id", activationID.String()).Msg("reload armed activation")
		armed = nil
	}

	st := NewState(sess, armed)
	c.Announce(st)
	c.logger.Info().
		Str("room_id", roomID.String()).
		Str("activation_id", activationID.String()).
		Bool("preserve_poll_state", opts.PreservePollState).
		Msg("session armed")
	return st, nil
}

// Clear nulls the room's current activation. An event is published only when
// the pointer actually changed.
func (c *Coordinator) Clear(ctx context.Context, roomID uuid.UUID) (*State, error) {
	sess, cleared, err := c.repo.Clear(ctx, roomID, nil)
	if err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	if sess == nil {
		return NewState(session.Idle(roomID), nil), nil
	}
	st := NewState(sess, nil)
	if cleared {
		c.Announce(st)
	}
	return st, nil
}

// Get returns the room's session, or the idle state if none was created yet.
func (c *Coordinator) Get(ctx context.Context, roomID uuid.UUID) (*session.GameSession, error) {
	sess, err := c.repo.GetByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return session.Idle(roomID), nil
	}
	return sess, nil
}

// Announce publishes a committed session state on the room channel.
func (c *Coordinator) Announce(st *State) {
	channel := notification.RoomChannel(st.RoomID)
	ev, err := notification.NewEvent(notification.EventSessionUpdated, channel, st)
	if err != nil {
		c.logger.Error().Err(err).Str("room_id", st.RoomID.String()).Msg("encode session event")
		return
	}
	c.publisher.Publish(channel, ev)
}
