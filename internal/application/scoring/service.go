package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/participant"
)

var (
	ErrNotScorable = errors.New("activation does not accept scored answers")
	ErrNotLive     = errors.New("activation is not live")
)

// Result is returned from SubmitAnswer.
type Result struct {
	Recorded    bool                     `json:"recorded"`
	Answer      *participant.Answer      `json:"answer,omitempty"`
	Participant *participant.Participant `json:"participant"`
}

// Service scores answers to question activations.
type Service struct {
	activations  activation.Repository
	participants participant.Repository
	leaderboard  *appLeaderboard.Service
	formula      *Formula
	logger       zerolog.Logger
}

// NewService creates a scoring service.
func NewService(
	activations activation.Repository,
	participants participant.Repository,
	leaderboard *appLeaderboard.Service,
	formula *Formula,
	logger zerolog.Logger,
) *Service {
	return &Service{
		activations:  activations,
		participants: participants,
		leaderboard:  leaderboard,
		formula:      formula,
		logger:       logger.With().Str("service", "scoring").Logger(),
	}
}

// SubmitAnswer scores a participant's answer. Only the first answer per
// activation counts; later ones return Recorded=false and the unchanged
// participant.
func (s *Service) SubmitAnswer(ctx context.Context, activationID, participantID uuid.UUID, answer string, latencyMs int64) (*Result, error) {
	act, err := s.activations.GetByID(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if act == nil {
		return nil, activation.ErrNotFound
	}
	if act.Kind != activation.KindMultipleChoice && act.Kind != activation.KindTextAnswer {
		return nil, ErrNotScorable
	}
	if act.IsTemplate || !act.Active {
		return nil, ErrNotLive
	}

	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, participant.ErrNotFound
	}
	if p.RoomID != act.RoomID {
		return nil, participant.ErrWrongRoom
	}

	correct := IsCorrect(act, answer)
	points, err := s.formula.Points(correct, latencyMs, int64(act.Content.TimeLimitSeconds)*1000)
	if err != nil {
		return nil, err
	}

	a := &participant.Answer{
		AnswerID:      uuid.New(),
		ActivationID:  activationID,
		ParticipantID: participantID,
		Answer:        answer,
		Correct:       correct,
		Points:        points,
		LatencyMs:     latencyMs,
		CreatedAt:     time.Now().UTC(),
	}
	updated, recorded, err := s.participants.RecordAnswer(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}
	if !recorded {
		return &Result{Recorded: false, Participant: updated}, nil
	}

	if _, err := s.leaderboard.Refresh(ctx, act.RoomID); err != nil {
		s.logger.Warn().Err(err).Str("room_id", act.RoomID.String()).Msg("leaderboard refresh after answer")
	}
	s.logger.Debug().
		Str("activation_id", activationID.String()).
		Str("participant_id", participantID.String()).
		Bool("correct", correct).
		Int64("points", points).
		Msg("answer scored")
	return &Result{Recorded: true, Answer: a, Participant: updated}, nil
}

// IsCorrect checks an answer against the activation's answer key. Multiple
// choice accepts the option id or the option text.
func IsCorrect(act *activation.Activation, answer string) bool {
	answer = strings.TrimSpace(answer)
	switch act.Kind {
	case activation.KindMultipleChoice:
		if act.Content.CorrectOptionID == nil {
			return false
		}
		if answer == *act.Content.CorrectOptionID {
			return true
		}
		opt := act.Content.OptionByText(answer)
		return opt != nil && opt.ID == *act.Content.CorrectOptionID
	case activation.KindTextAnswer:
		if act.Content.ExactAnswer == nil {
			return false
		}
		return strings.EqualFold(answer, strings.TrimSpace(*act.Content.ExactAnswer))
	}
	return false
}
