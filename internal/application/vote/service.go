package vote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/vote"
)

// ClaimLease is how long a claimed write failure stays hidden from other
// sweeps.
const ClaimLease = 2 * time.Minute

// Service is the vote ledger front end.
type Service struct {
	repo         vote.Repository
	activations  activation.Repository
	participants participant.Repository
	publisher    notification.Publisher
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a vote service.
func NewService(
	repo vote.Repository,
	activations activation.Repository,
	participants participant.Repository,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		activations:  activations,
		participants: participants,
		publisher:    publisher,
		logger:       logger.With().Str("service", "vote").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CastVote records one vote per participant per poll. A repeat vote returns
// the stored one with StatusDuplicate. A failed write is queued for replay and
// reported as StatusQueued.
func (s *Service) CastVote(ctx context.Context, activationID, participantID uuid.UUID, optionID *string, optionText string) (*vote.Result, error) {
	act, err := s.activations.GetByID(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if act == nil {
		return nil, activation.ErrNotFound
	}
	if !act.IsPoll() {
		return nil, activation.ErrNotPoll
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

	opt, err := resolveOption(act.Content, optionID, optionText)
	if err != nil {
		return nil, err
	}
	if !act.AcceptsVotes() {
		return nil, fmt.Errorf("%w: poll is %s", vote.ErrVotingClosed, act.PollState)
	}

	id := opt.ID
	v := vote.NewVote(activationID, participantID, &id, opt.Text)
	outcome, existing, err := s.repo.Insert(ctx, v)
	if err != nil {
		return s.queue(ctx, v, err)
	}

	switch outcome {
	case vote.OutcomeDuplicate:
		tally, err := s.tallyFor(ctx, act)
		if err != nil {
			s.logger.Warn().Err(err).Str("activation_id", activationID.String()).Msg("tally for duplicate vote")
		}
		return &vote.Result{Status: vote.StatusDuplicate, Vote: existing, Tally: tally}, nil
	case vote.OutcomeOutOfWindow:
		return nil, vote.ErrVotingClosed
	case vote.OutcomeActivationMissing:
		return nil, activation.ErrNotFound
	}

	tally, err := s.tallyFor(ctx, act)
	if err != nil {
		s.logger.Warn().Err(err).Str("activation_id", activationID.String()).Msg("tally after vote")
		return &vote.Result{Status: vote.StatusRecorded, Vote: v}, nil
	}
	s.publishTally(act.ActivationID, tally)
	return &vote.Result{Status: vote.StatusRecorded, Vote: v, Tally: tally}, nil
}

func (s *Service) queue(ctx context.Context, v *vote.Vote, cause error) (*vote.Result, error) {
	f := vote.NewWriteFailure(v, cause)
	if err := s.repo.CreateFailure(ctx, f); err != nil {
		s.logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("activation_id", v.ActivationID.String()).
			Str("participant_id", v.ParticipantID.String()).
			Msg("vote write failed and could not be queued")
		return nil, fmt.Errorf("record vote: %w", cause)
	}
	s.logger.Warn().
		Err(cause).
		Str("failure_id", f.FailureID.String()).
		Str("activation_id", v.ActivationID.String()).
		Msg("vote write queued for retry")
	return &vote.Result{Status: vote.StatusQueued, Vote: v}, nil
}

func resolveOption(content activation.Content, optionID *string, optionText string) (*activation.Option, error) {
	if optionID != nil && strings.TrimSpace(*optionID) != "" {
		if opt := content.Option(*optionID); opt != nil {
			return opt, nil
		}
		return nil, fmt.Errorf("%w: %q", vote.ErrUnknownOption, *optionID)
	}
	if strings.TrimSpace(optionText) != "" {
		if opt := content.OptionByText(optionText); opt != nil {
			return opt, nil
		}
		return nil, fmt.Errorf("%w: %q", vote.ErrUnknownOption, optionText)
	}
	return nil, fmt.Errorf("%w: option id or text is required", vote.ErrUnknownOption)
}

// Tally computes the current per-option counts of a poll.
func (s *Service) Tally(ctx context.Context, activationID uuid.UUID) (*vote.Tally, error) {
	act, err := s.activations.GetByID(ctx, activationID)
	if err != nil {
		return nil, err
	}
	if act == nil {
		return nil, activation.ErrNotFound
	}
	if !act.IsPoll() {
		return nil, activation.ErrNotPoll
	}
	return s.tallyFor(ctx, act)
}

func (s *Service) tallyFor(ctx context.Context, act *activation.Activation) (*vote.Tally, error) {
	votes, err := s.repo.ListByActivation(ctx, act.ActivationID)
	if err != nil {
		return nil, err
	}
	return vote.BuildTally(act.ActivationID, act.Content.Options, votes), nil
}

func (s *Service) publishTally(activationID uuid.UUID, tally *vote.Tally) {
	channel := notification.ActivationChannel(activationID)
	ev, err := notification.NewEvent(notification.EventPollTally, channel, tally)
	if err != nil {
		s.logger.Error().Err(err).Str("activation_id", activationID.String()).Msg("encode tally event")
		return
	}
	s.publisher.Publish(channel, ev)
}

// SweepReport summarises one ProcessFailedWrites pass.
type SweepReport struct {
	Claimed    int `json:"claimed"`
	Replayed   int `json:"replayed"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	Exhausted  int `json:"exhausted"`
}

// ProcessFailedWrites replays queued vote writes. Entries are claimed with a
// single conditional update so concurrent sweeps never replay the same one.
func (s *Service) ProcessFailedWrites(ctx context.Context, limit int) (*SweepReport, error) {
	claimed, err := s.repo.ClaimRetryable(ctx, vote.MaxRetries, limit, s.now(), ClaimLease)
	if err != nil {
		return nil, fmt.Errorf("claim vote failures: %w", err)
	}
	report := &SweepReport{Claimed: len(claimed)}
	touched := make(map[uuid.UUID]struct{})

	for _, f := range claimed {
		inserted, err := s.repo.Replay(ctx, f.Vote())
		if err != nil {
			report.Failed++
			if recErr := s.repo.RecordFailureError(ctx, f.FailureID, err.Error()); recErr != nil {
				s.logger.Error().Err(recErr).Str("failure_id", f.FailureID.String()).Msg("record replay error")
			}
			if f.Exhausted() {
				report.Exhausted++
				s.logger.Warn().
					Err(err).
					Str("failure_id", f.FailureID.String()).
					Str("activation_id", f.ActivationID.String()).
					Str("participant_id", f.ParticipantID.String()).
					Int("retry_count", f.RetryCount).
					Msg("vote write retries exhausted, needs manual review")
			}
			continue
		}
		if err := s.repo.DeleteFailure(ctx, f.FailureID); err != nil {
			s.logger.Error().Err(err).Str("failure_id", f.FailureID.String()).Msg("delete replayed failure")
		}
		if inserted {
			report.Replayed++
			touched[f.ActivationID] = struct{}{}
		} else {
			report.Duplicates++
		}
	}

	for activationID := range touched {
		tally, err := s.Tally(ctx, activationID)
		if err != nil {
			s.logger.Warn().Err(err).Str("activation_id", activationID.String()).Msg("tally after replay")
			continue
		}
		s.publishTally(activationID, tally)
	}
	return report, nil
}

// ListFailures lists queued vote writes for inspection.
func (s *Service) ListFailures(ctx context.Context, exhaustedOnly bool, limit int) ([]*vote.WriteFailure, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListFailures(ctx, exhaustedOnly, limit)
}
