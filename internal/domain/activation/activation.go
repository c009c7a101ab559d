package activation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of an activation.
type Kind string

const (
	KindMultipleChoice Kind = "MULTIPLE_CHOICE"
	KindTextAnswer     Kind = "TEXT_ANSWER"
	KindPoll           Kind = "POLL"
	KindSocialWall     Kind = "SOCIAL_WALL"
	KindLeaderboard    Kind = "LEADERBOARD"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindTextAnswer, KindPoll, KindSocialWall, KindLeaderboard:
		return true
	}
	return false
}

// PollState is the voting lifecycle of a poll.
type PollState string

const (
	PollPending PollState = "PENDING"
	PollVoting  PollState = "VOTING"
	PollClosed  PollState = "CLOSED"
)

// HistoryAction names an entry in the activation side-log.
type HistoryAction string

const (
	HistoryLaunched    HistoryAction = "LAUNCHED"
	HistoryArmed       HistoryAction = "ARMED"
	HistoryPollState   HistoryAction = "POLL_STATE"
	HistoryDeactivated HistoryAction = "DEACTIVATED"
)

var (
	ErrNotFound          = errors.New("activation not found")
	ErrInvalidContent    = errors.New("invalid activation content")
	ErrInvalidTransition = errors.New("invalid poll state transition")
	ErrNotPoll           = errors.New("activation is not a poll")
	ErrNotTemplate       = errors.New("activation is not a template")
	ErrRoomMismatch      = errors.New("template belongs to another room")
)

// Option is one selectable answer.
type Option struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	MediaURL *string `json:"mediaUrl,omitempty"`
}

// Content is the immutable payload shown to participants.
type Content struct {
	Question         string          `json:"question"`
	Options          []Option        `json:"options,omitempty"`
	CorrectOptionID  *string         `json:"correctOptionId,omitempty"`
	ExactAnswer      *string         `json:"exactAnswer,omitempty"`
	TimeLimitSeconds int             `json:"timeLimitSeconds,omitempty"`
	Display          json.RawMessage `json:"display,omitempty"`
}

// HistoryEntry is one append-only audit record.
type HistoryEntry struct {
	Action HistoryAction `json:"action"`
	From   *PollState    `json:"from,omitempty"`
	To     *PollState    `json:"to,omitempty"`
	Actor  string        `json:"actor"`
	At     time.Time     `json:"at"`
}

// Activation is a question, poll or display unit. Templates are reusable
// definitions; live copies are created by launching a template into a room.
type Activation struct {
	ID           int64          `json:"id"`
	ActivationID uuid.UUID      `json:"activationId"`
	RoomID       uuid.UUID      `json:"roomId"`
	TemplateID   *uuid.UUID     `json:"templateId,omitempty"`
	Kind         Kind           `json:"kind"`
	IsTemplate   bool           `json:"isTemplate"`
	Active       bool           `json:"active"`
	PollState    PollState      `json:"pollState,omitempty"`
	Content      Content        `json:"content"`
	History      []HistoryEntry `json:"history,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewTemplate creates a reusable activation definition.
func NewTemplate(roomID uuid.UUID, kind Kind, content Content) *Activation {
	now := time.Now().UTC()
	a := &Activation{
		ActivationID: uuid.New(),
		RoomID:       roomID,
		Kind:         kind,
		IsTemplate:   true,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if kind == KindPoll {
		a.PollState = PollPending
	}
	return a
}

// IsPoll reports whether the poll lifecycle applies.
func (a *Activation) IsPoll() bool {
	return a.Kind == KindPoll
}

// Validate checks the minimum content requirements for going live.
func (a *Activation) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidContent, a.Kind)
	}
	switch a.Kind {
	case KindPoll:
		return validateOptions(a.Content.Options)
	case KindMultipleChoice:
		if err := validateOptions(a.Content.Options); err != nil {
			return err
		}
		if a.Content.CorrectOptionID == nil || strings.TrimSpace(*a.Content.CorrectOptionID) == "" {
			return fmt.Errorf("%w: multiple choice requires a correct answer", ErrInvalidContent)
		}
		if a.Content.Option(*a.Content.CorrectOptionID) == nil {
			return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidContent, *a.Content.CorrectOptionID)
		}
	case KindTextAnswer:
		if a.Content.ExactAnswer == nil || strings.TrimSpace(*a.Content.ExactAnswer) == "" {
			return fmt.Errorf("%w: text answer requires an exact answer", ErrInvalidContent)
		}
	}
	if a.Content.TimeLimitSeconds < 0 {
		return fmt.Errorf("%w: time limit cannot be negative", ErrInvalidContent)
	}
	return nil
}

func validateOptions(options []Option) error {
	if len(options) < 2 {
		return fmt.Errorf("%w: at least 2 options are required (got %d)", ErrInvalidContent, len(options))
	}
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		id := strings.TrimSpace(o.ID)
		if id == "" {
			return fmt.Errorf("%w: option id is required", ErrInvalidContent)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate option id %q", ErrInvalidContent, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Option returns the option with the given id, or nil.
func (c Content) Option(id string) *Option {
	for i := range c.Options {
		if c.Options[i].ID == id {
			return &c.Options[i]
		}
	}
	return nil
}

// OptionByText returns the first option whose text matches, or nil.
func (c Content) OptionByText(text string) *Option {
	text = strings.TrimSpace(text)
	for i := range c.Options {
		if strings.EqualFold(strings.TrimSpace(c.Options[i].Text), text) {
			return &c.Options[i]
		}
	}
	return nil
}

// LaunchCopy seeds a live, active activation from a template.
func (a *Activation) LaunchCopy(roomID uuid.UUID, actor string) *Activation {
	now := time.Now().UTC()
	templateID := a.ActivationID
	live := &Activation{
		ActivationID: uuid.New(),
		RoomID:       roomID,
		TemplateID:   &templateID,
		Kind:         a.Kind,
		Active:       true,
		Content:      a.Content.clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if live.IsPoll() {
		live.PollState = PollPending
	}
	live.History = []HistoryEntry{{Action: HistoryLaunched, Actor: actor, At: now}}
	return live
}

func (c Content) clone() Content {
	out := c
	if c.Options != nil {
		out.Options = make([]Option, len(c.Options))
		copy(out.Options, c.Options)
	}
	if c.Display != nil {
		out.Display = append(json.RawMessage(nil), c.Display...)
	}
	return out
}

// Predecessor returns the only state a poll may move to target from.
func Predecessor(target PollState) (PollState, error) {
	switch target {
	case PollVoting:
		return PollPending, nil
	case PollClosed:
		return PollVoting, nil
	}
	return "", fmt.Errorf("%w: %s is not a valid target", ErrInvalidTransition, target)
}

// CanTransitionTo validates a poll state transition.
func (a *Activation) CanTransitionTo(target PollState) bool {
	if !a.IsPoll() {
		return false
	}
	from, err := Predecessor(target)
	if err != nil {
		return false
	}
	return a.PollState == from
}

// NewPollHistory builds the side-log entry for a poll transition.
func NewPollHistory(from, to PollState, actor string) HistoryEntry {
	return HistoryEntry{
		Action: HistoryPollState,
		From:   &from,
		To:     &to,
		Actor:  actor,
		At:     time.Now().UTC(),
	}
}

// AcceptsVotes reports whether votes may be recorded right now.
func (a *Activation) AcceptsVotes() bool {
	return a.IsPoll() && a.PollState == PollVoting
}
