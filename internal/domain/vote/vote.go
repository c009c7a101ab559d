package vote

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/activation"
)

// MaxRetries bounds automatic replays of a failed vote write.
const MaxRetries = 3

var (
	ErrVotingClosed  = errors.New("poll is not open for voting")
	ErrUnknownOption = errors.New("option does not belong to poll")
	ErrNotFound      = errors.New("vote write failure not found")
)

// Status describes what happened to a cast vote.
type Status string

const (
	StatusRecorded  Status = "RECORDED"
	StatusDuplicate Status = "DUPLICATE"
	StatusQueued    Status = "QUEUED"
)

// Outcome is the result of a conditional vote insert.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
	OutcomeOutOfWindow
	OutcomeActivationMissing
)

// Vote is one participant's choice on one poll. The (activation, participant)
// pair is unique.
type Vote struct {
	ID            int64     `json:"id"`
	VoteID        uuid.UUID `json:"voteId"`
	ActivationID  uuid.UUID `json:"activationId"`
	ParticipantID uuid.UUID `json:"participantId"`
	OptionID      *string   `json:"optionId,omitempty"`
	OptionText    string    `json:"optionText"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewVote creates a vote record.
func NewVote(activationID, participantID uuid.UUID, optionID *string, optionText string) *Vote {
	return &Vote{
		VoteID:        uuid.New(),
		ActivationID:  activationID,
		ParticipantID: participantID,
		OptionID:      optionID,
		OptionText:    optionText,
		CreatedAt:     time.Now().UTC(),
	}
}

// OptionCount is one bucket of a tally.
type OptionCount struct {
	OptionID   string `json:"optionId,omitempty"`
	OptionText string `json:"optionText"`
	Count      int    `json:"count"`
}

// Tally is the per-option aggregate of a poll, computed from the vote set.
type Tally struct {
	ActivationID uuid.UUID     `json:"activationId"`
	Total        int           `json:"total"`
	Options      []OptionCount `json:"options"`
}

// BuildTally groups votes by option id, falling back to option text for rows
// written before option ids existed. Every poll option appears, zero or not;
// votes that match no option get their own trailing bucket.
func BuildTally(activationID uuid.UUID, options []activation.Option, votes []*Vote) *Tally {
	t := &Tally{ActivationID: activationID, Options: make([]OptionCount, 0, len(options))}
	byID := make(map[string]int, len(options))
	byText := make(map[string]int, len(options))
	for i, o := range options {
		t.Options = append(t.Options, OptionCount{OptionID: o.ID, OptionText: o.Text})
		byID[o.ID] = i
		key := normalizeText(o.Text)
		if _, ok := byText[key]; !ok {
			byText[key] = i
		}
	}
	for _, v := range votes {
		idx, ok := -1, false
		if v.OptionID != nil {
			idx, ok = byID[*v.OptionID]
		}
		if !ok {
			idx, ok = byText[normalizeText(v.OptionText)]
		}
		if !ok {
			t.Options = append(t.Options, OptionCount{OptionText: v.OptionText})
			idx = len(t.Options) - 1
			byText[normalizeText(v.OptionText)] = idx
		}
		t.Options[idx].Count++
		t.Total++
	}
	return t
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Result is returned from casting a vote.
type Result struct {
	Status Status `json:"status"`
	Vote   *Vote  `json:"vote"`
	Tally  *Tally `json:"tally,omitempty"`
}

// WriteFailure is a vote write that could not be committed and awaits replay.
type WriteFailure struct {
	ID            int64      `json:"id"`
	FailureID     uuid.UUID  `json:"failureId"`
	VoteID        uuid.UUID  `json:"voteId"`
	ActivationID  uuid.UUID  `json:"activationId"`
	ParticipantID uuid.UUID  `json:"participantId"`
	OptionID      *string    `json:"optionId,omitempty"`
	OptionText    string     `json:"optionText"`
	Error         string     `json:"error"`
	RetryCount    int        `json:"retryCount"`
	LastRetryAt   *time.Time `json:"lastRetryAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewWriteFailure captures a failed vote write with retry count 0.
func NewWriteFailure(v *Vote, cause error) *WriteFailure {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &WriteFailure{
		FailureID:     uuid.New(),
		VoteID:        v.VoteID,
		ActivationID:  v.ActivationID,
		ParticipantID: v.ParticipantID,
		OptionID:      v.OptionID,
		OptionText:    v.OptionText,
		Error:         msg,
		CreatedAt:     time.Now().UTC(),
	}
}

// Vote rebuilds the attempted vote.
func (f *WriteFailure) Vote() *Vote {
	return &Vote{
		VoteID:        f.VoteID,
		ActivationID:  f.ActivationID,
		ParticipantID: f.ParticipantID,
		OptionID:      f.OptionID,
		OptionText:    f.OptionText,
		CreatedAt:     f.CreatedAt,
	}
}

// Exhausted reports whether the sweep has given up on this entry.
func (f *WriteFailure) Exhausted() bool {
	return f.RetryCount >= MaxRetries
}
