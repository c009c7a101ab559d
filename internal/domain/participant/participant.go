package participant

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxDisplayNameLength = 40

var (
	ErrNotFound           = errors.New("participant not found")
	ErrInvalidDisplayName = errors.New("display name must be 1-40 characters")
	ErrWrongRoom          = errors.New("participant does not belong to room")
)

// Stats is the running scoring summary for a participant.
type Stats struct {
	TotalPoints  int64   `json:"totalPoints"`
	CorrectCount int     `json:"correctCount"`
	TotalAnswers int     `json:"totalAnswers"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// Participant is a room-scoped entrant.
type Participant struct {
	ID            int64     `json:"id"`
	ParticipantID uuid.UUID `json:"participantId"`
	RoomID        uuid.UUID `json:"roomId"`
	DisplayName   string    `json:"displayName"`
	Score         int64     `json:"score"`
	Stats         Stats     `json:"stats"`
	JoinedAt      time.Time `json:"joinedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// New creates a participant with a validated display name.
func New(roomID uuid.UUID, displayName string) (*Participant, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || len([]rune(name)) > maxDisplayNameLength {
		return nil, ErrInvalidDisplayName
	}
	now := time.Now().UTC()
	return &Participant{
		ParticipantID: uuid.New(),
		RoomID:        roomID,
		DisplayName:   name,
		JoinedAt:      now,
		UpdatedAt:     now,
	}, nil
}

// Apply folds one scored answer into the participant. Repositories use it to
// keep in-memory rows in step with the SQL increment.
func (p *Participant) Apply(a *Answer) {
	n := float64(p.Stats.TotalAnswers)
	p.Stats.AvgLatencyMs = (p.Stats.AvgLatencyMs*n + float64(a.LatencyMs)) / (n + 1)
	p.Stats.TotalAnswers++
	if a.Correct {
		p.Stats.CorrectCount++
	}
	p.Stats.TotalPoints += a.Points
	p.Score += a.Points
	p.UpdatedAt = a.CreatedAt
}

// ResetScore zeroes score and stats.
func (p *Participant) ResetScore() {
	p.Score = 0
	p.Stats = Stats{}
	p.UpdatedAt = time.Now().UTC()
}

// Answer is one scored response to a question activation. The (activation,
// participant) pair is unique.
type Answer struct {
	ID            int64     `json:"id"`
	AnswerID      uuid.UUID `json:"answerId"`
	ActivationID  uuid.UUID `json:"activationId"`
	ParticipantID uuid.UUID `json:"participantId"`
	Answer        string    `json:"answer"`
	Correct       bool      `json:"correct"`
	Points        int64     `json:"points"`
	LatencyMs     int64     `json:"latencyMs"`
	CreatedAt     time.Time `json:"createdAt"`
}
