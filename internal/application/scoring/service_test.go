package scoring

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/infrastructure/memory"
)

type eventLog struct {
	mu    sync.Mutex
	types []notification.EventType
}

func (l *eventLog) Publish(_ string, ev *notification.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, ev.Type)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	store  *memory.Store
	svc    *Service
	events *eventLog
	roomID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	roomID := uuid.New()
	require.NoError(t, store.Rooms().Ensure(context.Background(), &room.Room{RoomID: roomID, Code: "R1", Active: true}))
	formula, err := NewFormula("")
	require.NoError(t, err)
	events := &eventLog{}
	logger := zerolog.Nop()
	lb := appLeaderboard.NewService(store.Participants(), events, logger)
	return &fixture{
		store:  store,
		svc:    NewService(store.Activations(), store.Participants(), lb, formula, logger),
		events: events,
		roomID: roomID,
	}
}

func (f *fixture) launch(t *testing.T, kind activation.Kind, content activation.Content) *activation.Activation {
	t.Helper()
	live := activation.NewTemplate(f.roomID, kind, content).LaunchCopy(f.roomID, "host")
	_, err := f.store.Activations().Launch(context.Background(), live)
	require.NoError(t, err)
	return live
}

func (f *fixture) join(t *testing.T, name string) *participant.Participant {
	t.Helper()
	p, err := participant.New(f.roomID, name)
	require.NoError(t, err)
	require.NoError(t, f.store.Participants().Create(context.Background(), p))
	return p
}

func quizContent() activation.Content {
	return activation.Content{
		Question:         "2 + 2?",
		Options:          []activation.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
		CorrectOptionID:  strPtr("b"),
		TimeLimitSeconds: 10,
	}
}

func TestService_SubmitAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.launch(t, activation.KindMultipleChoice, quizContent())
	p := f.join(t, "Ada")

	res, err := f.svc.SubmitAnswer(ctx, quiz.ActivationID, p.ParticipantID, "b", 5000)
	require.NoError(t, err)
	require.True(t, res.Recorded)
	assert.True(t, res.Answer.Correct)
	assert.Equal(t, int64(750), res.Answer.Points)
	assert.Equal(t, int64(750), res.Participant.Score)
	assert.Equal(t, 1, res.Participant.Stats.CorrectCount)
	assert.Contains(t, f.events.types, notification.EventLeaderboardUpdated)

	// only the first answer counts
	again, err := f.svc.SubmitAnswer(ctx, quiz.ActivationID, p.ParticipantID, "b", 0)
	require.NoError(t, err)
	assert.False(t, again.Recorded)
	assert.Equal(t, int64(750), again.Participant.Score)
}

func TestService_SubmitAnswerRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.join(t, "Ada")

	poll := f.launch(t, activation.KindPoll, activation.Content{Options: []activation.Option{{ID: "a"}, {ID: "b"}}})
	_, err := f.svc.SubmitAnswer(ctx, poll.ActivationID, p.ParticipantID, "a", 0)
	require.ErrorIs(t, err, ErrNotScorable)

	first := f.launch(t, activation.KindMultipleChoice, quizContent())
	f.launch(t, activation.KindMultipleChoice, quizContent())
	_, err = f.svc.SubmitAnswer(ctx, first.ActivationID, p.ParticipantID, "b", 0)
	require.ErrorIs(t, err, ErrNotLive)

	_, err = f.svc.SubmitAnswer(ctx, uuid.New(), p.ParticipantID, "b", 0)
	require.ErrorIs(t, err, activation.ErrNotFound)
}

func TestIsCorrect(t *testing.T) {
	quiz := &activation.Activation{Kind: activation.KindMultipleChoice, Content: quizContent()}
	assert.True(t, IsCorrect(quiz, "b"))
	assert.True(t, IsCorrect(quiz, " 4 "))
	assert.False(t, IsCorrect(quiz, "a"))
	assert.False(t, IsCorrect(quiz, "3"))

	text := &activation.Activation{Kind: activation.KindTextAnswer, Content: activation.Content{ExactAnswer: strPtr("Paris")}}
	assert.True(t, IsCorrect(text, "  paris"))
	assert.False(t, IsCorrect(text, "Lyon"))

	poll := &activation.Activation{Kind: activation.KindPoll}
	assert.False(t, IsCorrect(poll, "anything"))
}
