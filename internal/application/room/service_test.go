package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appActivation "github.com/livestage/livestage/internal/application/activation"
	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	appSession "github.com/livestage/livestage/internal/application/session"
	appVote "github.com/livestage/livestage/internal/application/vote"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/infrastructure/memory"
)

type eventLog struct {
	mu     sync.Mutex
	events []*notification.Event
}

func (l *eventLog) Publish(_ string, ev *notification.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) last() *notification.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1]
}

type fixture struct {
	store       *memory.Store
	svc         *Service
	activations *appActivation.Service
	votes       *appVote.Service
	events      *eventLog
	roomID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	roomID := uuid.New()
	require.NoError(t, store.Rooms().Ensure(context.Background(), &room.Room{RoomID: roomID, Code: "R1", Name: "Quiz night", Active: true}))

	events := &eventLog{}
	logger := zerolog.Nop()
	coordinator := appSession.NewCoordinator(store.Sessions(), store.Activations(), events, logger)
	lb := appLeaderboard.NewService(store.Participants(), events, logger)
	votes := appVote.NewService(store.Votes(), store.Activations(), store.Participants(), events, logger)
	return &fixture{
		store:       store,
		svc:         NewService(store.Rooms(), store.Participants(), store.Activations(), coordinator, votes, lb, events, logger),
		activations: appActivation.NewService(store.Activations(), store.Rooms(), coordinator, events, logger),
		votes:       votes,
		events:      events,
		roomID:      roomID,
	}
}

func (f *fixture) launchPoll(t *testing.T) *activation.Activation {
	t.Helper()
	ctx := context.Background()
	tpl, err := f.activations.CreateTemplate(ctx, f.roomID, activation.KindPoll, activation.Content{
		Question: "Pick one",
		Options:  []activation.Option{{ID: "a", Text: "Alpha"}, {ID: "b", Text: "Beta"}},
	})
	require.NoError(t, err)
	res, err := f.activations.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)
	return res.Activation
}

func TestService_JoinRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.JoinRoom(ctx, f.roomID, "Ada")
	require.NoError(t, err)
	assert.Equal(t, f.roomID, p.RoomID)
	assert.Equal(t, notification.EventParticipantJoined, f.events.last().Type)

	_, err = f.svc.JoinRoom(ctx, f.roomID, "")
	require.ErrorIs(t, err, participant.ErrInvalidDisplayName)

	_, err = f.svc.JoinRoom(ctx, uuid.New(), "Ada")
	require.ErrorIs(t, err, room.ErrNotFound)

	closed := uuid.New()
	require.NoError(t, f.store.Rooms().Ensure(ctx, &room.Room{RoomID: closed, Code: "R2"}))
	_, err = f.svc.JoinRoom(ctx, closed, "Ada")
	require.ErrorIs(t, err, room.ErrInactive)
}

func TestService_GetLiveState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	idle, err := f.svc.GetLiveState(ctx, f.roomID)
	require.NoError(t, err)
	assert.Nil(t, idle.State.CurrentActivationID)
	assert.Nil(t, idle.State.Activation)
	assert.Nil(t, idle.Tally)

	poll := f.launchPoll(t)
	_, err = f.activations.TransitionPoll(ctx, poll.ActivationID, activation.PollVoting, "host")
	require.NoError(t, err)
	p, err := f.svc.JoinRoom(ctx, f.roomID, "Ada")
	require.NoError(t, err)
	_, err = f.votes.CastVote(ctx, poll.ActivationID, p.ParticipantID, nil, "Beta")
	require.NoError(t, err)

	live, err := f.svc.GetLiveState(ctx, f.roomID)
	require.NoError(t, err)
	assert.Equal(t, "Quiz night", live.Room.Name)
	require.NotNil(t, live.State.Activation)
	assert.Equal(t, poll.ActivationID, live.State.Activation.ActivationID)
	assert.Equal(t, activation.PollVoting, live.State.Activation.PollState)
	require.NotNil(t, live.Tally)
	assert.Equal(t, 1, live.Tally.Total)

	_, err = f.svc.GetLiveState(ctx, uuid.New())
	require.ErrorIs(t, err, room.ErrNotFound)
}

func TestService_GetLiveStateConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.launchPoll(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			live, err := f.svc.GetLiveState(ctx, f.roomID)
			if assert.NoError(t, err) {
				assert.True(t, live.State.IsLive)
				assert.Equal(t, poll.ActivationID, *live.State.CurrentActivationID)
			}
		}()
	}
	wg.Wait()
}

func TestService_ResetScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.launchPoll(t)
	p, err := f.svc.JoinRoom(ctx, f.roomID, "Ada")
	require.NoError(t, err)
	_, _, err = f.store.Participants().RecordAnswer(ctx, &participant.Answer{
		AnswerID: uuid.New(), ActivationID: uuid.New(), ParticipantID: p.ParticipantID, Correct: true, Points: 500,
	})
	require.NoError(t, err)

	sess, err := f.svc.ResetRoom(ctx, f.roomID, room.ResetScores)
	require.NoError(t, err)
	assert.Nil(t, sess.CurrentActivationID)
	assert.Equal(t, notification.EventRoomReset, f.events.last().Type)

	kept, err := f.store.Participants().GetByID(ctx, p.ParticipantID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Zero(t, kept.Score)
	assert.Equal(t, participant.Stats{}, kept.Stats)

	stale, err := f.activations.Get(ctx, poll.ActivationID)
	require.NoError(t, err)
	assert.False(t, stale.Active)
}

func TestService_ResetFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.JoinRoom(ctx, f.roomID, "Ada")
	require.NoError(t, err)

	_, err = f.svc.ResetRoom(ctx, f.roomID, room.ResetFull)
	require.NoError(t, err)

	gone, err := f.store.Participants().GetByID(ctx, p.ParticipantID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = f.svc.ResetRoom(ctx, f.roomID, room.ResetMode("PARTIAL"))
	require.Error(t, err)
}

// gatedRooms holds GetByID until release is closed and honours ctx the way
// a database driver does.
type gatedRooms struct {
	room.Repository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRooms) GetByID(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Repository.GetByID(ctx, roomID)
}

func TestService_GetLiveStateSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	gate := &gatedRooms{Repository: f.store.Rooms(), entered: make(chan struct{}), release: make(chan struct{})}
	logger := zerolog.Nop()
	coordinator := appSession.NewCoordinator(f.store.Sessions(), f.store.Activations(), f.events, logger)
	lb := appLeaderboard.NewService(f.store.Participants(), f.events, logger)
	svc := NewService(gate, f.store.Participants(), f.store.Activations(), coordinator, f.votes, lb, f.events, logger)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetLiveState(firstCtx, f.roomID)
		firstErr <- err
	}()
	<-gate.entered

	type result struct {
		live *LiveState
		err  error
	}
	second := make(chan result, 1)
	go func() {
		live, err := svc.GetLiveState(context.Background(), f.roomID)
		second <- result{live, err}
	}()
	// let the second caller join the read in flight
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(gate.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, f.roomID, res.live.Room.RoomID)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
}
