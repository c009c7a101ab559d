package activation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appSession "github.com/livestage/livestage/internal/application/session"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*notification.Event
}

func (p *recordingPublisher) Publish(channel string, ev *notification.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count(eventType notification.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc         *Service
	coordinator *appSession.Coordinator
	store       *memory.Store
	pub         *recordingPublisher
	roomID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	roomID := uuid.New()
	require.NoError(t, store.Rooms().Ensure(context.Background(), &room.Room{RoomID: roomID, Code: "R1", Name: "Room", Active: true}))

	pub := &recordingPublisher{}
	logger := zerolog.Nop()
	coordinator := appSession.NewCoordinator(store.Sessions(), store.Activations(), pub, logger)
	return &fixture{
		svc:         NewService(store.Activations(), store.Rooms(), coordinator, pub, logger),
		coordinator: coordinator,
		store:       store,
		pub:         pub,
		roomID:      roomID,
	}
}

func pollContent() activation.Content {
	return activation.Content{
		Question: "Pick one",
		Options:  []activation.Option{{ID: "a", Text: "Alpha"}, {ID: "b", Text: "Beta"}},
	}
}

func (f *fixture) template(t *testing.T, kind activation.Kind, content activation.Content) *activation.Activation {
	t.Helper()
	tpl, err := f.svc.CreateTemplate(context.Background(), f.roomID, kind, content)
	require.NoError(t, err)
	return tpl
}

func (f *fixture) liveCount(t *testing.T, ids []uuid.UUID) int {
	t.Helper()
	n := 0
	for _, id := range ids {
		a, err := f.store.Activations().GetByID(context.Background(), id)
		require.NoError(t, err)
		if a != nil && a.Active && !a.IsTemplate {
			n++
		}
	}
	return n
}

func TestService_LaunchIntoIdleRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())

	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)

	live := res.Activation
	assert.NotEqual(t, tpl.ActivationID, live.ActivationID)
	assert.True(t, live.Active)
	assert.Equal(t, activation.PollPending, live.PollState)

	sess, err := f.coordinator.Get(ctx, f.roomID)
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentActivationID)
	assert.Equal(t, live.ActivationID, *sess.CurrentActivationID)
	assert.True(t, sess.IsLive)
	assert.Equal(t, 1, f.pub.count(notification.EventSessionUpdated))

	stored, err := f.store.Activations().GetByID(ctx, tpl.ActivationID)
	require.NoError(t, err)
	assert.True(t, stored.IsTemplate)
	assert.False(t, stored.Active)
}

func TestService_LaunchReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())

	first, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)
	second, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)

	prev, err := f.svc.Get(ctx, first.Activation.ActivationID)
	require.NoError(t, err)
	assert.False(t, prev.Active)
	assert.Equal(t, activation.HistoryDeactivated, prev.History[len(prev.History)-1].Action)

	sess, err := f.coordinator.Get(ctx, f.roomID)
	require.NoError(t, err)
	assert.True(t, sess.HasCurrent(second.Activation.ActivationID))
	assert.Equal(t, 1, f.liveCount(t, []uuid.UUID{first.Activation.ActivationID, second.Activation.ActivationID}))
}

func TestService_ConcurrentLaunchesLeaveOneLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindSocialWall, activation.Content{Question: "Say hi"})

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []uuid.UUID
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids = append(ids, res.Activation.ActivationID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, ids, 16)
	assert.Equal(t, 1, f.liveCount(t, ids))
	sess, err := f.coordinator.Get(ctx, f.roomID)
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentActivationID)
	current, err := f.svc.Get(ctx, *sess.CurrentActivationID)
	require.NoError(t, err)
	assert.True(t, current.Active)
}

func TestService_LaunchRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown template", func(t *testing.T) {
		_, err := f.svc.Launch(ctx, f.roomID, uuid.New(), "host")
		require.ErrorIs(t, err, activation.ErrNotFound)
	})

	t.Run("invalid content", func(t *testing.T) {
		tpl := f.template(t, activation.KindPoll, activation.Content{Options: []activation.Option{{ID: "a", Text: "Only"}}})
		_, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
		require.ErrorIs(t, err, activation.ErrInvalidContent)
	})

	t.Run("live copy is not a template", func(t *testing.T) {
		tpl := f.template(t, activation.KindPoll, pollContent())
		res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
		require.NoError(t, err)
		_, err = f.svc.Launch(ctx, f.roomID, res.Activation.ActivationID, "host")
		require.ErrorIs(t, err, activation.ErrNotTemplate)
	})

	t.Run("template of another room", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, f.store.Rooms().Ensure(ctx, &room.Room{RoomID: other, Code: "R2", Active: true}))
		tpl, err := f.svc.CreateTemplate(ctx, other, activation.KindPoll, pollContent())
		require.NoError(t, err)
		_, err = f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
		require.ErrorIs(t, err, activation.ErrRoomMismatch)
	})

	t.Run("inactive room", func(t *testing.T) {
		closed := uuid.New()
		require.NoError(t, f.store.Rooms().Ensure(ctx, &room.Room{RoomID: closed, Code: "R3", Active: false}))
		tpl, err := f.svc.CreateTemplate(ctx, closed, activation.KindPoll, pollContent())
		require.NoError(t, err)
		_, err = f.svc.Launch(ctx, closed, tpl.ActivationID, "host")
		require.ErrorIs(t, err, room.ErrInactive)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := f.svc.CreateTemplate(ctx, uuid.New(), activation.KindPoll, pollContent())
		require.ErrorIs(t, err, room.ErrNotFound)
	})
}

func TestService_TransitionPollConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())
	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)
	pollID := res.Activation.ActivationID

	var wg sync.WaitGroup
	results := make([]*activation.Activation, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.TransitionPoll(ctx, pollID, activation.PollVoting, "host")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, activation.PollVoting, results[i].PollState)
	}
	assert.Equal(t, 1, f.pub.count(notification.EventActivationUpdated))

	stored, err := f.svc.Get(ctx, pollID)
	require.NoError(t, err)
	transitions := 0
	for _, h := range stored.History {
		if h.Action == activation.HistoryPollState {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
}

func TestService_TransitionPollLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())
	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)
	pollID := res.Activation.ActivationID

	_, err = f.svc.TransitionPoll(ctx, pollID, activation.PollClosed, "host")
	require.ErrorIs(t, err, activation.ErrInvalidTransition)

	_, err = f.svc.TransitionPoll(ctx, pollID, activation.PollVoting, "host")
	require.NoError(t, err)
	// starting again while voting is a no-op
	voting, err := f.svc.TransitionPoll(ctx, pollID, activation.PollVoting, "host")
	require.NoError(t, err)
	assert.Equal(t, activation.PollVoting, voting.PollState)
	assert.Equal(t, 1, f.pub.count(notification.EventActivationUpdated))

	closed, err := f.svc.TransitionPoll(ctx, pollID, activation.PollClosed, "host")
	require.NoError(t, err)
	assert.Equal(t, activation.PollClosed, closed.PollState)

	_, err = f.svc.TransitionPoll(ctx, pollID, activation.PollVoting, "host")
	require.ErrorIs(t, err, activation.ErrInvalidTransition)
	_, err = f.svc.TransitionPoll(ctx, pollID, activation.PollPending, "host")
	require.ErrorIs(t, err, activation.ErrInvalidTransition)

	_, err = f.svc.TransitionPoll(ctx, pollID, activation.PollClosed, "host")
	require.ErrorIs(t, err, activation.ErrInvalidTransition)

	stored, err := f.svc.Get(ctx, pollID)
	require.NoError(t, err)
	assert.Equal(t, activation.PollClosed, stored.PollState)
	assert.Equal(t, 2, f.pub.count(notification.EventActivationUpdated))
}

func TestService_TransitionPollRejectsNonPoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindSocialWall, activation.Content{})
	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)

	_, err = f.svc.TransitionPoll(ctx, res.Activation.ActivationID, activation.PollVoting, "host")
	require.ErrorIs(t, err, activation.ErrNotPoll)

	_, err = f.svc.TransitionPoll(ctx, uuid.New(), activation.PollVoting, "host")
	require.ErrorIs(t, err, activation.ErrNotFound)
}

func TestService_DeactivateCurrentClearsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())
	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)

	a, err := f.svc.Deactivate(ctx, res.Activation.ActivationID, "host")
	require.NoError(t, err)
	assert.False(t, a.Active)

	sess, err := f.coordinator.Get(ctx, f.roomID)
	require.NoError(t, err)
	assert.Nil(t, sess.CurrentActivationID)
	assert.Equal(t, 1, f.pub.count(notification.EventActivationUpdated))
	assert.Equal(t, 2, f.pub.count(notification.EventSessionUpdated))

	// a second deactivate changes nothing and publishes nothing
	again, err := f.svc.Deactivate(ctx, res.Activation.ActivationID, "host")
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Len(t, again.History, len(a.History))
	assert.Equal(t, 1, f.pub.count(notification.EventActivationUpdated))
	assert.Equal(t, 2, f.pub.count(notification.EventSessionUpdated))

	_, err = f.svc.Deactivate(ctx, uuid.New(), "host")
	require.ErrorIs(t, err, activation.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.template(t, activation.KindPoll, pollContent())
	res, err := f.svc.Launch(ctx, f.roomID, tpl.ActivationID, "host")
	require.NoError(t, err)
	id := res.Activation.ActivationID

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, 1, f.pub.count(notification.EventActivationDeleted))

	_, err = f.svc.Get(ctx, id)
	require.ErrorIs(t, err, activation.ErrNotFound)

	sess, err := f.coordinator.Get(ctx, f.roomID)
	require.NoError(t, err)
	assert.Nil(t, sess.CurrentActivationID)

	require.ErrorIs(t, f.svc.Delete(ctx, id), activation.ErrNotFound)
}
