package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/livestage/livestage/internal/domain/notification"
	notificationMocks "github.com/livestage/livestage/internal/domain/notification/mocks"
	"github.com/livestage/livestage/internal/domain/participant"
	participantMocks "github.com/livestage/livestage/internal/domain/participant/mocks"
)

func TestService_RefreshPublishesRanking(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participants := participantMocks.NewMockRepository(ctrl)
	pub := notificationMocks.NewMockPublisher(ctrl)
	svc := NewService(participants, pub, zerolog.Nop())

	ctx := context.Background()
	roomID := uuid.New()
	a := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "A", Score: 50}
	b := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "B", Score: 50}
	c := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "C", Score: 30}

	participants.EXPECT().ListByRoom(ctx, roomID).Return([]*participant.Participant{a, b, c}, nil)
	pub.EXPECT().
		Publish(notification.RoomChannel(roomID), gomock.Any()).
		Do(func(_ string, ev *notification.Event) {
			assert.Equal(t, notification.EventLeaderboardUpdated, ev.Type)
			var board Board
			require.NoError(t, json.Unmarshal(ev.Data, &board))
			assert.Equal(t, roomID, board.RoomID)
			require.Len(t, board.Ranking.Entries, 3)
		})

	ranking, err := svc.Refresh(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{ranking.Entries[0].Rank, ranking.Entries[1].Rank, ranking.Entries[2].Rank})
	assert.Equal(t, "A", ranking.Entries[0].DisplayName)
	assert.Equal(t, "B", ranking.Entries[1].DisplayName)
}

func TestService_RefreshPublishesLeaderChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participants := participantMocks.NewMockRepository(ctrl)
	pub := notificationMocks.NewMockPublisher(ctrl)
	svc := NewService(participants, pub, zerolog.Nop())

	ctx := context.Background()
	roomID := uuid.New()
	a := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "A", Score: 100}
	b := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "B", Score: 80}
	overtaken := &participant.Participant{ParticipantID: b.ParticipantID, RoomID: roomID, DisplayName: "B", Score: 110}

	gomock.InOrder(
		participants.EXPECT().ListByRoom(ctx, roomID).Return([]*participant.Participant{a, b}, nil),
		participants.EXPECT().ListByRoom(ctx, roomID).Return([]*participant.Participant{a, overtaken}, nil),
	)

	var types []notification.EventType
	pub.EXPECT().
		Publish(notification.RoomChannel(roomID), gomock.Any()).
		Do(func(_ string, ev *notification.Event) { types = append(types, ev.Type) }).
		Times(3)

	_, err := svc.Refresh(ctx, roomID)
	require.NoError(t, err)
	ranking, err := svc.Refresh(ctx, roomID)
	require.NoError(t, err)

	assert.True(t, ranking.LeaderChanged)
	assert.Equal(t, []notification.EventType{
		notification.EventLeaderboardUpdated,
		notification.EventLeaderboardUpdated,
		notification.EventLeaderChanged,
	}, types)
}

func TestService_CurrentUsesLastRanking(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participants := participantMocks.NewMockRepository(ctrl)
	pub := notificationMocks.NewMockPublisher(ctrl)
	svc := NewService(participants, pub, zerolog.Nop())

	ctx := context.Background()
	roomID := uuid.New()
	participants.EXPECT().ListByRoom(ctx, roomID).Return(nil, nil).Times(1)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(1)

	first, err := svc.Current(ctx, roomID)
	require.NoError(t, err)
	second, err := svc.Current(ctx, roomID)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestService_ForgetDropsRankMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participants := participantMocks.NewMockRepository(ctrl)
	pub := notificationMocks.NewMockPublisher(ctrl)
	svc := NewService(participants, pub, zerolog.Nop())

	ctx := context.Background()
	roomID := uuid.New()
	a := &participant.Participant{ParticipantID: uuid.New(), RoomID: roomID, DisplayName: "A", Score: 10}
	participants.EXPECT().ListByRoom(ctx, roomID).Return([]*participant.Participant{a}, nil).Times(2)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	_, err := svc.Refresh(ctx, roomID)
	require.NoError(t, err)
	svc.Forget(roomID)
	ranking, err := svc.Refresh(ctx, roomID)
	require.NoError(t, err)
	assert.Nil(t, ranking.Entries[0].Delta)
}

func TestService_RefreshError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participants := participantMocks.NewMockRepository(ctrl)
	pub := notificationMocks.NewMockPublisher(ctrl)
	svc := NewService(participants, pub, zerolog.Nop())

	ctx := context.Background()
	roomID := uuid.New()
	participants.EXPECT().ListByRoom(ctx, roomID).Return(nil, errors.New("db down"))

	_, err := svc.Refresh(ctx, roomID)
	require.Error(t, err)
}
