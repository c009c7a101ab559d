package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livestage/livestage/internal/domain/access"
)

type staticStore struct {
	keys  []access.OperatorKey
	rooms map[string][]uuid.UUID
}

func (s staticStore) Keys(context.Context) []access.OperatorKey { return s.keys }

func (s staticStore) RoomsFor(_ context.Context, keyID string) []uuid.UUID { return s.rooms[keyID] }

func mustHash(t *testing.T, key string) string {
	t.Helper()
	h, err := access.HashKey(key)
	require.NoError(t, err)
	return h
}

func TestKeyChecker_NoKeysAllowsEveryone(t *testing.T) {
	c := NewKeyChecker(staticStore{}, zerolog.Nop())
	assert.True(t, c.CanMutateRoom(context.Background(), "", uuid.New()))
}

func TestKeyChecker(t *testing.T) {
	ctx := context.Background()
	roomA, roomB := uuid.New(), uuid.New()
	store := staticStore{
		keys: []access.OperatorKey{
			{KeyID: "global", Hash: mustHash(t, "global-secret")},
			{KeyID: "host-a", Hash: mustHash(t, "host-a-secret")},
		},
		rooms: map[string][]uuid.UUID{"host-a": {roomA}},
	}
	c := NewKeyChecker(store, zerolog.Nop())

	assert.False(t, c.CanMutateRoom(ctx, "", roomA))
	assert.False(t, c.CanMutateRoom(ctx, "wrong", roomA))

	assert.True(t, c.CanMutateRoom(ctx, "global-secret", roomA))
	assert.True(t, c.CanMutateRoom(ctx, "global-secret", roomB))
	assert.True(t, c.CanMutateRoom(ctx, "global-secret", uuid.Nil))

	assert.True(t, c.CanMutateRoom(ctx, "host-a-secret", roomA))
	assert.False(t, c.CanMutateRoom(ctx, "host-a-secret", roomB))
	assert.False(t, c.CanMutateRoom(ctx, "host-a-secret", uuid.Nil))

	// cached verification gives the same answers
	assert.True(t, c.CanMutateRoom(ctx, "host-a-secret", roomA))
	assert.False(t, c.CanMutateRoom(ctx, "host-a-secret", roomB))
}
