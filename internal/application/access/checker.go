package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/livestage/livestage/internal/domain/access"
)

// KeyChecker grants room mutations to callers presenting an operator key.
// With no keys configured every caller is allowed.
type KeyChecker struct {
	store  access.KeyStore
	logger zerolog.Logger

	mu       sync.RWMutex
	verified map[string]string
}

// NewKeyChecker creates a checker backed by store.
func NewKeyChecker(store access.KeyStore, logger zerolog.Logger) *KeyChecker {
	return &KeyChecker{
		store:    store,
		logger:   logger.With().Str("service", "access").Logger(),
		verified: make(map[string]string),
	}
}

func (c *KeyChecker) CanMutateRoom(ctx context.Context, token string, roomID uuid.UUID) bool {
	keys := c.store.Keys(ctx)
	if len(keys) == 0 {
		return true
	}
	if token == "" {
		return false
	}
	keyID, ok := c.match(keys, token)
	if !ok {
		c.logger.Debug().Str("room_id", roomID.String()).Msg("operator key rejected")
		return false
	}
	rooms := c.store.RoomsFor(ctx, keyID)
	if len(rooms) == 0 {
		return true
	}
	if roomID == uuid.Nil {
		return false
	}
	for _, id := range rooms {
		if id == roomID {
			return true
		}
	}
	return false
}

// match finds the key a token belongs to. Successful bcrypt comparisons are
// remembered by token digest so repeat calls skip the hash.
func (c *KeyChecker) match(keys []access.OperatorKey, token string) (string, bool) {
	digest := tokenDigest(token)
	c.mu.RLock()
	keyID, ok := c.verified[digest]
	c.mu.RUnlock()
	if ok {
		return keyID, true
	}
	for _, k := range keys {
		if access.VerifyKey(k.Hash, token) {
			c.mu.Lock()
			c.verified[digest] = k.KeyID
			c.mu.Unlock()
			return k.KeyID, true
		}
	}
	return "", false
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
