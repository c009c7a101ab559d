package keystore

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/livestage/livestage/internal/domain/access"
)

// StaticKeyStore is a simple in-memory operator keystore.
type StaticKeyStore struct {
	keys         []access.OperatorKey
	roomsByKeyID map[string][]uuid.UUID
}

// New builds a keystore from parsed values. raw uses the OPERATOR_KEY_HASHES
// format.
func New(raw string, rooms map[string][]uuid.UUID) (*StaticKeyStore, error) {
	keys, err := ParseKeys(raw)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = map[string][]uuid.UUID{}
	}
	return &StaticKeyStore{keys: keys, roomsByKeyID: rooms}, nil
}

// NewFromEnv builds a keystore from environment variables.
// OPERATOR_KEY_HASHES format: "keyId:bcryptHash,keyId2:bcryptHash".
// OPERATOR_KEY_ROOMS_<keyId> limits a key to a comma-separated room id list.
func NewFromEnv() (*StaticKeyStore, error) {
	rooms := map[string][]uuid.UUID{}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "OPERATOR_KEY_ROOMS_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyID := strings.TrimPrefix(parts[0], "OPERATOR_KEY_ROOMS_")
		if keyID == "" {
			continue
		}
		for _, raw := range strings.Split(parts[1], ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, errors.New("invalid room id in OPERATOR_KEY_ROOMS_" + keyID)
			}
			rooms[keyID] = append(rooms[keyID], id)
		}
	}
	return New(os.Getenv("OPERATOR_KEY_HASHES"), rooms)
}

// ParseKeys parses "keyId:hash" pairs.
func ParseKeys(raw string) ([]access.OperatorKey, error) {
	var keys []access.OperatorKey
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.New("invalid OPERATOR_KEY_HASHES format")
		}
		keys = append(keys, access.OperatorKey{KeyID: parts[0], Hash: parts[1]})
	}
	return keys, nil
}

func (s *StaticKeyStore) Keys(ctx context.Context) []access.OperatorKey {
	_ = ctx
	return s.keys
}

func (s *StaticKeyStore) RoomsFor(ctx context.Context, keyID string) []uuid.UUID {
	_ = ctx
	return s.roomsByKeyID[keyID]
}
