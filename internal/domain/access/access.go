package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrForbidden = errors.New("caller may not mutate this room")

// Checker answers whether a caller may mutate a room. The live core trusts
// the answer and does no authorization of its own. uuid.Nil asks about
// room-independent operations.
type Checker interface {
	CanMutateRoom(ctx context.Context, token string, roomID uuid.UUID) bool
}

// AllowAll grants every request.
type AllowAll struct{}

func (AllowAll) CanMutateRoom(context.Context, string, uuid.UUID) bool { return true }

// OperatorKey is a hashed operator credential.
type OperatorKey struct {
	KeyID string
	Hash  string
}

// KeyStore supplies operator keys and their room restrictions.
type KeyStore interface {
	Keys(ctx context.Context) []OperatorKey
	// RoomsFor returns the rooms a key is limited to; an empty result means
	// the key is not limited.
	RoomsFor(ctx context.Context, keyID string) []uuid.UUID
}

func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
