package authx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves an opaque bearer token to an identity. Token issuance
// lives in the identity service; this side only looks sessions up.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// SessionVerifier reads sessions the identity service writes to Redis
// under session:{token}.
type SessionVerifier struct {
	Redis *redis.Client
}

func (v *SessionVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	raw, err := v.Redis.Get(ctx, fmt.Sprintf(redisx.KeySession, token)).Bytes()
	if err == redis.Nil {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("session lookup: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return Identity{}, fmt.Errorf("decode session: %w", err)
	}
	if id.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
