package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/engvault/engvault/internal/shared"
)

// SessionStore keeps opaque session tokens in Redis, mapping each token to
// an account id for the configured TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create mints a new token for the account.
func (s *SessionStore) Create(ctx context.Context, accountID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), accountID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the account id a token belongs to, refreshing its TTL.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, error) {
	val, err := s.client.GetEx(ctx, sessionKey(token), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.ErrSessionExpired
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Destroy removes a token. Destroying an unknown token is not an error.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	err := s.client.Del(ctx, sessionKey(token)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func sessionKey(token string) string {
	return "session:" + token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
