package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// LoginChecker resolves session tokens to user ids for the auth middleware.
type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// GetLoggedUser returns the user id behind the given session token,
// or an error if the session is unknown or past its TTL.
func (lc *LoginChecker) GetLoggedUser(ctx context.Context, token string) (string, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	var session LoginSession
	if err := json.Unmarshal([]byte(cmd.Val()), &session); err != nil {
		return "", err
	}

	createdAt := time.Unix(session.CreatedAt, 0)
	if time.Since(createdAt) > lc.ttl {
		return "", ErrSessionExpired
	}

	return session.UserID, nil
}
