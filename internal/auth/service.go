package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hvukovic/weightly/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "weightly-service-session||"
	tokensSetKey     = "weightly-service-sessions"
	userKeyPrefix    = "user:"
)

// LoginSession is the redis-stored value behind a session token.
type LoginSession struct {
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Login stores the user profile and creates a new session for it,
// returning the session token.
func (s *Service) Login(ctx context.Context, user User, createdAt time.Time) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("user id empty")
	}

	user.CreatedAt = createdAt
	userJson, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}
	if err := s.redisClient.Set(ctx, userKeyPrefix+user.ID, userJson, 0).Err(); err != nil {
		return "", fmt.Errorf("store user: %w", err)
	}

	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionJson, err := json.Marshal(LoginSession{
		UserID:    user.ID,
		CreatedAt: createdAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, sessionJson, 0).Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := s.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	var session LoginSession
	if err := json.Unmarshal([]byte(cmd.Val()), &session); err != nil {
		return false, err
	}

	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return session.UserID != "", nil
}

// GetUser returns the stored profile for the given user id.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	cmd := s.redisClient.Get(ctx, userKeyPrefix+userID)
	if err := cmd.Err(); err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal([]byte(cmd.Val()), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", userID, err)
	}
	return &user, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Warnln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Warnf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := s.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		var session LoginSession
		if err := json.Unmarshal([]byte(cmd.Val()), &session); err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		createdAt := time.Unix(session.CreatedAt, 0)
		sessionDuration := time.Since(createdAt)
		if sessionDuration > s.ttl {
			log.Warnf("=>\twill clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}
}
