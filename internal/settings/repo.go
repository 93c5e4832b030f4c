package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var ErrSettingsNotFound = errors.New("settings not found")

func settingsKey(userID string) string {
	return fmt.Sprintf("settings:%s", userID)
}

// Repo stores settings as a single JSON value per user: settings:<userId>.
type Repo struct {
	redisClient *redis.Client
}

func NewRepo(redisClient *redis.Client) *Repo {
	return &Repo{redisClient: redisClient}
}

func (r *Repo) Get(ctx context.Context, userID string) (*UserSettings, error) {
	cmd := r.redisClient.Get(ctx, settingsKey(userID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	var userSettings UserSettings
	if err := json.Unmarshal([]byte(cmd.Val()), &userSettings); err != nil {
		return nil, fmt.Errorf("unmarshal settings for %s: %w", userID, err)
	}
	return &userSettings, nil
}

func (r *Repo) Store(ctx context.Context, userSettings UserSettings) (*UserSettings, error) {
	settingsJson, err := json.Marshal(userSettings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	if err := r.redisClient.Set(ctx, settingsKey(userSettings.UserID), settingsJson, 0).Err(); err != nil {
		return nil, fmt.Errorf("store settings: %w", err)
	}
	return &userSettings, nil
}
