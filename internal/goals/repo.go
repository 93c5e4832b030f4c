package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

var ErrGoalNotFound = errors.New("goal not found")

func goalKey(userID, goalID string) string {
	return fmt.Sprintf("goal:%s:%s", userID, goalID)
}

func goalKeysPattern(userID string) string {
	return fmt.Sprintf("goal:%s:*", userID)
}

// Repo stores goals as JSON values in redis, one key per goal:
// goal:<userId>:<goalId>.
type Repo struct {
	redisClient *redis.Client
}

func NewRepo(redisClient *redis.Client) *Repo {
	return &Repo{redisClient: redisClient}
}

func (r *Repo) Store(ctx context.Context, goal Goal) (*Goal, error) {
	goalJson, err := json.Marshal(goal)
	if err != nil {
		return nil, fmt.Errorf("marshal goal: %w", err)
	}
	if err := r.redisClient.Set(ctx, goalKey(goal.UserID, goal.ID), goalJson, 0).Err(); err != nil {
		return nil, fmt.Errorf("store goal: %w", err)
	}
	return &goal, nil
}

func (r *Repo) Get(ctx context.Context, userID, goalID string) (*Goal, error) {
	cmd := r.redisClient.Get(ctx, goalKey(userID, goalID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	var goal Goal
	if err := json.Unmarshal([]byte(cmd.Val()), &goal); err != nil {
		return nil, fmt.Errorf("unmarshal goal %s: %w", goalID, err)
	}
	return &goal, nil
}

// List returns all goals of a user, nearest target date first.
func (r *Repo) List(ctx context.Context, userID string) ([]Goal, error) {
	keysCmd := r.redisClient.Keys(ctx, goalKeysPattern(userID))
	if err := keysCmd.Err(); err != nil {
		return nil, fmt.Errorf("list goal keys: %w", err)
	}

	keys := keysCmd.Val()
	if len(keys) == 0 {
		return []Goal{}, nil
	}

	valuesCmd := r.redisClient.MGet(ctx, keys...)
	if err := valuesCmd.Err(); err != nil {
		return nil, fmt.Errorf("get goals: %w", err)
	}

	goalsList := make([]Goal, 0, len(keys))
	for i, value := range valuesCmd.Val() {
		rawJson, ok := value.(string)
		if !ok {
			continue
		}
		var goal Goal
		if err := json.Unmarshal([]byte(rawJson), &goal); err != nil {
			return nil, fmt.Errorf("unmarshal goal %s: %w", keys[i], err)
		}
		goalsList = append(goalsList, goal)
	}

	sort.SliceStable(goalsList, func(i, j int) bool {
		return goalsList[i].TargetDate.Before(goalsList[j].TargetDate.Time)
	})

	return goalsList, nil
}

func (r *Repo) Delete(ctx context.Context, userID, goalID string) error {
	cmd := r.redisClient.Del(ctx, goalKey(userID, goalID))
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if cmd.Val() == 0 {
		return ErrGoalNotFound
	}
	return nil
}
