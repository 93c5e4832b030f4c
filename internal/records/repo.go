package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

var ErrRecordNotFound = errors.New("weight record not found")

func recordKey(userID, recordID string) string {
	return fmt.Sprintf("weight:%s:%s", userID, recordID)
}

func recordKeysPattern(userID string) string {
	return fmt.Sprintf("weight:%s:*", userID)
}

// Repo stores weight records as JSON values in redis,
// one key per record: weight:<userId>:<recordId>.
type Repo struct {
	redisClient *redis.Client
}

func NewRepo(redisClient *redis.Client) *Repo {
	return &Repo{redisClient: redisClient}
}

func (r *Repo) Store(ctx context.Context, record WeightRecord) (*WeightRecord, error) {
	recordJson, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if err := r.redisClient.Set(ctx, recordKey(record.UserID, record.ID), recordJson, 0).Err(); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	return &record, nil
}

func (r *Repo) Get(ctx context.Context, userID, recordID string) (*WeightRecord, error) {
	cmd := r.redisClient.Get(ctx, recordKey(userID, recordID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var record WeightRecord
	if err := json.Unmarshal([]byte(cmd.Val()), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", recordID, err)
	}
	return &record, nil
}

// List returns all records of a user, newest date first.
func (r *Repo) List(ctx context.Context, userID string) ([]WeightRecord, error) {
	keysCmd := r.redisClient.Keys(ctx, recordKeysPattern(userID))
	if err := keysCmd.Err(); err != nil {
		return nil, fmt.Errorf("list record keys: %w", err)
	}

	keys := keysCmd.Val()
	if len(keys) == 0 {
		return []WeightRecord{}, nil
	}

	valuesCmd := r.redisClient.MGet(ctx, keys...)
	if err := valuesCmd.Err(); err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}

	recordsList := make([]WeightRecord, 0, len(keys))
	for i, value := range valuesCmd.Val() {
		rawJson, ok := value.(string)
		if !ok {
			// key expired between KEYS and MGET
			continue
		}
		var record WeightRecord
		if err := json.Unmarshal([]byte(rawJson), &record); err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", keys[i], err)
		}
		recordsList = append(recordsList, record)
	}

	sort.SliceStable(recordsList, func(i, j int) bool {
		return recordsList[i].Date.After(recordsList[j].Date.Time)
	})

	return recordsList, nil
}

func (r *Repo) Delete(ctx context.Context, userID, recordID string) error {
	cmd := r.redisClient.Del(ctx, recordKey(userID, recordID))
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if cmd.Val() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
