package goals

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hvukovic/weightly/pkg"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func testGoal(id string, targetDate pkg.Date) Goal {
	return Goal{
		ID:           id,
		UserID:       "mladen@example.com",
		TargetWeight: 65,
		StartDate:    pkg.DateOf(2025, time.March, 1),
		TargetDate:   targetDate,
	}
}

func mustMarshal(t *testing.T, goal Goal) string {
	t.Helper()
	goalJson, err := json.Marshal(goal)
	require.NoError(t, err)
	return string(goalJson)
}

func TestRepo_StoreAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)
	goal := testGoal("g1", pkg.DateOf(2025, time.June, 1))

	mock.ExpectSet("goal:mladen@example.com:g1", []byte(mustMarshal(t, goal)), 0).SetVal("OK")
	stored, err := repo.Store(context.Background(), goal)
	require.NoError(t, err)
	assert.Equal(t, "g1", stored.ID)

	mock.ExpectGet("goal:mladen@example.com:g1").SetVal(mustMarshal(t, goal))
	got, err := repo.Get(context.Background(), "mladen@example.com", "g1")
	require.NoError(t, err)
	assert.Equal(t, float64(65), got.TargetWeight)

	mock.ExpectGet("goal:mladen@example.com:nope").RedisNil()
	_, err = repo.Get(context.Background(), "mladen@example.com", "nope")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestRepo_List(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)
	g1 := testGoal("g1", pkg.DateOf(2025, time.September, 1))
	g2 := testGoal("g2", pkg.DateOf(2025, time.June, 1))

	mock.ExpectKeys("goal:mladen@example.com:*").SetVal([]string{
		"goal:mladen@example.com:g1",
		"goal:mladen@example.com:g2",
	})
	mock.ExpectMGet(
		"goal:mladen@example.com:g1",
		"goal:mladen@example.com:g2",
	).SetVal([]interface{}{mustMarshal(t, g1), mustMarshal(t, g2)})

	goalsList, err := repo.List(context.Background(), "mladen@example.com")
	require.NoError(t, err)
	require.Len(t, goalsList, 2)
	// nearest target date first
	assert.Equal(t, "g2", goalsList[0].ID)
}

func TestRepo_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)

	mock.ExpectDel("goal:mladen@example.com:g1").SetVal(1)
	require.NoError(t, repo.Delete(context.Background(), "mladen@example.com", "g1"))

	mock.ExpectDel("goal:mladen@example.com:g1").SetVal(0)
	assert.ErrorIs(t, repo.Delete(context.Background(), "mladen@example.com", "g1"), ErrGoalNotFound)
}
