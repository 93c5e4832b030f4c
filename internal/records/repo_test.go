package records

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

func testRecord(id string, date pkg.Date, weight float64) WeightRecord {
	return WeightRecord{
		ID:     id,
		UserID: "mladen@example.com",
		Date:   date,
		Weight: weight,
	}
}

func mustMarshal(t *testing.T, record WeightRecord) string {
	t.Helper()
	recordJson, err := json.Marshal(record)
	require.NoError(t, err)
	return string(recordJson)
}

func TestRepo_Store(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)
	record := testRecord("r1", pkg.DateOf(2025, time.March, 9), 67.5)

	mock.ExpectSet("weight:mladen@example.com:r1", []byte(mustMarshal(t, record)), 0).SetVal("OK")

	stored, err := repo.Store(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)
	record := testRecord("r1", pkg.DateOf(2025, time.March, 9), 67.5)

	mock.ExpectGet("weight:mladen@example.com:r1").SetVal(mustMarshal(t, record))

	got, err := repo.Get(context.Background(), "mladen@example.com", "r1")
	require.NoError(t, err)
	assert.Equal(t, 67.5, got.Weight)
	assert.Equal(t, 9, got.Date.Time.Day())
}

func TestRepo_Get_notFound(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)

	mock.ExpectGet("weight:mladen@example.com:nope").RedisNil()

	got, err := repo.Get(context.Background(), "mladen@example.com", "nope")
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.Nil(t, got)
}

func TestRepo_List(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)
	r1 := testRecord("r1", pkg.DateOf(2025, time.March, 1), 68.2)
	r2 := testRecord("r2", pkg.DateOf(2025, time.March, 9), 67.5)

	mock.ExpectKeys("weight:mladen@example.com:*").SetVal([]string{
		"weight:mladen@example.com:r1",
		"weight:mladen@example.com:r2",
	})
	mock.ExpectMGet(
		"weight:mladen@example.com:r1",
		"weight:mladen@example.com:r2",
	).SetVal([]interface{}{mustMarshal(t, r1), mustMarshal(t, r2)})

	recordsList, err := repo.List(context.Background(), "mladen@example.com")
	require.NoError(t, err)
	require.Len(t, recordsList, 2)
	// newest date first
	assert.Equal(t, "r2", recordsList[0].ID)
	assert.Equal(t, "r1", recordsList[1].ID)
}

func TestRepo_List_empty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)

	mock.ExpectKeys("weight:mladen@example.com:*").SetVal([]string{})

	recordsList, err := repo.List(context.Background(), "mladen@example.com")
	require.NoError(t, err)
	assert.Empty(t, recordsList)
}

func TestRepo_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	repo := NewRepo(db)

	mock.ExpectDel("weight:mladen@example.com:r1").SetVal(1)
	require.NoError(t, repo.Delete(context.Background(), "mladen@example.com", "r1"))

	mock.ExpectDel("weight:mladen@example.com:r1").SetVal(0)
	assert.ErrorIs(t, repo.Delete(context.Background(), "mladen@example.com", "r1"), ErrRecordNotFound)
}
