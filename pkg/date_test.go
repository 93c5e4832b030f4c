package pkg

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_MarshalJSON(t *testing.T) {
	d := DateOf(2025, time.March, 9)
	dateJson, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-09"`, string(dateJson))
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-09"`), &d))
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 9, d.Time.Day())

	// full timestamps are accepted too
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-09T18:30:00Z"`), &d))
	assert.Equal(t, 9, d.Time.Day())
	assert.Equal(t, 18, d.Hour())

	assert.Error(t, json.Unmarshal([]byte(`"09.03.2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestDate_Day(t *testing.T) {
	d := NewDate(time.Date(2025, time.March, 9, 18, 30, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), d.Day())
}
