package goals_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hvukovic/weightly/internal/auth"
	"github.com/hvukovic/weightly/internal/goals"
	"github.com/hvukovic/weightly/internal/telemetry/metrics"
	"github.com/hvukovic/weightly/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "mladen@example.com"

func goalsTestSetup(t *testing.T) (*goals.MemoryRepo, *metrics.Manager, *mux.Router) {
	t.Helper()
	repo := goals.NewMemoryRepo()
	metricsManager := metrics.NewTestManager()
	handler := goals.NewHandler(repo, metricsManager)

	r := mux.NewRouter()
	handler.SetupRoutes(r)

	return repo, metricsManager, r
}

func doRequest(t *testing.T, r *mux.Router, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(bodyJson)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if userID != "" {
		req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Add(t *testing.T) {
	repo, metricsManager, r := goalsTestSetup(t)

	goal := goals.Goal{
		TargetWeight: 65,
		StartDate:    pkg.DateOf(2025, time.March, 1),
		TargetDate:   pkg.DateOf(2025, time.June, 1),
	}

	rr := doRequest(t, r, "POST", "/goals", goal, testUserID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var added goals.Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, testUserID, added.UserID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterGoals))

	stored, err := repo.Get(context.Background(), testUserID, added.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(65), stored.TargetWeight)
}

func TestHandler_Add_invalid(t *testing.T) {
	_, _, r := goalsTestSetup(t)

	// target date before start date
	goal := goals.Goal{
		TargetWeight: 65,
		StartDate:    pkg.DateOf(2025, time.June, 1),
		TargetDate:   pkg.DateOf(2025, time.March, 1),
	}
	rr := doRequest(t, r, "POST", "/goals", goal, testUserID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	goal.TargetDate = pkg.DateOf(2025, time.September, 1)
	goal.TargetWeight = -10
	rr = doRequest(t, r, "POST", "/goals", goal, testUserID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ListUpdateDelete(t *testing.T) {
	repo, _, r := goalsTestSetup(t)

	startWeight := 72.5
	_, err := repo.Store(context.Background(), goals.Goal{
		ID:           "g1",
		UserID:       testUserID,
		TargetWeight: 65,
		StartWeight:  &startWeight,
		StartDate:    pkg.DateOf(2025, time.March, 1),
		TargetDate:   pkg.DateOf(2025, time.June, 1),
	})
	require.NoError(t, err)

	rr := doRequest(t, r, "GET", "/goals", nil, testUserID)
	require.Equal(t, http.StatusOK, rr.Code)
	var listResp goals.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Total)
	require.NotNil(t, listResp.Goals[0].StartWeight)
	assert.Equal(t, 72.5, *listResp.Goals[0].StartWeight)

	updated := goals.Goal{
		TargetWeight: 63,
		StartDate:    pkg.DateOf(2025, time.March, 1),
		TargetDate:   pkg.DateOf(2025, time.July, 1),
	}
	rr = doRequest(t, r, "PUT", "/goals/g1", updated, testUserID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got goals.Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, float64(63), got.TargetWeight)
	// start weight not sent in the update payload, so it is gone
	assert.Nil(t, got.StartWeight)

	rr = doRequest(t, r, "DELETE", "/goals/g1", nil, testUserID)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, r, "GET", "/goals/g1", nil, testUserID)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_notLogged(t *testing.T) {
	_, _, r := goalsTestSetup(t)

	rr := doRequest(t, r, "GET", "/goals", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
