package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hvukovic/weightly/internal/auth"
	"github.com/hvukovic/weightly/internal/goals"
	"github.com/hvukovic/weightly/internal/progress"
	"github.com/hvukovic/weightly/internal/records"
	"github.com/hvukovic/weightly/internal/telemetry/tracing"
	"github.com/hvukovic/weightly/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=dashboard

type recordsRepo interface {
	List(ctx context.Context, userID string) ([]records.WeightRecord, error)
}

type goalsRepo interface {
	List(ctx context.Context, userID string) ([]goals.Goal, error)
}

// GoalOverview is one goal with its derived progress numbers.
type GoalOverview struct {
	Goal              goals.Goal `json:"goal"`
	Progress          float64    `json:"progress"`
	DaysRemaining     int        `json:"daysRemaining"`
	RequiredDailyPace float64    `json:"requiredDailyPace"`
}

// Overview is everything the dashboard page needs in one response.
type Overview struct {
	CurrentWeight float64        `json:"currentWeight"`
	HasRecords    bool           `json:"hasRecords"`
	Goals         []GoalOverview `json:"goals"`
	Stats         progress.Stats `json:"stats"`
}

type StatsResponse struct {
	Range        progress.TimeRange `json:"range"`
	TotalRecords int                `json:"totalRecords"`
	Stats        progress.Stats     `json:"stats"`
}

type WeekdaysResponse struct {
	Weekdays [7]progress.WeekdayBucket `json:"weekdays"`
}

// Handler is the presentation boundary of the progress engine: it fetches
// the raw data, reads the clock once, and calls the pure functions.
type Handler struct {
	recordsRepo recordsRepo
	goalsRepo   goalsRepo
	now         func() time.Time
}

func NewHandler(recordsRepo recordsRepo, goalsRepo goalsRepo) *Handler {
	return &Handler{
		recordsRepo: recordsRepo,
		goalsRepo:   goalsRepo,
		now:         time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", handler.HandleOverview).Methods("GET", "OPTIONS").Name("dashboard")
	router.HandleFunc("/stats", handler.HandleStats).Methods("GET", "OPTIONS").Name("stats")
	router.HandleFunc("/stats/weekdays", handler.HandleWeekdays).Methods("GET", "OPTIONS").Name("stats-weekdays")
}

func (handler *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.overview")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordsList, err := handler.recordsRepo.List(ctx, userID)
	if err != nil {
		log.Errorf("dashboard, list weight records for %s: %s", userID, err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}
	goalsList, err := handler.goalsRepo.List(ctx, userID)
	if err != nil {
		log.Errorf("dashboard, list goals for %s: %s", userID, err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	now := handler.now()
	currentWeight, hasRecords := progress.CurrentWeight(recordsList)

	overview := Overview{
		CurrentWeight: currentWeight,
		HasRecords:    hasRecords,
		Goals:         make([]GoalOverview, 0, len(goalsList)),
		Stats:         progress.Describe(recordsList),
	}
	for _, goal := range goalsList {
		daysRemaining := progress.DaysRemaining(goal.TargetDate.Time, now)
		overview.Goals = append(overview.Goals, GoalOverview{
			Goal:              goal,
			Progress:          progress.GoalProgress(goal, currentWeight),
			DaysRemaining:     daysRemaining,
			RequiredDailyPace: progress.RequiredDailyPace(currentWeight, goal.TargetWeight, daysRemaining),
		})
	}

	overviewJson, err := json.Marshal(overview)
	if err != nil {
		log.Errorf("dashboard, marshal overview: %s", err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, overviewJson)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	timeRange := progress.TimeRange(r.URL.Query().Get("range"))
	switch timeRange {
	case "", progress.TimeRangeWeek, progress.TimeRangeMonth, progress.TimeRangeYear:
	default:
		http.Error(w, "invalid range, use week, month or year", http.StatusBadRequest)
		return
	}

	recordsList, err := handler.recordsRepo.List(ctx, userID)
	if err != nil {
		log.Errorf("stats, list weight records for %s: %s", userID, err)
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	filtered := progress.FilterByTimeRange(recordsList, timeRange, handler.now())

	statsJson, err := json.Marshal(StatsResponse{
		Range:        timeRange,
		TotalRecords: len(filtered),
		Stats:        progress.Describe(filtered),
	})
	if err != nil {
		log.Errorf("stats, marshal response: %s", err)
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, statsJson)
}

func (handler *Handler) HandleWeekdays(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.weekdays")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordsList, err := handler.recordsRepo.List(ctx, userID)
	if err != nil {
		log.Errorf("weekday stats, list weight records for %s: %s", userID, err)
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	weekdaysJson, err := json.Marshal(WeekdaysResponse{
		Weekdays: progress.WeekdayDistribution(recordsList),
	})
	if err != nil {
		log.Errorf("weekday stats, marshal response: %s", err)
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, weekdaysJson)
}
