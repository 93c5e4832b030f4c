package goals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hvukovic/weightly/internal/auth"
	"github.com/hvukovic/weightly/internal/telemetry/metrics"
	"github.com/hvukovic/weightly/internal/telemetry/tracing"
	"github.com/hvukovic/weightly/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type goalsRepo interface {
	Store(ctx context.Context, goal Goal) (*Goal, error)
	Get(ctx context.Context, userID, goalID string) (*Goal, error)
	List(ctx context.Context, userID string) ([]Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
}

type ListResponse struct {
	Goals []Goal `json:"goals"`
	Total int    `json:"total"`
}

type DeleteResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	repo           goalsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo goalsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	goalsRouter := router.PathPrefix("/goals").Subrouter()
	goalsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-goal")
	goalsRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-goals")
	goalsRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-goal")
	goalsRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-goal")
	goalsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-goal")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var goal Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		log.Tracef("new goal, unmarshal json params: %s", err)
		http.Error(w, "add goal failed", http.StatusBadRequest)
		return
	}

	if err := goal.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal.UserID = userID
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	addedGoal, err := handler.repo.Store(ctx, goal)
	if err != nil {
		log.Errorf("failed to add goal for %s: %s", userID, err)
		http.Error(w, "error, failed to add goal", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterGoals.Inc()

	addedGoalJson, err := json.Marshal(addedGoal)
	if err != nil {
		log.Errorf("failed to marshal goal: %s", err)
		http.Error(w, "error, failed to add goal", http.StatusInternalServerError)
		return
	}

	log.Debugf("new goal added: %s", addedGoal.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedGoalJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	goalsList, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list goals for %s: %s", userID, err)
		http.Error(w, "failed to get goals", http.StatusInternalServerError)
		return
	}

	listJson, err := json.Marshal(ListResponse{
		Goals: goalsList,
		Total: len(goalsList),
	})
	if err != nil {
		log.Errorf("failed to marshal goals: %s", err)
		http.Error(w, "failed to get goals", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, listJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	goalID := mux.Vars(r)["id"]
	if goalID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	goal, err := handler.repo.Get(ctx, userID, goalID)
	if errors.Is(err, ErrGoalNotFound) {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get goal %s: %s", goalID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	goalJson, err := json.Marshal(goal)
	if err != nil {
		log.Errorf("failed to marshal goal: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, goalJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	goalID := mux.Vars(r)["id"]
	if goalID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	existing, err := handler.repo.Get(ctx, userID, goalID)
	if errors.Is(err, ErrGoalNotFound) {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get goal %s: %s", goalID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var goal Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		log.Tracef("update goal, unmarshal json params: %s", err)
		http.Error(w, "update goal failed", http.StatusBadRequest)
		return
	}

	if err := goal.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal.ID = goalID
	goal.UserID = userID
	goal.CreatedAt = existing.CreatedAt
	goal.UpdatedAt = time.Now()

	updatedGoal, err := handler.repo.Store(ctx, goal)
	if err != nil {
		log.Errorf("failed to update goal %s: %s", goalID, err)
		http.Error(w, "error, failed to update goal", http.StatusInternalServerError)
		return
	}

	updatedGoalJson, err := json.Marshal(updatedGoal)
	if err != nil {
		log.Errorf("failed to marshal goal: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, updatedGoalJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	goalID := mux.Vars(r)["id"]
	if goalID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, goalID); errors.Is(err, ErrGoalNotFound) {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to delete goal %s: %s", goalID, err)
		http.Error(w, "goal not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteResponse{DeletedID: goalID})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, deleteRespJson)
}
