package records

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

type recordsRepo interface {
	Store(ctx context.Context, record WeightRecord) (*WeightRecord, error)
	Get(ctx context.Context, userID, recordID string) (*WeightRecord, error)
	List(ctx context.Context, userID string) ([]WeightRecord, error)
	Delete(ctx context.Context, userID, recordID string) error
}

type ListResponse struct {
	Records []WeightRecord `json:"records"`
	Total   int            `json:"total"`
}

type DeleteResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	repo           recordsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo recordsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	weightsRouter := router.PathPrefix("/weights").Subrouter()
	weightsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-weight")
	weightsRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-weights")
	weightsRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-weight")
	weightsRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-weight")
	weightsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-weight")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var record WeightRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Tracef("new weight record, unmarshal json params: %s", err)
		http.Error(w, "add weight record failed", http.StatusBadRequest)
		return
	}

	if err := record.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// the session user owns the record, whatever the payload says
	record.UserID = userID
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	addedRecord, err := handler.repo.Store(ctx, record)
	if err != nil {
		log.Errorf("failed to add weight record for %s: %s", userID, err)
		http.Error(w, "error, failed to add weight record", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWeightRecords.Inc()

	addedRecordJson, err := json.Marshal(addedRecord)
	if err != nil {
		log.Errorf("failed to marshal weight record: %s", err)
		http.Error(w, "error, failed to add weight record", http.StatusInternalServerError)
		return
	}

	log.Debugf("new weight record added: %s", addedRecord.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedRecordJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordsList, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list weight records for %s: %s", userID, err)
		http.Error(w, "failed to get weight records", http.StatusInternalServerError)
		return
	}

	listJson, err := json.Marshal(ListResponse{
		Records: recordsList,
		Total:   len(recordsList),
	})
	if err != nil {
		log.Errorf("failed to marshal weight records: %s", err)
		http.Error(w, "failed to get weight records", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, listJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordID := mux.Vars(r)["id"]
	if recordID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	record, err := handler.repo.Get(ctx, userID, recordID)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "weight record not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get weight record %s: %s", recordID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	recordJson, err := json.Marshal(record)
	if err != nil {
		log.Errorf("failed to marshal weight record: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, recordJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordID := mux.Vars(r)["id"]
	if recordID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	existing, err := handler.repo.Get(ctx, userID, recordID)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "weight record not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get weight record %s: %s", recordID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var record WeightRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Tracef("update weight record, unmarshal json params: %s", err)
		http.Error(w, "update weight record failed", http.StatusBadRequest)
		return
	}

	if err := record.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record.ID = recordID
	record.UserID = userID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now()

	updatedRecord, err := handler.repo.Store(ctx, record)
	if err != nil {
		log.Errorf("failed to update weight record %s: %s", recordID, err)
		http.Error(w, "error, failed to update weight record", http.StatusInternalServerError)
		return
	}

	updatedRecordJson, err := json.Marshal(updatedRecord)
	if err != nil {
		log.Errorf("failed to marshal weight record: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, updatedRecordJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recordID := mux.Vars(r)["id"]
	if recordID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, recordID); errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "weight record not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to delete weight record %s: %s", recordID, err)
		http.Error(w, "weight record not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteResponse{DeletedID: recordID})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, deleteRespJson)
}
