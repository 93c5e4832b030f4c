package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hvukovic/weightly/internal/auth"
	"github.com/hvukovic/weightly/internal/telemetry/tracing"
	"github.com/hvukovic/weightly/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type settingsRepo interface {
	Get(ctx context.Context, userID string) (*UserSettings, error)
	Store(ctx context.Context, userSettings UserSettings) (*UserSettings, error)
}

type Handler struct {
	repo settingsRepo
}

func NewHandler(repo settingsRepo) *Handler {
	return &Handler{repo: repo}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/settings", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-settings")
	router.HandleFunc("/settings", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-settings")
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userSettings, err := handler.repo.Get(ctx, userID)
	if errors.Is(err, ErrSettingsNotFound) {
		defaults := Defaults(userID)
		userSettings = &defaults
	} else if err != nil {
		log.Errorf("failed to get settings for %s: %s", userID, err)
		http.Error(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	settingsJson, err := json.Marshal(userSettings)
	if err != nil {
		log.Errorf("failed to marshal settings: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, settingsJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var userSettings UserSettings
	if err := json.NewDecoder(r.Body).Decode(&userSettings); err != nil {
		log.Tracef("update settings, unmarshal json params: %s", err)
		http.Error(w, "update settings failed", http.StatusBadRequest)
		return
	}

	if err := userSettings.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userSettings.UserID = userID
	updatedSettings, err := handler.repo.Store(ctx, userSettings)
	if err != nil {
		log.Errorf("failed to update settings for %s: %s", userID, err)
		http.Error(w, "failed to update settings", http.StatusInternalServerError)
		return
	}

	updatedSettingsJson, err := json.Marshal(updatedSettings)
	if err != nil {
		log.Errorf("failed to marshal settings: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, updatedSettingsJson)
}
