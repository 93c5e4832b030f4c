package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hvukovic/weightly/internal/telemetry/metrics"
	"github.com/hvukovic/weightly/internal/telemetry/tracing"
	"github.com/hvukovic/weightly/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type googleAuth interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*User, error)
}

type loginService interface {
	Login(ctx context.Context, user User, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

const (
	// TokenHeader carries the session token on authenticated requests.
	TokenHeader = "X-WEIGHTLY-TOKEN"

	stateCookieName = "weightly_oauth_state"
)

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Handler struct {
	google         googleAuth
	service        loginService
	metricsManager *metrics.Manager
}

func NewHandler(google googleAuth, service loginService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		google:         google,
		service:        service,
		metricsManager: metricsManager,
	}
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router, rateLimitLogin mux.MiddlewareFunc) {
	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login/google", h.handleLoginGoogle).
		Methods("GET", "OPTIONS").Name("login-google")
	loginSubrouter.
		HandleFunc("/login/google/callback", h.handleLoginGoogleCallback).
		Methods("GET", "OPTIONS").Name("login-google-callback")
	loginSubrouter.
		HandleFunc("/logout", h.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	loginSubrouter.
		HandleFunc("/me", h.handleMe).
		Methods("GET", "OPTIONS").Name("me")

	// rate limit the login endpoints to prevent abuse
	loginSubrouter.Use(rateLimitLogin)
}

func (h *Handler) handleLoginGoogle(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.loginGoogle")
	defer span.End()

	state, err := pkg.GenerateRandomString(16)
	if err != nil {
		log.Errorf("login google, generate state: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleLoginGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.loginGoogleCallback")
	defer span.End()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		span.SetStatus(codes.Error, "invalid-state")
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookieName, MaxAge: -1, Path: "/"})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "code missing", http.StatusBadRequest)
		return
	}

	user, err := h.google.ExchangeCode(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("exchange code: %s", err))
		log.Errorf("login google callback, exchange code: %s", err)
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	token, err := h.service.Login(ctx, *user, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("login: %s", err))
		log.Errorf("login google callback, create session for %s: %s", user.ID, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("user %s logged in", user.ID)
	h.metricsManager.CounterLogins.Inc()

	respJson, err := json.Marshal(LoginResponse{Token: token, User: *user})
	if err != nil {
		log.Errorf("login google callback, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	token := r.Header.Get(TokenHeader)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := h.service.Logout(ctx, token)
	if err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.me")
	defer span.End()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		log.Errorf("get user %s: %s", userID, err)
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("marshal user %s: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, userJson)
}
