package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hvukovic/weightly/internal/auth"
	"github.com/hvukovic/weightly/internal/config"
	"github.com/hvukovic/weightly/internal/dashboard"
	"github.com/hvukovic/weightly/internal/goals"
	"github.com/hvukovic/weightly/internal/middleware"
	"github.com/hvukovic/weightly/internal/records"
	"github.com/hvukovic/weightly/internal/settings"
	"github.com/hvukovic/weightly/internal/telemetry/metrics"
	"github.com/hvukovic/weightly/internal/telemetry/tracing"
	"github.com/hvukovic/weightly/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config

	redisClient  *redis.Client
	googleAuth   *auth.GoogleAuth
	authService  *auth.Service
	loginChecker *auth.LoginChecker

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	GoogleClientID          string
	GoogleClientSecret      string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("weightly", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// sessions live in redis regardless of the chosen storage backend
	authService := auth.NewService(auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "weightly-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	googleAuth, err := auth.NewGoogleAuth(
		ctx,
		params.GoogleClientID,
		params.GoogleClientSecret,
		params.Config.OAuthRedirectURL,
		tracedHttpClient,
	)
	if err != nil {
		return nil, fmt.Errorf("new google auth: %w", err)
	}

	return &Server{
		config:      params.Config,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		googleAuth:   googleAuth,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("weightly-router"))

	var (
		recordsHandler   *records.Handler
		goalsHandler     *goals.Handler
		settingsHandler  *settings.Handler
		dashboardHandler *dashboard.Handler
	)
	switch s.config.StorageBackend {
	case config.StorageBackendMemory:
		log.Warnln("using in-memory storage backend, data will not survive restarts")
		recordsRepo := records.NewMemoryRepo()
		goalsRepo := goals.NewMemoryRepo()
		recordsHandler = records.NewHandler(recordsRepo, s.metricsManager)
		goalsHandler = goals.NewHandler(goalsRepo, s.metricsManager)
		settingsHandler = settings.NewHandler(settings.NewMemoryRepo())
		dashboardHandler = dashboard.NewHandler(recordsRepo, goalsRepo)
	case config.StorageBackendRedis:
		recordsRepo := records.NewRepo(s.redisClient)
		goalsRepo := goals.NewRepo(s.redisClient)
		recordsHandler = records.NewHandler(recordsRepo, s.metricsManager)
		goalsHandler = goals.NewHandler(goalsRepo, s.metricsManager)
		settingsHandler = settings.NewHandler(settings.NewRepo(s.redisClient))
		dashboardHandler = dashboard.NewHandler(recordsRepo, goalsRepo)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", s.config.StorageBackend)
	}

	recordsHandler.SetupRoutes(r)
	goalsHandler.SetupRoutes(r)
	settingsHandler.SetupRoutes(r)
	dashboardHandler.SetupRoutes(r)

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authHandler := auth.NewHandler(s.googleAuth, s.authService, s.metricsManager)
	authHandler.SetupRoutes(r, middleware.RateLimit(
		reqRateLimiter,
		"login",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "weightly service")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	var closeErr error
	if s.redisClient != nil {
		closeErr = multierr.Append(closeErr, s.redisClient.Close())
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		closeErr = multierr.Append(closeErr, s.httpServer.Shutdown(ctx))
	}
	if s.metricsHttpServer != nil {
		closeErr = multierr.Append(closeErr, s.metricsHttpServer.Shutdown(ctx))
	}

	if closeErr != nil {
		log.Errorf(" >>> failures during shutdown: %s", closeErr)
	}
	log.Warnln("server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
