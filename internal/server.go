package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/config"
	"github.com/2beens/calispro/internal/db"
	"github.com/2beens/calispro/internal/events"
	"github.com/2beens/calispro/internal/ledger"
	"github.com/2beens/calispro/internal/middleware"
	"github.com/2beens/calispro/internal/misc"
	"github.com/2beens/calispro/internal/telemetry/metrics"
	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/internal/users"
)

const (
	maxRequestBodyBytes = 1 << 20
	skillsCacheExpire   = 10 * time.Minute
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	publisher   events.Publisher

	tokens  *auth.TokenService
	revoker *auth.Revoker

	catalogService *catalog.Service
	quotesManager  *misc.QuotesManager

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	JWTSecret               string
	PostgresPassword        string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.Config.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("calispro", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "calispro-backend")
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Noop{}
	if len(params.Config.KafkaBrokers) > 0 {
		publisher = events.NewDispatcher(events.NewKafkaPublisher(params.Config.KafkaBrokers), 0)
		log.Debugf("publishing events to kafka: %v", params.Config.KafkaBrokers)
	}

	quotesManager, err := misc.NewDefaultQuoteManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create quote manager: %w", err)
	}

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		redisClient: rdb,
		publisher:   publisher,
		versionInfo: params.VersionInfo,

		tokens:  auth.NewTokenService(params.JWTSecret, auth.DefaultTTL),
		revoker: auth.NewRevoker(rdb),

		catalogService: catalog.NewService(
			catalog.NewRepo(dbPool),
			catalog.NewReferenceCache(params.Config.SkillsCacheSizeMB, skillsCacheExpire),
			params.Config.FreePlanWorkoutLimit,
		),
		quotesManager: quotesManager,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

// Catalog is exposed for seeding reference data at startup.
func (s *Server) Catalog() *catalog.Service {
	return s.catalogService
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("calispro-router"))

	misc.NewHandler(s.quotesManager, s.versionInfo).SetupRoutes(r)

	usersHandler := users.NewHandler(
		users.NewService(users.NewRepo(s.dbPool), s.tokens, s.revoker),
	)
	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", usersHandler.HandleSignup).Methods("POST", "OPTIONS").Name("signup")
	authRouter.HandleFunc("/login", usersHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", usersHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/me", usersHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")
	authRouter.HandleFunc("/profile", usersHandler.HandleUpdateProfile).Methods("PATCH", "OPTIONS").Name("update-profile")
	// rate limit the auth endpoints to slow down credential guessing
	authRouter.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"auth",
		s.config.AuthRateLimitAllowedPerMin,
		s.metricsManager,
	))

	catalogHandler := catalog.NewHandler(s.catalogService)
	r.HandleFunc("/api/exercises", catalogHandler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/api/exercises/{id}", catalogHandler.HandleGetExercise).Methods("GET", "OPTIONS").Name("get-exercise")
	r.HandleFunc("/api/workouts", catalogHandler.HandleListWorkouts).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/api/workouts", catalogHandler.HandleCreateWorkout).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/api/workouts/{id}", catalogHandler.HandleGetWorkout).Methods("GET", "OPTIONS").Name("get-workout")

	ledgerHandler := ledger.NewHandler(
		ledger.NewService(
			ledger.NewHistoryRepo(s.dbPool),
			ledger.NewMasteryRepo(s.dbPool),
			s.catalogService,
			ledger.NewStreakCache(s.redisClient),
			s.publisher,
			s.metricsManager,
		),
	)
	r.HandleFunc("/api/skills/user/progress", ledgerHandler.HandleListMastery).Methods("GET", "OPTIONS").Name("list-mastery")
	r.HandleFunc("/api/skills/user/progress", ledgerHandler.HandleAwardMastery).Methods("POST", "OPTIONS").Name("award-mastery")
	r.HandleFunc("/api/skills", catalogHandler.HandleListSkills).Methods("GET", "OPTIONS").Name("list-skills")
	r.HandleFunc("/api/skills/{id}", catalogHandler.HandleGetSkill).Methods("GET", "OPTIONS").Name("get-skill")

	r.HandleFunc("/api/logs", ledgerHandler.HandleRecordSession).Methods("POST", "OPTIONS").Name("new-log")
	r.HandleFunc("/api/logs/history", ledgerHandler.HandleListHistory).Methods("GET", "OPTIONS").Name("list-history")
	r.HandleFunc("/api/logs/history", ledgerHandler.HandleDeleteAllHistory).Methods("DELETE", "OPTIONS").Name("clear-history")
	r.HandleFunc("/api/logs/history/{id}", ledgerHandler.HandleDeleteHistoryEntry).Methods("DELETE", "OPTIONS").Name("delete-history-entry")
	r.HandleFunc("/api/logs/streaks", ledgerHandler.HandleStreaks).Methods("GET", "OPTIONS").Name("streaks")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokens, s.revoker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
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

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, they still need redis and the db
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if err := s.publisher.Close(); err != nil {
		log.Errorf("failed to close event publisher: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
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
