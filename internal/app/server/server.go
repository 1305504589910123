package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"payflow/internal/domain/admin"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/dashboard"
	"payflow/internal/domain/leave"
	"payflow/internal/domain/onboarding"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/reminder"
	"payflow/internal/domain/resignation"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/platform/config"
	"payflow/internal/platform/crypto"
	"payflow/internal/platform/db"
	"payflow/internal/platform/holidays"
	"payflow/internal/platform/metrics"
	"payflow/internal/platform/telemetry"
	adminhandler "payflow/internal/transport/http/handlers/admin"
	audithandler "payflow/internal/transport/http/handlers/audit"
	authhandler "payflow/internal/transport/http/handlers/auth"
	dashboardhandler "payflow/internal/transport/http/handlers/dashboard"
	leavehandler "payflow/internal/transport/http/handlers/leave"
	onboardinghandler "payflow/internal/transport/http/handlers/onboarding"
	payrollhandler "payflow/internal/transport/http/handlers/payroll"
	reminderhandler "payflow/internal/transport/http/handlers/reminder"
	resignationhandler "payflow/internal/transport/http/handlers/resignation"
	"payflow/internal/transport/http/middleware"
)

const (
	serviceName = "payflow-console"
	// events kept when no database is configured
	auditCapacity = 5000
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Router   http.Handler
	Sessions *session.Service
	Holidays *holidays.Feed
	Metrics  *metrics.Collector

	shutdownTelemetry func(context.Context) error
}

// New wires the console: stores, backend client, domain services and the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		slog.Warn("SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	app := &App{
		Config:            cfg,
		Metrics:           metrics.New(),
		shutdownTelemetry: telemetry.Setup(ctx, cfg, serviceName),
	}

	sealer, err := crypto.NewSealer(cfg.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("session encryption key: %w", err)
	}

	var (
		store  session.Store
		drafts onboarding.DraftStore
		events audit.Store
	)
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		store = session.NewPostgresStore(pool, sealer)
		drafts = onboarding.NewPostgresStore(pool)
		events = audit.NewPostgresStore(pool)
	case config.SessionBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		app.Redis = redis.NewClient(opts)
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		store = session.NewRedisStore(app.Redis, sealer)
		drafts = onboarding.NewRedisStore(app.Redis, cfg.SessionTTL)
		events = audit.NewMemoryStore(auditCapacity)
	default:
		store = session.NewMemoryStore()
		drafts = onboarding.NewMemoryStore()
		events = audit.NewMemoryStore(auditCapacity)
	}

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, backend.WithObserver(app.Metrics))
	app.Sessions = session.NewService(store, client, session.WithLocalAdmin(cfg.AdminUsername, cfg.AdminPasswordHash))
	app.Holidays = holidays.NewFeed(cfg.HolidayFeedURL, cfg.BackendTimeout)

	leaves := leave.NewService(client, cfg.LeaveHistoryTTL, leave.WithObserver(app.Metrics))
	payrollSvc := payroll.NewService(client)
	dash := dashboard.NewService(client, leaves, payrollSvc, app.Holidays,
		dashboard.WithObserver(app.Metrics),
		dashboard.WithParallelism(cfg.DashboardParallel),
	)
	onboardingSvc := onboarding.NewService(drafts, client)
	resignations := resignation.NewService(client, cfg.LeaveHistoryTTL)
	auditSvc := audit.New(events)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:           300,
	}))
	router.Use(chimw.CleanPath)
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(slog.Default()))
	router.Use(chimw.Recoverer)
	router.Use(middleware.Metrics(app.Metrics))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Session(app.Sessions, cfg.SessionSecret, cfg.SessionCookie))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady)
	if cfg.MetricsEnabled {
		router.Handle("/metrics", app.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		var limits []middleware.RateLimitOption
		if app.Redis != nil {
			limits = append(limits, middleware.WithCounter(middleware.NewRedisRateCounter(app.Redis)))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limits...))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, limits...))

		authhandler.NewHandler(app.Sessions, cfg.SessionSecret, authhandler.CookieConfig{
			Name:   cfg.SessionCookie,
			TTL:    cfg.SessionTTL,
			Secure: cfg.IsProduction(),
		}).RegisterRoutes(r)
		dashboardhandler.NewHandler(dash, app.Holidays, auditSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaves, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, auditSvc).RegisterRoutes(r)
		onboardinghandler.NewHandler(onboardingSvc, auditSvc).RegisterRoutes(r)
		resignationhandler.NewHandler(resignations, auditSvc).RegisterRoutes(r)
		reminderhandler.NewHandler(reminder.NewService(client), auditSvc).RegisterRoutes(r)
		adminhandler.NewHandler(admin.NewService(client), auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	app.Router = otelhttp.NewHandler(router, serviceName)
	return app, nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if a.DB != nil {
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTelemetry(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}
}

func Run() {
	cfg := config.Load()
	slog.SetDefault(middleware.NewLogger(serviceName, cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	go app.Holidays.Run(ctx, cfg.HolidayRefresh)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		slog.Info("payflow console listening", "addr", cfg.Addr, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown failed", "err", err)
	}
}

func randomSecret() (string, error) {
	buff := make([]byte, 32)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buff), nil
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
