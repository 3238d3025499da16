// Package main - точка входа HTTP-сервиса аналитики обучения EduHub.
//
// Сервис принимает отчёты о прохождении уроков, ведёт идемпотентный
// журнал завершений и отдаёт производные read-модели: прогресс по
// курсам, темп, серии активных дней, геймификацию и сводку по
// категориям.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: Postgres, Redis, клиент каталога
// - Interface: HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/eduhub/eduhub-analytics/internal/application/command"
	"github.com/eduhub/eduhub-analytics/internal/application/eventhandler"
	"github.com/eduhub/eduhub-analytics/internal/application/query"

	// Domain layer
	catalogdomain "github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"

	// Infrastructure layer
	catalogclient "github.com/eduhub/eduhub-analytics/internal/infrastructure/external/catalog"
	"github.com/eduhub/eduhub-analytics/internal/infrastructure/messaging"
	"github.com/eduhub/eduhub-analytics/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/eduhub/eduhub-analytics/internal/infrastructure/persistence/redis"
	"github.com/eduhub/eduhub-analytics/internal/infrastructure/scheduler"
	"github.com/eduhub/eduhub-analytics/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/eduhub/eduhub-analytics/internal/interface/http"
	"github.com/eduhub/eduhub-analytics/internal/interface/http/handlers"

	// Packages
	"github.com/eduhub/eduhub-analytics/config"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run собирает все слои и держит процесс до сигнала остановки.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}))

	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("env", string(cfg.App.Environment)),
	)

	// ── PostgreSQL ────────────────────────────────────────────────────────────

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations applied")

	// ── Redis (опционально: кеши и рейтинг деградируют без него) ─────────────

	var cache *redisinfra.Cache
	if !cfg.Redis.Disabled {
		cache, err = redisinfra.NewCache(redisinfra.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, caches disabled", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var (
		hierCache        catalogclient.HierarchyCache = noopHierarchyCache{}
		progressCache    progress.Cache
		leaderboard      gamification.Leaderboard
		leaderboardCache *redisinfra.LeaderboardCache
	)
	if cache != nil {
		hierCache = redisinfra.NewHierarchyCache(cache)
		if cfg.Features.IsEnabled(config.FeatureProgressCache, nil) {
			progressCache = redisinfra.NewProgressCache(cache)
		}
		if cfg.Features.IsEnabled(config.FeatureLeaderboard, nil) {
			leaderboardCache = redisinfra.NewLeaderboardCache(cache)
			leaderboard = leaderboardCache
		}
	}

	// ── Event bus ─────────────────────────────────────────────────────────────

	busConfig := messaging.InMemoryEventBusConfig{
		AsyncMode:      cfg.Engine.EventBusAsync,
		WorkerPoolSize: cfg.Engine.EventBusWorkers,
		Logger:         slogger,
		EnableMetrics:  true,
	}

	var bus shared.EventBus
	var closeBus func() error

	if cache != nil && cfg.Features.IsEnabled(config.FeatureExperimentalRedisEventBus, nil) {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redisinfra.NewPubSubAdapter(cache),
			LocalBusConfig: busConfig,
			Logger:         slogger,
		})
		if err != nil {
			return fmt.Errorf("redis event bus: %w", err)
		}
		bus = redisBus
		closeBus = redisBus.Close
	} else {
		memBus := messaging.NewInMemoryEventBus(busConfig)
		bus = memBus
		closeBus = memBus.Close
	}
	defer closeBus()

	// ── Каталог ───────────────────────────────────────────────────────────────

	clientConfig := catalogclient.DefaultClientConfig(cfg.Catalog.BaseURL)
	clientConfig.APIKey = cfg.Catalog.APIKey
	clientConfig.Timeout = cfg.Catalog.RequestTimeout
	clientConfig.Logger = slogger
	clientConfig.Debug = cfg.App.Debug
	clientConfig.RateLimiterConfig.RequestsPerSecond = float64(cfg.Catalog.RateLimit)
	clientConfig.RateLimiterConfig.BurstSize = cfg.Catalog.RateLimitBurst
	clientConfig.RetryConfig.MaxRetries = cfg.Catalog.MaxRetries
	clientConfig.RetryConfig.InitialBackoff = cfg.Catalog.RetryBaseDelay
	clientConfig.RetryConfig.MaxBackoff = cfg.Catalog.RetryMaxDelay
	clientConfig.CircuitBreakerConfig.FailureThreshold = cfg.Catalog.CircuitBreakerThreshold
	clientConfig.CircuitBreakerConfig.Timeout = cfg.Catalog.CircuitBreakerTimeout
	clientConfig.CircuitBreakerConfig.HalfOpenMaxProbes = cfg.Catalog.CircuitBreakerHalfOpenMax

	catalogClient := catalogclient.NewClient(clientConfig)
	resolver := catalogclient.NewCachedResolver(catalogClient, hierCache, log)

	// ── Репозитории ───────────────────────────────────────────────────────────

	completionRepo := postgres.NewCompletionRepository(conn)
	pointRepo := postgres.NewPointEventRepository(conn)
	badgeRepo := postgres.NewBadgeRepository(conn)
	profileRepo := postgres.NewProfileRepository(conn)

	// ── Доменные настройки ────────────────────────────────────────────────────

	pointsConfig := gamification.PointsConfig{
		LessonCompletionPoints: cfg.Engine.LessonCompletionPoints,
		QuizPassPoints:         cfg.Engine.QuizPassPoints,
		QuizPassScoreThreshold: cfg.Engine.QuizPassScoreThreshold,
	}
	levelCurve := gamification.LevelCurve{
		Base:       cfg.Engine.LevelBase,
		Multiplier: cfg.Engine.LevelMultiplier,
	}
	thresholds := progress.PacingThresholds{
		Ahead:  cfg.Engine.PacingAheadThreshold,
		Behind: cfg.Engine.PacingBehindThreshold,
	}

	// ── Обработчики команд и запросов ─────────────────────────────────────────

	recordHandler := command.NewRecordCompletionHandler(
		completionRepo, resolver, pointRepo, badgeRepo, leaderboard, bus, log,
		pointsConfig, levelCurve,
	)
	resetHandler := command.NewResetCompletionHandler(completionRepo, bus, log)
	profileHandler := command.NewUpsertProfileHandler(profileRepo, log)

	deps := httpserver.Dependencies{
		RecordCompletionHandler:       recordHandler,
		ResetCompletionHandler:        resetHandler,
		UpsertProfileHandler:          profileHandler,
		GetCourseProgressHandler:      query.NewGetCourseProgressHandler(completionRepo, resolver, progressCache, 0, log),
		GetStreakHandler:              query.NewGetStreakHandler(completionRepo, profileRepo),
		GetGamificationHandler:        query.NewGetGamificationHandler(pointRepo, badgeRepo, leaderboard, levelCurve),
		GetCategoryPerformanceHandler: query.NewGetCategoryPerformanceHandler(completionRepo, resolver),
		GetDashboardHandler: query.NewGetDashboardHandler(
			completionRepo, resolver, pointRepo, badgeRepo, profileRepo,
			thresholds, levelCurve, log,
		),
		Logger: log,
	}

	if cfg.Features.IsEnabled(config.FeaturePacing, nil) {
		deps.GetPacingHandler = query.NewGetPacingHandler(completionRepo, resolver, thresholds)
	}
	if leaderboard != nil {
		deps.GetLeaderboardHandler = query.NewGetLeaderboardHandler(leaderboard, profileRepo, levelCurve)
	}

	// ── Подписки на события ───────────────────────────────────────────────────

	if progressCache != nil {
		if err := eventhandler.NewOnCompletionRecordedHandler(progressCache, log).Subscribe(bus); err != nil {
			return fmt.Errorf("subscribe cache invalidation: %w", err)
		}
	}
	if leaderboard != nil {
		if err := eventhandler.NewOnPointsEarnedHandler(pointRepo, leaderboard, log).Subscribe(bus); err != nil {
			return fmt.Errorf("subscribe leaderboard sync: %w", err)
		}
	}

	// ── Фоновые задания ───────────────────────────────────────────────────────

	if cfg.Scheduler.Enabled && leaderboardCache != nil {
		sched := scheduler.New(scheduler.Config{
			Logger:   slogger,
			Timezone: cfg.App.Location,
		})

		rebuild := jobs.NewRebuildLeaderboardJob(pointRepo, leaderboardCache, slogger)
		schedule := scheduler.DailyAt(cfg.Scheduler.LeaderboardRebuildHour, cfg.Scheduler.LeaderboardRebuildMinute)
		if err := sched.Register(rebuild, schedule); err != nil {
			return fmt.Errorf("register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// ── Health checks ─────────────────────────────────────────────────────────

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(conn))
	if cache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(cache))
	}
	health.AddCheck("catalog", func(ctx context.Context) error {
		if !catalogClient.IsHealthy(ctx) {
			return errors.New("catalog unreachable")
		}
		return nil
	})
	deps.HealthChecker = health

	// ── HTTP-сервер ───────────────────────────────────────────────────────────

	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	serverConfig.EnableCORS = cfg.HTTP.EnableCORS
	serverConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.AdminAPIKeys = cfg.HTTP.AdminAPIKeys

	server := httpserver.NewServer(serverConfig, deps)
	serverErr := server.StartAsync()

	// ── Ожидание сигнала ──────────────────────────────────────────────────────

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}

	log.Info("stopped")
	return nil
}

// slogLevel преобразует строковый уровень в slog.Level.
func slogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// noopHierarchyCache - заглушка кеша иерархии, когда Redis выключен:
// каждый промах уходит в каталог напрямую.
type noopHierarchyCache struct{}

func (noopHierarchyCache) GetLesson(context.Context, shared.LessonID) (*catalogdomain.HierarchyRef, error) {
	return nil, shared.ErrNotFound
}
func (noopHierarchyCache) SetLesson(context.Context, *catalogdomain.HierarchyRef) error { return nil }
func (noopHierarchyCache) SetUnresolvable(context.Context, shared.LessonID) error      { return nil }
func (noopHierarchyCache) GetCourseLessons(context.Context, shared.CourseID) ([]shared.LessonID, error) {
	return nil, shared.ErrNotFound
}
func (noopHierarchyCache) SetCourseLessons(context.Context, shared.CourseID, []shared.LessonID) error {
	return nil
}
func (noopHierarchyCache) GetModuleLessons(context.Context, shared.ModuleID) ([]shared.LessonID, error) {
	return nil, shared.ErrNotFound
}
func (noopHierarchyCache) SetModuleLessons(context.Context, shared.ModuleID, []shared.LessonID) error {
	return nil
}
func (noopHierarchyCache) GetEnrollment(context.Context, shared.StudentID, shared.CourseID) (*catalogdomain.EnrollmentWindow, error) {
	return nil, shared.ErrNotFound
}
func (noopHierarchyCache) SetEnrollment(context.Context, *catalogdomain.EnrollmentWindow) error {
	return nil
}
func (noopHierarchyCache) GetEnrollmentList(context.Context, shared.StudentID) ([]*catalogdomain.EnrollmentWindow, error) {
	return nil, shared.ErrNotFound
}
func (noopHierarchyCache) SetEnrollmentList(context.Context, shared.StudentID, []*catalogdomain.EnrollmentWindow) error {
	return nil
}
