package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/data/db"
	"github.com/yungbote/breadlog-backend/internal/data/seed"
	apphttp "github.com/yungbote/breadlog-backend/internal/http"
	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
	"github.com/yungbote/breadlog-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Bus      bus.Bus

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.NewService(db.ConfigFromEnv(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	eventBus, err := bus.FromEnv(log)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	repoSet := wireRepos(theDB, log)

	if cfg.SeedCatalog {
		if err := seedCatalog(context.Background(), log, theDB, cfg, repoSet); err != nil {
			_ = eventBus.Close()
			_ = dbService.Close()
			log.Sync()
			return nil, err
		}
	}

	serviceSet := wireServices(theDB, log, cfg, repoSet, metrics, eventBus)
	handlerSet := wireHandlers(log, theDB, serviceSet)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, metrics, handlerSet, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        repoSet,
		Services:     serviceSet,
		Metrics:      metrics,
		Bus:          eventBus,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

func seedCatalog(ctx context.Context, log *logger.Logger, theDB *gorm.DB, cfg Config, repoSet Repos) error {
	file, err := seed.FromEnv()
	if err != nil {
		return fmt.Errorf("load catalog seed: %w", err)
	}
	seeder := seed.NewSeeder(seed.SeederDeps{
		Log:               log,
		Runner:            aggregates.NewGormTxRunner(theDB),
		Catalog:           repoSet.Catalog,
		Recipes:           repoSet.Recipes,
		FlourCategoryName: cfg.FlourCategoryName,
	})
	res, err := seeder.Seed(ctx, file)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("catalog seeded",
		"categories", res.Categories,
		"ingredients", res.Ingredients,
		"parameters", res.Parameters,
		"templates", res.Templates,
		"recipes_created", res.RecipesCreated,
		"recipes_skipped", res.RecipesSkipped,
	)
	return nil
}

// Start launches background collectors. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, os.Getenv("REDIS_ADDR"))
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	return a.Server.Run()
}

// Shutdown drains in-flight requests and releases every resource.
func (a *App) Shutdown(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown failed", "error", err)
		}
	}
	a.Close()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", "error", err)
		}
		a.Bus = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
		a.dbService = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
