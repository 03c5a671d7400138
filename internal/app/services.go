package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
	"github.com/yungbote/breadlog-backend/internal/realtime/bus"
	"github.com/yungbote/breadlog-backend/internal/services"
)

type Services struct {
	Bakes   services.BakeService
	Recipes services.RecipeService
	Catalog services.CatalogService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repoSet Repos, metrics *observability.Metrics, eventBus bus.Bus) Services {
	log.Info("Wiring services...")
	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(db),
		Hooks:  aggregates.NewObservabilityHooks(metrics, log),
	}

	bakeAgg := aggregates.NewBakeAggregate(aggregates.BakeAggregateDeps{
		Base:                   base,
		Store:                  repoSet.Bakes,
		Recipes:                repoSet.Recipes,
		StartPolicy:            cfg.StartPolicy,
		UnknownParameterPolicy: cfg.UnknownParameterPolicy,
	})
	recipeAgg := aggregates.NewRecipeAggregate(aggregates.RecipeAggregateDeps{
		Base:              base,
		Recipes:           repoSet.Recipes,
		Catalog:           repoSet.Catalog,
		FlourCategoryName: cfg.FlourCategoryName,
	})

	return Services{
		Bakes: services.NewBakeService(log, repoSet.Bakes, bakeAgg, services.NewBakeNotifier(eventBus, log)),
		Recipes: services.NewRecipeService(services.RecipeServiceDeps{
			Log:                log,
			Recipes:            repoSet.Recipes,
			Catalog:            repoSet.Catalog,
			Aggregate:          recipeAgg,
			LiquidCategoryName: cfg.LiquidCategoryName,
		}),
		Catalog: services.NewCatalogService(log, repoSet.Catalog),
	}
}
