package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/breadlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/breadlog-backend/internal/http/middleware"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Bake    *httpH.BakeHandler
	Recipe  *httpH.RecipeHandler
	Catalog *httpH.CatalogHandler
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, serviceSet Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Bake:    httpH.NewBakeHandler(serviceSet.Bakes),
		Recipe:  httpH.NewRecipeHandler(serviceSet.Recipes),
		Catalog: httpH.NewCatalogHandler(serviceSet.Catalog),
	}
}
