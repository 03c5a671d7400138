package app

import (
	apphttp "github.com/yungbote/breadlog-backend/internal/http"
	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(cfg.Addr(), apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthMiddleware: middleware.Auth,
		BakeHandler:    handlers.Bake,
		RecipeHandler:  handlers.Recipe,
		CatalogHandler: handlers.Catalog,
		HealthHandler:  handlers.Health,
	})
}
