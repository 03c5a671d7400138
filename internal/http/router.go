package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/breadlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/breadlog-backend/internal/http/middleware"
	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	BakeHandler    *httpH.BakeHandler
	RecipeHandler  *httpH.RecipeHandler
	CatalogHandler *httpH.CatalogHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Bakes
		if h := cfg.BakeHandler; h != nil {
			api.POST("/bakes", h.StartBake)
			api.GET("/bakes", h.List)
			api.GET("/bakes/active", h.ListActive)
			api.GET("/bakes/:id", h.Get)
			api.PUT("/bakes/:id/notes", h.UpdateNotes)
			api.PUT("/bakes/:id/rating", h.UpdateRating)
			api.PUT("/bakes/:id/complete", h.Complete)
			api.PUT("/bakes/:id/cancel", h.Cancel)

			api.PUT("/bakes/:id/steps/:stepId/start", h.StartStep)
			api.PUT("/bakes/:id/steps/:stepId/complete", h.CompleteStep)
			api.PUT("/bakes/:id/steps/:stepId/skip", h.SkipStep)
			api.PUT("/bakes/:id/steps/:stepId/fail", h.FailStep)
			api.PUT("/bakes/:id/steps/:stepId/note", h.UpdateStepNote)
			api.PUT("/bakes/:id/steps/:stepId/deviations", h.UpdateStepDeviations)
			api.PUT("/bakes/:id/steps/:stepId/parameters/:parameterValueId/actual", h.UpdateActualValue)
			api.PUT("/bakes/:id/steps/:stepId/parameter-values/:parameterValueId/planned", h.UpdatePlannedValue)
		}

		// Recipes
		if h := cfg.RecipeHandler; h != nil {
			api.POST("/recipes", h.Create)
			api.GET("/recipes", h.List)
			api.GET("/recipes/:id", h.Get)
			api.GET("/recipes/:id/formula", h.Formula)
			api.PUT("/recipes/:id", h.Update)
			api.DELETE("/recipes/:id", h.Delete)
			api.POST("/recipes/:id/clone", h.Clone)
		}

		// Reference data
		if h := cfg.CatalogHandler; h != nil {
			api.GET("/meta/ingredient-categories", h.ListCategories)
			api.GET("/meta/ingredients", h.ListIngredients)
			api.GET("/meta/parameters", h.ListParameters)
			api.GET("/meta/step-templates", h.ListStepTemplates)
		}
	}

	return r
}
