package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/breadlog-backend/internal/data/repos"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type Repos struct {
	Bakes   repos.BakeStore
	Catalog repos.CatalogRepo
	Recipes repos.RecipeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Bakes:   repos.NewBakeStore(db, log),
		Catalog: repos.NewCatalogRepo(db, log),
		Recipes: repos.NewRecipeRepo(db, log),
	}
}
