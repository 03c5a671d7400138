package repos

import (
	"github.com/yungbote/breadlog-backend/internal/data/repos/bakes"
	"github.com/yungbote/breadlog-backend/internal/data/repos/catalog"
	"github.com/yungbote/breadlog-backend/internal/data/repos/recipes"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type BakeStore = bakes.Store
type CatalogRepo = catalog.CatalogRepo
type RecipeRepo = recipes.RecipeRepo

func NewBakeStore(db *gorm.DB, baseLog *logger.Logger) BakeStore {
	return bakes.NewBakeStore(db, baseLog)
}
func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return catalog.NewCatalogRepo(db, baseLog)
}
func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return recipes.NewRecipeRepo(db, baseLog)
}
