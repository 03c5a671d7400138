package services

import (
	"context"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/data/repos"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

// CatalogService serves the seeded reference data recipes are built from.
// It is read-only.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*types.IngredientCategory, error)
	ListIngredients(ctx context.Context) ([]*types.Ingredient, error)
	ListParameters(ctx context.Context) ([]*types.StepParameter, error)
	ListStepTemplates(ctx context.Context) ([]*types.StepTemplate, error)
}

type catalogService struct {
	log     *logger.Logger
	catalog repos.CatalogRepo
}

func NewCatalogService(log *logger.Logger, catalog repos.CatalogRepo) CatalogService {
	return &catalogService{log: log.With("service", "CatalogService"), catalog: catalog}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*types.IngredientCategory, error) {
	return listCatalog(ctx, "Catalog.Category.List", s.catalog.ListCategories)
}

func (s *catalogService) ListIngredients(ctx context.Context) ([]*types.Ingredient, error) {
	return listCatalog(ctx, "Catalog.Ingredient.List", s.catalog.ListIngredients)
}

func (s *catalogService) ListParameters(ctx context.Context) ([]*types.StepParameter, error) {
	return listCatalog(ctx, "Catalog.Parameter.List", s.catalog.ListParameters)
}

func (s *catalogService) ListStepTemplates(ctx context.Context) ([]*types.StepTemplate, error) {
	return listCatalog(ctx, "Catalog.StepTemplate.List", s.catalog.ListStepTemplates)
}

func listCatalog[T any](ctx context.Context, op string, list func(dbctx.Context) ([]*T, error)) ([]*T, error) {
	if _, err := ownerFromContext(ctx); err != nil {
		return nil, err
	}
	out, err := list(dbctx.Background(ctx))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if out == nil {
		out = []*T{}
	}
	return out, nil
}
