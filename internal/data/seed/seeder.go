package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	catalogrepo "github.com/yungbote/breadlog-backend/internal/data/repos/catalog"
	reciperepo "github.com/yungbote/breadlog-backend/internal/data/repos/recipes"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type SeederDeps struct {
	Log               *logger.Logger
	Runner            aggregates.TxRunner
	Catalog           catalogrepo.CatalogRepo
	Recipes           reciperepo.RecipeRepo
	FlourCategoryName string
	Now               func() time.Time
}

type Seeder struct {
	deps SeederDeps
	log  *logger.Logger
}

type Result struct {
	Categories     int
	Ingredients    int
	Parameters     int
	Templates      int
	RecipesCreated int
	RecipesSkipped int
}

func NewSeeder(deps SeederDeps) *Seeder {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.FlourCategoryName == "" {
		deps.FlourCategoryName = catalog.FlourCategoryName
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Seeder{deps: deps, log: deps.Log.With("service", "CatalogSeeder")}
}

// Seed upserts the reference catalog and creates predefined recipes that do
// not exist yet. Existing predefined recipes are left untouched so bakes
// keep pointing at the same provenance rows.
func (s *Seeder) Seed(ctx context.Context, f *File) (Result, error) {
	var res Result
	if s.deps.Runner == nil || s.deps.Catalog == nil || s.deps.Recipes == nil {
		return res, fmt.Errorf("seeder not initialized")
	}
	plan, err := Build(f, s.deps.FlourCategoryName, s.deps.Now())
	if err != nil {
		return res, fmt.Errorf("build seed plan: %w", err)
	}

	err = s.deps.Runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.deps.Catalog.UpsertCategories(dbc, plan.Categories); err != nil {
			return fmt.Errorf("upsert categories: %w", err)
		}
		if err := s.deps.Catalog.UpsertIngredients(dbc, plan.Ingredients); err != nil {
			return fmt.Errorf("upsert ingredients: %w", err)
		}
		if err := s.deps.Catalog.UpsertParameters(dbc, plan.Parameters); err != nil {
			return fmt.Errorf("upsert parameters: %w", err)
		}
		if err := s.deps.Catalog.UpsertStepTemplates(dbc, plan.Templates); err != nil {
			return fmt.Errorf("upsert step templates: %w", err)
		}
		for _, r := range plan.Recipes {
			existing, err := s.deps.Recipes.GetByID(dbc, r.ID)
			if err != nil {
				return fmt.Errorf("lookup recipe %q: %w", r.Name, err)
			}
			if existing != nil {
				res.RecipesSkipped++
				continue
			}
			if err := s.deps.Recipes.Create(dbc, r); err != nil {
				return fmt.Errorf("create recipe %q: %w", r.Name, err)
			}
			res.RecipesCreated++
		}
		return nil
	})
	if err != nil {
		s.log.Error("Catalog seed failed", "error", err)
		return Result{}, err
	}

	res.Categories = len(plan.Categories)
	res.Ingredients = len(plan.Ingredients)
	res.Parameters = len(plan.Parameters)
	res.Templates = len(plan.Templates)
	s.log.Info("Catalog seeded",
		"categories", res.Categories,
		"ingredients", res.Ingredients,
		"parameters", res.Parameters,
		"templates", res.Templates,
		"recipes_created", res.RecipesCreated,
		"recipes_skipped", res.RecipesSkipped,
	)
	return res, nil
}
