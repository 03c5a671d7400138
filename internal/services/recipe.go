package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/data/repos"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type FormulaLine struct {
	StepOrder      int           `json:"step_order"`
	IngredientID   uuid.UUID     `json:"ingredient_id"`
	IngredientName string        `json:"ingredient_name"`
	CategoryName   string        `json:"category_name"`
	Mode           bakerpct.Mode `json:"calculation_mode"`
	Percentage     float64       `json:"percentage"`
	Weight         float64       `json:"weight"`
}

// FormulaView is a recipe scaled to a target dough weight, in grams.
type FormulaView struct {
	RecipeID     uuid.UUID     `json:"recipe_id"`
	Name         string        `json:"name"`
	TargetWeight float64       `json:"target_weight"`
	FlourWeight  float64       `json:"flour_weight"`
	TotalWeight  float64       `json:"total_weight"`
	Hydration    float64       `json:"hydration_pct"`
	Lines        []FormulaLine `json:"lines"`
}

type RecipeService interface {
	Create(ctx context.Context, in domainagg.RecipeInput) (*types.Recipe, error)
	Update(ctx context.Context, recipeID uuid.UUID, in domainagg.RecipeInput) (*types.Recipe, error)
	Delete(ctx context.Context, recipeID uuid.UUID) error
	Clone(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error)
	List(ctx context.Context) ([]*types.Recipe, error)
	Get(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error)
	// Formula scales the recipe to targetWeight, or to its own total weight when nil.
	Formula(ctx context.Context, recipeID uuid.UUID, targetWeight *float64) (*FormulaView, error)
}

type RecipeServiceDeps struct {
	Log                *logger.Logger
	Recipes            repos.RecipeRepo
	Catalog            repos.CatalogRepo
	Aggregate          domainagg.RecipeAggregate
	LiquidCategoryName string
}

type recipeService struct {
	deps RecipeServiceDeps
	log  *logger.Logger
}

func NewRecipeService(deps RecipeServiceDeps) RecipeService {
	if deps.LiquidCategoryName == "" {
		deps.LiquidCategoryName = catalog.LiquidCategoryName
	}
	return &recipeService{deps: deps, log: deps.Log.With("service", "RecipeService")}
}

func (s *recipeService) Create(ctx context.Context, in domainagg.RecipeInput) (*types.Recipe, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in.OwnerID = ownerID
	return s.deps.Aggregate.CreateRecipe(ctx, in)
}

func (s *recipeService) Update(ctx context.Context, recipeID uuid.UUID, in domainagg.RecipeInput) (*types.Recipe, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in.OwnerID = ownerID
	return s.deps.Aggregate.UpdateRecipe(ctx, domainagg.UpdateRecipeInput{RecipeInput: in, RecipeID: recipeID})
}

func (s *recipeService) Delete(ctx context.Context, recipeID uuid.UUID) error {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}
	return s.deps.Aggregate.DeleteRecipe(ctx, domainagg.RecipeRef{OwnerID: ownerID, RecipeID: recipeID})
}

func (s *recipeService) Clone(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Aggregate.CloneRecipe(ctx, domainagg.RecipeRef{OwnerID: ownerID, RecipeID: recipeID})
}

func (s *recipeService) List(ctx context.Context) ([]*types.Recipe, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.deps.Recipes.ListVisible(dbctx.Background(ctx), ownerID)
	if err != nil {
		return nil, aggregates.MapError("Recipes.Recipe.List", err)
	}
	return out, nil
}

func (s *recipeService) Get(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error) {
	const op = "Recipes.Recipe.Get"
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.deps.Recipes.GetByID(dbctx.Background(ctx), recipeID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if r == nil || !r.Active() || !r.VisibleTo(ownerID) {
		return nil, domainagg.NotFound(op, "recipe")
	}
	return r, nil
}

func (s *recipeService) Formula(ctx context.Context, recipeID uuid.UUID, targetWeight *float64) (*FormulaView, error) {
	const op = "Recipes.Recipe.Formula"
	r, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	target := targetWeight
	if target == nil {
		target = r.TotalWeight
	}
	if target == nil || *target <= 0 {
		return nil, domainagg.Validation(op, "target weight must be positive")
	}

	dbc := dbctx.Background(ctx)
	ids := make([]uuid.UUID, 0)
	for _, st := range r.Steps {
		for _, ing := range st.Ingredients {
			ids = append(ids, ing.IngredientID)
		}
	}
	ingredients, err := s.deps.Catalog.IngredientsByIDs(dbc, ids)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	categories, err := s.deps.Catalog.ListCategories(dbc)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	byIngredient := make(map[uuid.UUID]*types.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byIngredient[ing.ID] = ing
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	categoryOf := func(ingredientID uuid.UUID) uuid.UUID {
		if ing := byIngredient[ingredientID]; ing != nil {
			return ing.CategoryID
		}
		return uuid.Nil
	}

	scaled := bakerpct.ScaleFormula(r.Entries(categoryOf), *target)
	view := &FormulaView{
		RecipeID:     r.ID,
		Name:         r.Name,
		TargetWeight: scaled.TargetWeight,
		FlourWeight:  scaled.FlourWeight,
		TotalWeight:  scaled.TotalWeight,
		Lines:        make([]FormulaLine, 0, len(scaled.Lines)),
	}
	water := 0.0
	i := 0
	for _, st := range r.Steps {
		for _, ing := range st.Ingredients {
			ln := scaled.Lines[i]
			i++
			line := FormulaLine{
				StepOrder:    st.Order,
				IngredientID: ing.IngredientID,
				Mode:         ln.Mode,
				Percentage:   ln.Percentage,
				Weight:       ln.Weight,
			}
			if meta := byIngredient[ing.IngredientID]; meta != nil {
				line.IngredientName = meta.Name
				line.CategoryName = categoryNames[meta.CategoryID]
			}
			if line.CategoryName == s.deps.LiquidCategoryName {
				water += ln.Weight
			}
			view.Lines = append(view.Lines, line)
		}
	}
	view.Hydration = bakerpct.Hydration(view.FlourWeight, water)
	return view, nil
}
