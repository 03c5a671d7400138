package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogrepo "github.com/yungbote/breadlog-backend/internal/data/repos/catalog"
	reciperepo "github.com/yungbote/breadlog-backend/internal/data/repos/recipes"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type RecipeAggregateDeps struct {
	Base BaseDeps

	Recipes reciperepo.RecipeRepo
	Catalog catalogrepo.CatalogRepo

	// FlourCategoryName defaults to catalog.FlourCategoryName.
	FlourCategoryName string
	NewID             func() uuid.UUID
}

type recipeAggregate struct {
	deps RecipeAggregateDeps
	log  *logger.Logger
}

func NewRecipeAggregate(deps RecipeAggregateDeps) domainagg.RecipeAggregate {
	deps.Base = deps.Base.withDefaults()
	if strings.TrimSpace(deps.FlourCategoryName) == "" {
		deps.FlourCategoryName = catalog.FlourCategoryName
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	return &recipeAggregate{deps: deps, log: deps.Base.Log.With("aggregate", "RecipeAggregate")}
}

func (a *recipeAggregate) Contract() domainagg.Contract {
	return domainagg.RecipeAggregateContract
}

func (a *recipeAggregate) configured(op string) error {
	if a.deps.Recipes == nil || a.deps.Catalog == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "recipe aggregate repos not configured", nil)
	}
	return nil
}

func (a *recipeAggregate) CreateRecipe(ctx context.Context, in domainagg.RecipeInput) (*types.Recipe, error) {
	const op = "Recipes.Recipe.Create"
	if in.OwnerID == uuid.Nil {
		return nil, domainagg.Validation(op, "missing owner_id")
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var out *types.Recipe
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.Base.Now()
		recipe := &types.Recipe{
			ID:           a.deps.NewID(),
			OwnerID:      in.OwnerID,
			Status:       recipes.StatusActive,
			IsPredefined: false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := a.applyInput(dbc, recipe, in, now); err != nil {
			return err
		}
		if err := a.deps.Recipes.Create(dbc, recipe); err != nil {
			return err
		}
		var err error
		out, err = a.deps.Recipes.GetByID(dbc, recipe.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("recipe created", "recipe_id", out.ID, "owner_id", out.OwnerID)
	return out, nil
}

func (a *recipeAggregate) UpdateRecipe(ctx context.Context, in domainagg.UpdateRecipeInput) (*types.Recipe, error) {
	const op = "Recipes.Recipe.Update"
	ref := domainagg.RecipeRef{OwnerID: in.OwnerID, RecipeID: in.RecipeID}
	if err := validateRecipeRef(op, ref); err != nil {
		return nil, err
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var out *types.Recipe
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.lockMutable(dbc, op, ref)
		if err != nil {
			return err
		}
		now := a.deps.Base.Now()
		next := &types.Recipe{ID: current.ID}
		if err := a.applyInput(dbc, next, in.RecipeInput, now); err != nil {
			return err
		}
		if err := a.deps.Recipes.UpdateFields(dbc, current.ID, map[string]interface{}{
			"name":          next.Name,
			"notes":         next.Notes,
			"total_weight":  next.TotalWeight,
			"hydration_pct": next.HydrationPct,
			"salt_pct":      next.SaltPct,
		}); err != nil {
			return err
		}
		if err := a.deps.Recipes.ReplaceSteps(dbc, current.ID, next.Steps); err != nil {
			return err
		}
		out, err = a.deps.Recipes.GetByID(dbc, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecipe is a soft delete; bakes keep their snapshots.
func (a *recipeAggregate) DeleteRecipe(ctx context.Context, ref domainagg.RecipeRef) error {
	const op = "Recipes.Recipe.Delete"
	if err := validateRecipeRef(op, ref); err != nil {
		return err
	}
	if err := a.configured(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.lockMutable(dbc, op, ref)
		if err != nil {
			return err
		}
		return a.deps.Recipes.UpdateFields(dbc, current.ID, map[string]interface{}{
			"status": recipes.StatusDeleted,
		})
	})
}

func (a *recipeAggregate) CloneRecipe(ctx context.Context, ref domainagg.RecipeRef) (*types.Recipe, error) {
	const op = "Recipes.Recipe.Clone"
	if err := validateRecipeRef(op, ref); err != nil {
		return nil, err
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var out *types.Recipe
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.deps.Recipes.GetByID(dbc, ref.RecipeID)
		if err != nil {
			return err
		}
		if src == nil || !src.Active() || !src.VisibleTo(ref.OwnerID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("recipe not found: %s", ref.RecipeID), nil)
		}
		if !src.IsPredefined {
			return InvalidStateError("only predefined recipes can be cloned")
		}
		clone := cloneRecipe(src, ref.OwnerID, a.deps.Base.Now(), a.deps.NewID)
		if err := a.deps.Recipes.Create(dbc, clone); err != nil {
			return err
		}
		out, err = a.deps.Recipes.GetByID(dbc, clone.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("recipe cloned", "recipe_id", out.ID, "source_id", ref.RecipeID, "owner_id", ref.OwnerID)
	return out, nil
}

// lockMutable returns the recipe when ref.OwnerID may change it. Foreign,
// deleted and missing recipes are not found; templates are read-only.
func (a *recipeAggregate) lockMutable(dbc dbctx.Context, op string, ref domainagg.RecipeRef) (*types.Recipe, error) {
	current, err := a.deps.Recipes.LockByID(dbc, ref.RecipeID)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.Active() || !current.VisibleTo(ref.OwnerID) {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("recipe not found: %s", ref.RecipeID), nil)
	}
	if !current.MutableBy(ref.OwnerID) {
		return nil, InvalidStateError("predefined recipes are read-only")
	}
	return current, nil
}

// applyInput validates in against the catalog and writes it onto recipe,
// including a freshly built step graph.
func (a *recipeAggregate) applyInput(dbc dbctx.Context, recipe *types.Recipe, in domainagg.RecipeInput, now time.Time) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ValidationError("name is required")
	}
	for label, v := range map[string]*float64{"total_weight": in.TotalWeight, "hydration_pct": in.HydrationPct, "salt_pct": in.SaltPct} {
		if v != nil && *v < 0 {
			return ValidationError(label + " must not be negative")
		}
	}

	ref, err := a.loadReferences(dbc, in.Steps)
	if err != nil {
		return err
	}
	steps, err := a.buildSteps(recipe.ID, in.Steps, ref, now)
	if err != nil {
		return err
	}

	recipe.Name = name
	recipe.Notes = in.Notes
	recipe.TotalWeight = copyFloat(in.TotalWeight)
	recipe.HydrationPct = copyFloat(in.HydrationPct)
	recipe.SaltPct = copyFloat(in.SaltPct)
	recipe.Steps = steps

	return a.checkFlourTotal(dbc, recipe, ref)
}

type recipeReferences struct {
	ingredients map[uuid.UUID]*types.Ingredient
	parameters  map[uuid.UUID]*types.StepParameter
	templates   map[uuid.UUID]*types.StepTemplate
}

func (a *recipeAggregate) loadReferences(dbc dbctx.Context, steps []domainagg.RecipeStepInput) (recipeReferences, error) {
	var ingIDs, paramIDs, tmplIDs []uuid.UUID
	for _, st := range steps {
		tmplIDs = append(tmplIDs, st.StepTemplateID)
		for _, ing := range st.Ingredients {
			ingIDs = append(ingIDs, ing.IngredientID)
		}
		for _, pv := range st.ParameterValues {
			paramIDs = append(paramIDs, pv.ParameterID)
		}
	}
	out := recipeReferences{
		ingredients: map[uuid.UUID]*types.Ingredient{},
		parameters:  map[uuid.UUID]*types.StepParameter{},
		templates:   map[uuid.UUID]*types.StepTemplate{},
	}
	ings, err := a.deps.Catalog.IngredientsByIDs(dbc, ingIDs)
	if err != nil {
		return out, err
	}
	for _, row := range ings {
		out.ingredients[row.ID] = row
	}
	params, err := a.deps.Catalog.ParametersByIDs(dbc, paramIDs)
	if err != nil {
		return out, err
	}
	for _, row := range params {
		out.parameters[row.ID] = row
	}
	tmpls, err := a.deps.Catalog.StepTemplatesByIDs(dbc, tmplIDs)
	if err != nil {
		return out, err
	}
	for _, row := range tmpls {
		out.templates[row.ID] = row
	}
	return out, nil
}

func (a *recipeAggregate) buildSteps(recipeID uuid.UUID, in []domainagg.RecipeStepInput, ref recipeReferences, now time.Time) ([]types.RecipeStep, error) {
	steps := make([]types.RecipeStep, 0, len(in))
	seenOrder := map[int]bool{}
	for i, st := range in {
		order := st.Order
		if order <= 0 {
			order = i + 1
		}
		if seenOrder[order] {
			return nil, ValidationError(fmt.Sprintf("duplicate step order %d", order))
		}
		seenOrder[order] = true
		if _, ok := ref.templates[st.StepTemplateID]; !ok {
			return nil, ValidationError(fmt.Sprintf("step %d: unknown step template %s", order, st.StepTemplateID))
		}

		step := types.RecipeStep{
			ID:             a.deps.NewID(),
			RecipeID:       recipeID,
			StepTemplateID: st.StepTemplateID,
			Order:          order,
			Description:    st.Description,
			Notes:          st.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		step.Ingredients = make([]types.RecipeStepIngredient, 0, len(st.Ingredients))
		for j, ing := range st.Ingredients {
			if _, ok := ref.ingredients[ing.IngredientID]; !ok {
				return nil, ValidationError(fmt.Sprintf("step %d: unknown ingredient %s", order, ing.IngredientID))
			}
			if !ing.CalculationMode.Valid() {
				return nil, ValidationError(fmt.Sprintf("step %d: invalid calculation mode %q", order, ing.CalculationMode))
			}
			if ing.Amount < 0 {
				return nil, ValidationError(fmt.Sprintf("step %d: amount must not be negative", order))
			}
			step.Ingredients = append(step.Ingredients, types.RecipeStepIngredient{
				ID:              a.deps.NewID(),
				RecipeStepID:    step.ID,
				IngredientID:    ing.IngredientID,
				Position:        j + 1,
				Amount:          ing.Amount,
				CalculationMode: ing.CalculationMode,
				Preparation:     ing.Preparation,
				Notes:           ing.Notes,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		step.ParameterValues = make([]types.RecipeStepParameterValue, 0, len(st.ParameterValues))
		for j, pv := range st.ParameterValues {
			param, ok := ref.parameters[pv.ParameterID]
			if !ok {
				return nil, ValidationError(fmt.Sprintf("step %d: unknown parameter %s", order, pv.ParameterID))
			}
			value, err := catalog.ParseWithOptions(param.DataType, param.OptionList(), pv.Value)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", order, err)
			}
			step.ParameterValues = append(step.ParameterValues, types.RecipeStepParameterValue{
				ID:           a.deps.NewID(),
				RecipeStepID: step.ID,
				ParameterID:  param.ID,
				DataType:     param.DataType,
				Value:        value,
				Options:      copyJSON(param.Options),
				Notes:        pv.Notes,
				CreatedAt:    now.Add(time.Duration(j) * time.Microsecond),
				UpdatedAt:    now,
			})
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// checkFlourTotal requires flour PERCENTAGE entries to total 100. A recipe
// without any is accepted.
func (a *recipeAggregate) checkFlourTotal(dbc dbctx.Context, recipe *types.Recipe, ref recipeReferences) error {
	flour, err := a.deps.Catalog.CategoryByName(dbc, a.deps.FlourCategoryName)
	if err != nil {
		return err
	}
	if flour == nil {
		a.log.Warn("flour category missing from catalog, skipping flour total check", "category", a.deps.FlourCategoryName)
		return nil
	}
	entries := recipe.Entries(func(ingredientID uuid.UUID) uuid.UUID {
		if ing, ok := ref.ingredients[ingredientID]; ok {
			return ing.CategoryID
		}
		return uuid.Nil
	})
	hasFlour := false
	for _, e := range entries {
		if e.CategoryID == flour.ID && e.Mode == bakerpct.ModePercentage {
			hasFlour = true
			break
		}
	}
	if !hasFlour {
		return nil
	}
	if !bakerpct.IsValidFlourPercentageTotal(entries, flour.ID) {
		return ValidationError(fmt.Sprintf("flour percentages must total 100, got %.2f", bakerpct.TotalFlourWeight(entries, flour.ID)))
	}
	return nil
}

func cloneRecipe(src *types.Recipe, ownerID uuid.UUID, now time.Time, newID func() uuid.UUID) *types.Recipe {
	out := &types.Recipe{
		ID:           newID(),
		OwnerID:      ownerID,
		Name:         src.Name + " (Clone)",
		Notes:        src.Notes,
		TotalWeight:  copyFloat(src.TotalWeight),
		HydrationPct: copyFloat(src.HydrationPct),
		SaltPct:      copyFloat(src.SaltPct),
		Status:       recipes.StatusActive,
		IsPredefined: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	out.Steps = make([]types.RecipeStep, 0, len(src.Steps))
	for _, st := range sortedRecipeSteps(src.Steps) {
		step := types.RecipeStep{
			ID:             newID(),
			RecipeID:       out.ID,
			StepTemplateID: st.StepTemplateID,
			Order:          st.Order,
			Description:    st.Description,
			Notes:          st.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, ing := range st.Ingredients {
			ing.ID = newID()
			ing.RecipeStepID = step.ID
			ing.CreatedAt, ing.UpdatedAt = now, now
			step.Ingredients = append(step.Ingredients, ing)
		}
		for j, pv := range st.ParameterValues {
			pv.ID = newID()
			pv.RecipeStepID = step.ID
			pv.Options = copyJSON(pv.Options)
			pv.CreatedAt, pv.UpdatedAt = now.Add(time.Duration(j)*time.Microsecond), now
			step.ParameterValues = append(step.ParameterValues, pv)
		}
		out.Steps = append(out.Steps, step)
	}
	return out
}

func validateRecipeRef(op string, ref domainagg.RecipeRef) error {
	if ref.OwnerID == uuid.Nil {
		return domainagg.Validation(op, "missing owner_id")
	}
	if ref.RecipeID == uuid.Nil {
		return domainagg.Validation(op, "missing recipe_id")
	}
	return nil
}
