package seed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
)

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://breadlog.app/seed"))

// ID is the stable id of a seeded row. kind is "category", "ingredient",
// "parameter", "template" or "recipe".
func ID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+strings.TrimSpace(name)))
}

// Plan is a resolved seed file, ready to write.
type Plan struct {
	Categories  []*types.IngredientCategory
	Ingredients []*types.Ingredient
	Parameters  []*types.StepParameter
	Templates   []*types.StepTemplate
	Recipes     []*types.Recipe
}

// Build resolves every name reference in f and checks predefined recipes
// against the flour invariant. flourCategory names the flour category.
func Build(f *File, flourCategory string, now time.Time) (*Plan, error) {
	if f == nil {
		return &Plan{}, nil
	}
	p := &Plan{}
	categoryIDs := map[string]uuid.UUID{}
	for _, c := range f.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category: missing name")
		}
		if _, dup := categoryIDs[name]; dup {
			return nil, fmt.Errorf("category %q: duplicate", name)
		}
		id := ID("category", name)
		categoryIDs[name] = id
		p.Categories = append(p.Categories, &types.IngredientCategory{ID: id, Name: name, SortOrder: c.Order, CreatedAt: now, UpdatedAt: now})
	}

	ingredientIDs := map[string]uuid.UUID{}
	ingredientCategory := map[uuid.UUID]uuid.UUID{}
	for _, in := range f.Ingredients {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, fmt.Errorf("ingredient: missing name")
		}
		if _, dup := ingredientIDs[name]; dup {
			return nil, fmt.Errorf("ingredient %q: duplicate", name)
		}
		catID, ok := categoryIDs[strings.TrimSpace(in.Category)]
		if !ok {
			return nil, fmt.Errorf("ingredient %q: unknown category %q", name, in.Category)
		}
		id := ID("ingredient", name)
		ingredientIDs[name] = id
		ingredientCategory[id] = catID
		p.Ingredients = append(p.Ingredients, &types.Ingredient{ID: id, Name: name, CategoryID: catID, Description: in.Description, CreatedAt: now, UpdatedAt: now})
	}

	params := map[string]*types.StepParameter{}
	for _, ps := range f.Parameters {
		name := strings.TrimSpace(ps.Name)
		if name == "" {
			return nil, fmt.Errorf("parameter: missing name")
		}
		if _, dup := params[name]; dup {
			return nil, fmt.Errorf("parameter %q: duplicate", name)
		}
		typ, err := catalog.ParseParamType(ps.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		row := &types.StepParameter{ID: ID("parameter", name), Name: name, DataType: typ, Unit: ps.Unit, Description: ps.Description, CreatedAt: now, UpdatedAt: now}
		if len(ps.Options) > 0 {
			raw, err := json.Marshal(ps.Options)
			if err != nil {
				return nil, fmt.Errorf("parameter %q options: %w", name, err)
			}
			row.Options = datatypes.JSON(raw)
		}
		if typ == catalog.ParamSelect && len(ps.Options) == 0 {
			return nil, fmt.Errorf("parameter %q: SELECT needs options", name)
		}
		params[name] = row
		p.Parameters = append(p.Parameters, row)
	}

	templateIDs := map[string]uuid.UUID{}
	for _, ts := range f.Templates {
		name := strings.TrimSpace(ts.Name)
		if name == "" {
			return nil, fmt.Errorf("template: missing name")
		}
		if _, dup := templateIDs[name]; dup {
			return nil, fmt.Errorf("template %q: duplicate", name)
		}
		id := ID("template", name)
		templateIDs[name] = id
		p.Templates = append(p.Templates, &types.StepTemplate{ID: id, Name: name, StepType: ts.StepType, Description: ts.Description, CreatedAt: now, UpdatedAt: now})
	}

	flourID := categoryIDs[flourCategory]
	seen := map[string]bool{}
	for _, rs := range f.Recipes {
		name := strings.TrimSpace(rs.Name)
		if name == "" {
			return nil, fmt.Errorf("recipe: missing name")
		}
		if seen[name] {
			return nil, fmt.Errorf("recipe %q: duplicate", name)
		}
		seen[name] = true
		r, err := buildRecipe(rs, name, ingredientIDs, params, templateIDs, now)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", name, err)
		}
		if flourID != uuid.Nil {
			entries := r.Entries(func(id uuid.UUID) uuid.UUID { return ingredientCategory[id] })
			if hasFlourPercentage(entries, flourID) && !bakerpct.IsValidFlourPercentageTotal(entries, flourID) {
				return nil, fmt.Errorf("recipe %q: flour percentages total %.2f, want 100", name, bakerpct.TotalFlourWeight(entries, flourID))
			}
		}
		p.Recipes = append(p.Recipes, r)
	}
	return p, nil
}

func hasFlourPercentage(entries []bakerpct.Entry, flourID uuid.UUID) bool {
	for _, e := range entries {
		if e.CategoryID == flourID && e.Mode == bakerpct.ModePercentage {
			return true
		}
	}
	return false
}

func buildRecipe(
	rs RecipeSpec,
	name string,
	ingredientIDs map[string]uuid.UUID,
	params map[string]*types.StepParameter,
	templateIDs map[string]uuid.UUID,
	now time.Time,
) (*types.Recipe, error) {
	recipeID := ID("recipe", name)
	r := &types.Recipe{
		ID:           recipeID,
		OwnerID:      uuid.Nil,
		Name:         name,
		Notes:        rs.Notes,
		TotalWeight:  rs.TotalWeight,
		HydrationPct: rs.HydrationPct,
		SaltPct:      rs.SaltPct,
		Status:       recipes.StatusActive,
		IsPredefined: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	orders := map[int]bool{}
	for i, ss := range rs.Steps {
		tmplID, ok := templateIDs[strings.TrimSpace(ss.Template)]
		if !ok {
			return nil, fmt.Errorf("step %d: unknown template %q", i+1, ss.Template)
		}
		order := ss.Order
		if order <= 0 {
			order = i + 1
		}
		if orders[order] {
			return nil, fmt.Errorf("step %d: duplicate order %d", i+1, order)
		}
		orders[order] = true
		stepKey := fmt.Sprintf("%s/step:%d", name, order)
		step := types.RecipeStep{
			ID:             ID("recipe", stepKey),
			RecipeID:       recipeID,
			StepTemplateID: tmplID,
			Order:          order,
			Description:    ss.Description,
			Notes:          ss.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for j, is := range ss.Ingredients {
			ingID, ok := ingredientIDs[strings.TrimSpace(is.Ingredient)]
			if !ok {
				return nil, fmt.Errorf("step %d: unknown ingredient %q", order, is.Ingredient)
			}
			mode := bakerpct.ModePercentage
			if strings.TrimSpace(is.Mode) != "" {
				mode = bakerpct.Mode(strings.ToUpper(strings.TrimSpace(is.Mode)))
			}
			if !mode.Valid() {
				return nil, fmt.Errorf("step %d: ingredient %q: unknown mode %q", order, is.Ingredient, is.Mode)
			}
			if is.Amount < 0 {
				return nil, fmt.Errorf("step %d: ingredient %q: negative amount", order, is.Ingredient)
			}
			step.Ingredients = append(step.Ingredients, types.RecipeStepIngredient{
				ID:              ID("recipe", fmt.Sprintf("%s/ingredient:%d", stepKey, j+1)),
				RecipeStepID:    step.ID,
				IngredientID:    ingID,
				Position:        j + 1,
				Amount:          is.Amount,
				CalculationMode: mode,
				Preparation:     is.Preparation,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		for j, pv := range ss.Parameters {
			param, ok := params[strings.TrimSpace(pv.Parameter)]
			if !ok {
				return nil, fmt.Errorf("step %d: unknown parameter %q", order, pv.Parameter)
			}
			val, err := catalog.FromAny(param.DataType, pv.Value)
			if err == nil {
				err = val.CheckOptions(param.OptionList())
			}
			if err != nil {
				return nil, fmt.Errorf("step %d: parameter %q: %w", order, param.Name, err)
			}
			at := now.Add(time.Duration(j) * time.Microsecond)
			step.ParameterValues = append(step.ParameterValues, types.RecipeStepParameterValue{
				ID:           ID("recipe", fmt.Sprintf("%s/parameter:%d", stepKey, j+1)),
				RecipeStepID: step.ID,
				ParameterID:  param.ID,
				DataType:     param.DataType,
				Value:        val,
				Options:      param.Options,
				Notes:        pv.Notes,
				CreatedAt:    at,
				UpdatedAt:    at,
			})
		}
		r.Steps = append(r.Steps, step)
	}
	return r, nil
}
