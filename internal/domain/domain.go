package domain

import (
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
)

type IngredientCategory = catalog.IngredientCategory
type Ingredient = catalog.Ingredient
type StepParameter = catalog.StepParameter
type StepTemplate = catalog.StepTemplate

type Recipe = recipes.Recipe
type RecipeStep = recipes.RecipeStep
type RecipeStepIngredient = recipes.RecipeStepIngredient
type RecipeStepParameterValue = recipes.RecipeStepParameterValue

type Bake = baking.Bake
type BakeStep = baking.BakeStep
type BakeStepIngredient = baking.BakeStepIngredient
type BakeStepParameterValue = baking.BakeStepParameterValue

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&IngredientCategory{},
		&Ingredient{},
		&StepParameter{},
		&StepTemplate{},

		&Recipe{},
		&RecipeStep{},
		&RecipeStepIngredient{},
		&RecipeStepParameterValue{},

		&Bake{},
		&BakeStep{},
		&BakeStepIngredient{},
		&BakeStepParameterValue{},
	}
}
