package aggregates

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
)

var RecipeAggregateContract = Contract{
	Name:             "Recipes.RecipeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns recipe step graphs, the flour percentage total, and template read-only rules.",
}

// RecipeAggregate owns recipe definition invariants. Predefined recipes are
// never mutated; they can only be cloned into an owned recipe.
type RecipeAggregate interface {
	Aggregate

	CreateRecipe(ctx context.Context, in RecipeInput) (*recipes.Recipe, error)
	// UpdateRecipe replaces the recipe fields and its whole step list.
	UpdateRecipe(ctx context.Context, in UpdateRecipeInput) (*recipes.Recipe, error)
	// DeleteRecipe marks an owned recipe DELETED. Existing bakes are unaffected.
	DeleteRecipe(ctx context.Context, ref RecipeRef) error
	// CloneRecipe copies an active predefined recipe into a new owned recipe.
	CloneRecipe(ctx context.Context, ref RecipeRef) (*recipes.Recipe, error)
}

type RecipeRef struct {
	OwnerID  uuid.UUID
	RecipeID uuid.UUID
}

type RecipeInput struct {
	OwnerID      uuid.UUID
	Name         string
	Notes        string
	TotalWeight  *float64
	HydrationPct *float64
	SaltPct      *float64
	Steps        []RecipeStepInput
}

type UpdateRecipeInput struct {
	RecipeInput
	RecipeID uuid.UUID
}

type RecipeStepInput struct {
	StepTemplateID  uuid.UUID
	Order           int
	Description     string
	Notes           string
	Ingredients     []RecipeIngredientInput
	ParameterValues []RecipeParameterValueInput
}

type RecipeIngredientInput struct {
	IngredientID    uuid.UUID
	Amount          float64
	CalculationMode bakerpct.Mode
	Preparation     string
	Notes           string
}

type RecipeParameterValueInput struct {
	ParameterID uuid.UUID
	Value       json.RawMessage
	Notes       string
}
