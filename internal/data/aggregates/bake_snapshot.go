package aggregates

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
)

type SnapshotOptions struct {
	OwnerID uuid.UUID
	Notes   *string
	Now     time.Time
	// NewID defaults to uuid.New.
	NewID func() uuid.UUID
}

// DefaultBakeNotes is used when a bake starts without notes.
func DefaultBakeNotes(recipeName string) string {
	return "Bake of " + recipeName
}

// BuildSnapshot freezes recipe into a new ACTIVE bake graph. Every value is
// copied; nothing in the result aliases recipe memory. Flour totals are not
// re-validated here.
func BuildSnapshot(recipe *types.Recipe, opts SnapshotOptions) *types.Bake {
	if recipe == nil {
		return nil
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.New
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	notes := DefaultBakeNotes(recipe.Name)
	if opts.Notes != nil && strings.TrimSpace(*opts.Notes) != "" {
		notes = *opts.Notes
	}

	bake := &types.Bake{
		ID:                         newID(),
		RecipeID:                   recipe.ID,
		RecipeName:                 recipe.Name,
		OwnerID:                    opts.OwnerID,
		Status:                     baking.BakeActive,
		StartTimestamp:             now,
		Notes:                      notes,
		RecipeTotalWeightSnapshot:  copyFloat(recipe.TotalWeight),
		RecipeHydrationPctSnapshot: copyFloat(recipe.HydrationPct),
		RecipeSaltPctSnapshot:      copyFloat(recipe.SaltPct),
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	steps := sortedRecipeSteps(recipe.Steps)
	bake.Steps = make([]types.BakeStep, 0, len(steps))
	for _, rs := range steps {
		step := types.BakeStep{
			ID:             newID(),
			BakeID:         bake.ID,
			RecipeStepID:   rs.ID,
			StepTemplateID: rs.StepTemplateID,
			Order:          rs.Order,
			Description:    rs.Description,
			Status:         baking.StepPending,
			PlannedNotes:   rs.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		step.Ingredients = make([]types.BakeStepIngredient, 0, len(rs.Ingredients))
		for i, ing := range rs.Ingredients {
			pos := ing.Position
			if pos == 0 {
				pos = i + 1
			}
			step.Ingredients = append(step.Ingredients, types.BakeStepIngredient{
				ID:                     newID(),
				BakeStepID:             step.ID,
				IngredientID:           ing.IngredientID,
				Position:               pos,
				PlannedPercentage:      ing.Amount,
				PlannedCalculationMode: ing.CalculationMode,
				PlannedPreparation:     ing.Preparation,
				Notes:                  ing.Notes,
				CreatedAt:              now,
				UpdatedAt:              now,
			})
		}
		step.ParameterValues = make([]types.BakeStepParameterValue, 0, len(rs.ParameterValues))
		for i, pv := range rs.ParameterValues {
			step.ParameterValues = append(step.ParameterValues, types.BakeStepParameterValue{
				ID:           newID(),
				BakeStepID:   step.ID,
				ParameterID:  pv.ParameterID,
				DataType:     pv.DataType,
				PlannedValue: pv.Value,
				Options:      copyJSON(pv.Options),
				Notes:        pv.Notes,
				// keeps the recipe order stable under created_at ordering
				CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
				UpdatedAt: now,
			})
		}
		bake.Steps = append(bake.Steps, step)
	}
	return bake
}

func sortedRecipeSteps(in []types.RecipeStep) []types.RecipeStep {
	out := make([]types.RecipeStep, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func copyJSON(raw datatypes.JSON) datatypes.JSON {
	if raw == nil {
		return nil
	}
	return append(datatypes.JSON(nil), raw...)
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
