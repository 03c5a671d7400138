package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Catalog is a minimal reference data set: two flours, water, salt, four
// step parameters and two step templates.
type Catalog struct {
	Flour  *types.IngredientCategory
	Liquid *types.IngredientCategory
	Salt   *types.IngredientCategory

	BreadFlour *types.Ingredient
	WholeWheat *types.Ingredient
	Water      *types.Ingredient
	SeaSalt    *types.Ingredient

	Duration    *types.StepParameter
	Temperature *types.StepParameter
	Notes       *types.StepParameter
	Shape       *types.StepParameter

	Mix  *types.StepTemplate
	Bulk *types.StepTemplate
}

func NewCatalog() *Catalog {
	now := time.Now().UTC()
	c := &Catalog{
		Flour:  &types.IngredientCategory{ID: uuid.New(), Name: "Flour " + uuid.NewString()[:8], SortOrder: 1, CreatedAt: now, UpdatedAt: now},
		Liquid: &types.IngredientCategory{ID: uuid.New(), Name: "Liquid " + uuid.NewString()[:8], SortOrder: 2, CreatedAt: now, UpdatedAt: now},
		Salt:   &types.IngredientCategory{ID: uuid.New(), Name: "Salt " + uuid.NewString()[:8], SortOrder: 3, CreatedAt: now, UpdatedAt: now},
	}
	c.BreadFlour = &types.Ingredient{ID: uuid.New(), Name: "Bread Flour " + uuid.NewString()[:8], CategoryID: c.Flour.ID, CreatedAt: now, UpdatedAt: now}
	c.WholeWheat = &types.Ingredient{ID: uuid.New(), Name: "Whole Wheat " + uuid.NewString()[:8], CategoryID: c.Flour.ID, CreatedAt: now, UpdatedAt: now}
	c.Water = &types.Ingredient{ID: uuid.New(), Name: "Water " + uuid.NewString()[:8], CategoryID: c.Liquid.ID, CreatedAt: now, UpdatedAt: now}
	c.SeaSalt = &types.Ingredient{ID: uuid.New(), Name: "Sea Salt " + uuid.NewString()[:8], CategoryID: c.Salt.ID, CreatedAt: now, UpdatedAt: now}
	c.Duration = &types.StepParameter{ID: uuid.New(), Name: "Duration " + uuid.NewString()[:8], DataType: catalog.ParamNumber, Unit: "min", CreatedAt: now, UpdatedAt: now}
	c.Temperature = &types.StepParameter{ID: uuid.New(), Name: "Temperature " + uuid.NewString()[:8], DataType: catalog.ParamNumber, Unit: "C", CreatedAt: now, UpdatedAt: now}
	c.Notes = &types.StepParameter{ID: uuid.New(), Name: "Notes " + uuid.NewString()[:8], DataType: catalog.ParamText, CreatedAt: now, UpdatedAt: now}
	c.Shape = &types.StepParameter{ID: uuid.New(), Name: "Shape " + uuid.NewString()[:8], DataType: catalog.ParamSelect, Options: datatypes.JSON(`["Boule","Batard","Pan"]`), CreatedAt: now, UpdatedAt: now}
	c.Mix = &types.StepTemplate{ID: uuid.New(), Name: "Mix " + uuid.NewString()[:8], StepType: "Mixing", CreatedAt: now, UpdatedAt: now}
	c.Bulk = &types.StepTemplate{ID: uuid.New(), Name: "Bulk " + uuid.NewString()[:8], StepType: "Fermentation", CreatedAt: now, UpdatedAt: now}
	return c
}

// SeedCatalog inserts a fresh Catalog.
func SeedCatalog(tb testing.TB, ctx context.Context, tx *gorm.DB) *Catalog {
	tb.Helper()
	c := NewCatalog()
	rows := []interface{}{
		c.Flour, c.Liquid, c.Salt,
		c.BreadFlour, c.WholeWheat, c.Water, c.SeaSalt,
		c.Duration, c.Temperature, c.Notes, c.Shape,
		c.Mix, c.Bulk,
	}
	for _, row := range rows {
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed catalog: %v", err)
		}
	}
	return c
}

// NewRecipe builds an ACTIVE two-step recipe: mix (80% bread flour, 20% whole
// wheat, 75% water, duration 15) then bulk (duration 240, temperature 25).
func NewRecipe(c *Catalog, ownerID uuid.UUID, predefined bool) *types.Recipe {
	now := time.Now().UTC()
	total, hydration, salt := 950.0, 78.0, 2.2
	r := &types.Recipe{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         "Country Loaf",
		Notes:        "A versatile loaf.",
		TotalWeight:  &total,
		HydrationPct: &hydration,
		SaltPct:      &salt,
		Status:       recipes.StatusActive,
		IsPredefined: predefined,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mixID, bulkID := uuid.New(), uuid.New()
	r.Steps = []types.RecipeStep{
		{
			ID:             mixID,
			RecipeID:       r.ID,
			StepTemplateID: c.Mix.ID,
			Order:          1,
			Description:    "Mix until shaggy.",
			Ingredients: []types.RecipeStepIngredient{
				{ID: uuid.New(), RecipeStepID: mixID, IngredientID: c.BreadFlour.ID, Position: 1, Amount: 80, CalculationMode: bakerpct.ModePercentage},
				{ID: uuid.New(), RecipeStepID: mixID, IngredientID: c.WholeWheat.ID, Position: 2, Amount: 20, CalculationMode: bakerpct.ModePercentage, Preparation: "sifted"},
				{ID: uuid.New(), RecipeStepID: mixID, IngredientID: c.Water.ID, Position: 3, Amount: 75, CalculationMode: bakerpct.ModePercentage},
			},
			ParameterValues: []types.RecipeStepParameterValue{
				{ID: uuid.New(), RecipeStepID: mixID, ParameterID: c.Duration.ID, DataType: catalog.ParamNumber, Value: catalog.Number(15), CreatedAt: now, UpdatedAt: now},
			},
		},
		{
			ID:             bulkID,
			RecipeID:       r.ID,
			StepTemplateID: c.Bulk.ID,
			Order:          2,
			Description:    "Four sets of folds.",
			ParameterValues: []types.RecipeStepParameterValue{
				{ID: uuid.New(), RecipeStepID: bulkID, ParameterID: c.Duration.ID, DataType: catalog.ParamNumber, Value: catalog.Number(240), CreatedAt: now, UpdatedAt: now},
				{ID: uuid.New(), RecipeStepID: bulkID, ParameterID: c.Temperature.ID, DataType: catalog.ParamNumber, Value: catalog.Number(25), CreatedAt: now.Add(time.Millisecond), UpdatedAt: now},
			},
		},
	}
	return r
}

// SeedRecipe inserts NewRecipe.
func SeedRecipe(tb testing.TB, ctx context.Context, tx *gorm.DB, c *Catalog, ownerID uuid.UUID, predefined bool) *types.Recipe {
	tb.Helper()
	r := NewRecipe(c, ownerID, predefined)
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed recipe: %v", err)
	}
	return r
}
