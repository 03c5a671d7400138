package recipes

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

// Recipe is a baker's formula. Predefined recipes have no owner and are
// read-only templates.
type Recipe struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID    `gorm:"type:uuid;column:owner_id;not null;index" json:"owner_id"`
	Name         string       `gorm:"column:name;not null" json:"name"`
	Notes        string       `gorm:"column:notes" json:"notes,omitempty"`
	TotalWeight  *float64     `gorm:"column:total_weight" json:"total_weight,omitempty"`
	HydrationPct *float64     `gorm:"column:hydration_pct" json:"hydration_pct,omitempty"`
	SaltPct      *float64     `gorm:"column:salt_pct" json:"salt_pct,omitempty"`
	Status       Status       `gorm:"column:status;not null;index" json:"status"`
	IsPredefined bool         `gorm:"column:is_predefined;not null;index" json:"is_predefined"`
	Steps        []RecipeStep `gorm:"foreignKey:RecipeID" json:"steps,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (Recipe) TableName() string { return "recipe" }

func (r *Recipe) Active() bool { return r != nil && r.Status == StatusActive }

// VisibleTo reports whether ownerID may read (and bake) the recipe.
func (r *Recipe) VisibleTo(ownerID uuid.UUID) bool {
	if r == nil {
		return false
	}
	return r.IsPredefined || (ownerID != uuid.Nil && r.OwnerID == ownerID)
}

// MutableBy reports whether ownerID may edit or delete the recipe.
func (r *Recipe) MutableBy(ownerID uuid.UUID) bool {
	return r != nil && !r.IsPredefined && ownerID != uuid.Nil && r.OwnerID == ownerID
}

type RecipeStep struct {
	ID              uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID        uuid.UUID                  `gorm:"type:uuid;column:recipe_id;not null;uniqueIndex:idx_recipe_step_order" json:"recipe_id"`
	StepTemplateID  uuid.UUID                  `gorm:"type:uuid;column:step_template_id;not null" json:"step_template_id"`
	Order           int                        `gorm:"column:step_order;not null;uniqueIndex:idx_recipe_step_order" json:"order"`
	Description     string                     `gorm:"column:description" json:"description,omitempty"`
	Notes           string                     `gorm:"column:notes" json:"notes,omitempty"`
	Ingredients     []RecipeStepIngredient     `gorm:"foreignKey:RecipeStepID" json:"ingredients"`
	ParameterValues []RecipeStepParameterValue `gorm:"foreignKey:RecipeStepID" json:"parameter_values"`
	CreatedAt       time.Time                  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                  `gorm:"not null" json:"updated_at"`
}

func (RecipeStep) TableName() string { return "recipe_step" }

type RecipeStepIngredient struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeStepID    uuid.UUID     `gorm:"type:uuid;column:recipe_step_id;not null;index" json:"recipe_step_id"`
	IngredientID    uuid.UUID     `gorm:"type:uuid;column:ingredient_id;not null" json:"ingredient_id"`
	Position        int           `gorm:"column:position;not null" json:"position"`
	Amount          float64       `gorm:"column:amount;not null" json:"amount"`
	CalculationMode bakerpct.Mode `gorm:"column:calculation_mode;not null" json:"calculation_mode"`
	Preparation     string        `gorm:"column:preparation" json:"preparation,omitempty"`
	Notes           string        `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
}

func (RecipeStepIngredient) TableName() string { return "recipe_step_ingredient" }

type RecipeStepParameterValue struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeStepID uuid.UUID          `gorm:"type:uuid;column:recipe_step_id;not null;index" json:"recipe_step_id"`
	ParameterID  uuid.UUID          `gorm:"type:uuid;column:parameter_id;not null" json:"parameter_id"`
	DataType     catalog.ParamType  `gorm:"column:data_type;not null" json:"data_type"`
	Value        catalog.ParamValue `gorm:"column:value" json:"value"`
	Options      datatypes.JSON     `gorm:"column:options" json:"options,omitempty"`
	Notes        string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt    time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"not null" json:"updated_at"`
}

func (RecipeStepParameterValue) TableName() string { return "recipe_step_parameter_value" }

// Entries flattens every ingredient of the recipe, in step then position
// order, for the percentage engine. categoryOf resolves ingredient categories.
func (r *Recipe) Entries(categoryOf func(ingredientID uuid.UUID) uuid.UUID) []bakerpct.Entry {
	if r == nil {
		return nil
	}
	out := make([]bakerpct.Entry, 0)
	for _, st := range r.Steps {
		for _, ing := range st.Ingredients {
			out = append(out, bakerpct.Entry{
				Amount:     ing.Amount,
				CategoryID: categoryOf(ing.IngredientID),
				Mode:       ing.CalculationMode,
			})
		}
	}
	return out
}
