package baking

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"gorm.io/datatypes"
)

type BakeStatus string

const (
	BakeActive    BakeStatus = "ACTIVE"
	BakeCompleted BakeStatus = "COMPLETED"
	BakeCancelled BakeStatus = "CANCELLED"
)

// Bake is one execution of a recipe. Everything below it is a snapshot taken
// when the bake started; RecipeID is provenance only.
type Bake struct {
	ID                         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID                   uuid.UUID  `gorm:"type:uuid;column:recipe_id;not null;index" json:"recipe_id"`
	RecipeName                 string     `gorm:"column:recipe_name;not null" json:"recipe_name"`
	OwnerID                    uuid.UUID  `gorm:"type:uuid;column:owner_id;not null;index" json:"owner_id"`
	Status                     BakeStatus `gorm:"column:status;not null;index" json:"status"`
	StartTimestamp             time.Time  `gorm:"column:start_timestamp;not null" json:"start_timestamp"`
	FinishTimestamp            *time.Time `gorm:"column:finish_timestamp" json:"finish_timestamp,omitempty"`
	Rating                     *int       `gorm:"column:rating" json:"rating"`
	Notes                      string     `gorm:"column:notes" json:"notes"`
	RecipeTotalWeightSnapshot  *float64   `gorm:"column:recipe_total_weight_snapshot" json:"recipe_total_weight_snapshot,omitempty"`
	RecipeHydrationPctSnapshot *float64   `gorm:"column:recipe_hydration_pct_snapshot" json:"recipe_hydration_pct_snapshot,omitempty"`
	RecipeSaltPctSnapshot      *float64   `gorm:"column:recipe_salt_pct_snapshot" json:"recipe_salt_pct_snapshot,omitempty"`
	Steps                      []BakeStep `gorm:"foreignKey:BakeID" json:"steps,omitempty"`
	StepCount                  int        `gorm:"-" json:"step_count"`
	CreatedAt                  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt                  time.Time  `gorm:"not null" json:"updated_at"`
}

func (Bake) TableName() string { return "bake" }

func (b *Bake) Active() bool { return b != nil && b.Status == BakeActive }

// StepByID returns the snapshotted step with id, or nil.
func (b *Bake) StepByID(id uuid.UUID) *BakeStep {
	if b == nil {
		return nil
	}
	for i := range b.Steps {
		if b.Steps[i].ID == id {
			return &b.Steps[i]
		}
	}
	return nil
}

type BakeStep struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	BakeID          uuid.UUID                `gorm:"type:uuid;column:bake_id;not null;index" json:"bake_id"`
	RecipeStepID    uuid.UUID                `gorm:"type:uuid;column:recipe_step_id;not null" json:"recipe_step_id"`
	StepTemplateID  uuid.UUID                `gorm:"type:uuid;column:step_template_id;not null" json:"step_template_id"`
	Order           int                      `gorm:"column:step_order;not null" json:"order"`
	Description     string                   `gorm:"column:description" json:"description,omitempty"`
	Status          StepStatus               `gorm:"column:status;not null" json:"status"`
	StartTimestamp  *time.Time               `gorm:"column:start_timestamp" json:"start_timestamp,omitempty"`
	FinishTimestamp *time.Time               `gorm:"column:finish_timestamp" json:"finish_timestamp,omitempty"`
	PlannedNotes    string                   `gorm:"column:planned_notes" json:"planned_notes,omitempty"`
	Deviations      datatypes.JSON           `gorm:"column:deviations" json:"deviations,omitempty"`
	Notes           string                   `gorm:"column:notes" json:"notes"`
	Ingredients     []BakeStepIngredient     `gorm:"foreignKey:BakeStepID" json:"ingredients"`
	ParameterValues []BakeStepParameterValue `gorm:"foreignKey:BakeStepID" json:"parameter_values"`
	CreatedAt       time.Time                `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                `gorm:"not null" json:"updated_at"`
}

func (BakeStep) TableName() string { return "bake_step" }

type BakeStepIngredient struct {
	ID                     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	BakeStepID             uuid.UUID     `gorm:"type:uuid;column:bake_step_id;not null;index" json:"bake_step_id"`
	IngredientID           uuid.UUID     `gorm:"type:uuid;column:ingredient_id;not null" json:"ingredient_id"`
	Position               int           `gorm:"column:position;not null" json:"position"`
	PlannedPercentage      float64       `gorm:"column:planned_percentage;not null" json:"planned_percentage"`
	PlannedCalculationMode bakerpct.Mode `gorm:"column:planned_calculation_mode;not null" json:"planned_calculation_mode"`
	PlannedPreparation     string        `gorm:"column:planned_preparation" json:"planned_preparation,omitempty"`
	Notes                  string        `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt              time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"not null" json:"updated_at"`
}

func (BakeStepIngredient) TableName() string { return "bake_step_ingredient" }

type BakeStepParameterValue struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	BakeStepID   uuid.UUID          `gorm:"type:uuid;column:bake_step_id;not null;index" json:"bake_step_id"`
	ParameterID  uuid.UUID          `gorm:"type:uuid;column:parameter_id;not null" json:"parameter_id"`
	DataType     catalog.ParamType  `gorm:"column:data_type;not null" json:"data_type"`
	PlannedValue catalog.ParamValue `gorm:"column:planned_value" json:"planned_value"`
	ActualValue  catalog.ParamValue `gorm:"column:actual_value" json:"actual_value"`
	Options      datatypes.JSON     `gorm:"column:options" json:"options,omitempty"`
	Notes        string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt    time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"not null" json:"updated_at"`
}

func (BakeStepParameterValue) TableName() string { return "bake_step_parameter_value" }
