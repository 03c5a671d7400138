package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FlourCategoryName is the ingredient category whose PERCENTAGE entries must total 100.
const FlourCategoryName = "Flour"

// LiquidCategoryName is the category counted as water when computing hydration.
const LiquidCategoryName = "Liquid"

type IngredientCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	SortOrder int       `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (IngredientCategory) TableName() string { return "ingredient_category" }

type Ingredient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CategoryID  uuid.UUID `gorm:"type:uuid;column:category_id;not null;index" json:"category_id"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Ingredient) TableName() string { return "ingredient" }

// StepParameter is a typed measurement a step can plan and record, e.g. duration.
type StepParameter struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	DataType    ParamType      `gorm:"column:data_type;not null" json:"data_type"`
	Unit        string         `gorm:"column:unit" json:"unit,omitempty"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Options     datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (StepParameter) TableName() string { return "step_parameter" }

func (p *StepParameter) OptionList() []string {
	if p == nil {
		return nil
	}
	return DecodeOptions(p.Options)
}

type StepTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	StepType    string    `gorm:"column:step_type;not null" json:"step_type"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (StepTemplate) TableName() string { return "step_template" }
