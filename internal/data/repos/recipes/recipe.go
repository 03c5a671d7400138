package recipes

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type RecipeRepo interface {
	// Create inserts the recipe with its full step graph.
	Create(dbc dbctx.Context, recipe *types.Recipe) error
	// GetByID returns the full graph regardless of owner or status; nil when absent.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error)
	// LockByID returns the top-level row, locked for update when supported.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error)
	// ListVisible returns ACTIVE recipes owned by ownerID plus ACTIVE predefined ones.
	ListVisible(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Recipe, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// ReplaceSteps deletes every step of recipeID and inserts steps in its place.
	ReplaceSteps(dbc dbctx.Context, recipeID uuid.UUID, steps []types.RecipeStep) error
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

func withSteps(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("step_order ASC") }).
		Preload("Steps.Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Steps.ParameterValues", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

func (r *recipeRepo) Create(dbc dbctx.Context, recipe *types.Recipe) error {
	if recipe == nil || recipe.ID == uuid.Nil {
		return fmt.Errorf("missing recipe id")
	}
	return dbc.DB(r.db).Create(recipe).Error
}

func (r *recipeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Recipe
	err := withSteps(dbc.DB(r.db)).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *recipeRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	q := dbc.DB(r.db)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Recipe
	err := q.Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *recipeRepo) ListVisible(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Recipe, error) {
	var out []*types.Recipe
	q := withSteps(dbc.DB(r.db)).Where("status = ?", recipes.StatusActive)
	if ownerID == uuid.Nil {
		q = q.Where("is_predefined = ?", true)
	} else {
		q = q.Where("owner_id = ? OR is_predefined = ?", ownerID, true)
	}
	if err := q.Order("is_predefined DESC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.Recipe{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *recipeRepo) ReplaceSteps(dbc dbctx.Context, recipeID uuid.UUID, steps []types.RecipeStep) error {
	if recipeID == uuid.Nil {
		return fmt.Errorf("missing recipe id")
	}
	db := dbc.DB(r.db)
	stepIDs := db.Model(&types.RecipeStep{}).Select("id").Where("recipe_id = ?", recipeID)
	if err := db.Where("recipe_step_id IN (?)", stepIDs).Delete(&types.RecipeStepIngredient{}).Error; err != nil {
		return err
	}
	if err := db.Where("recipe_step_id IN (?)", stepIDs).Delete(&types.RecipeStepParameterValue{}).Error; err != nil {
		return err
	}
	if err := db.Where("recipe_id = ?", recipeID).Delete(&types.RecipeStep{}).Error; err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}
	for i := range steps {
		steps[i].RecipeID = recipeID
	}
	return db.Create(&steps).Error
}
