package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

// CatalogRepo reads the seeded reference data. Writes only happen through
// the Upsert* methods used by the seeder.
type CatalogRepo interface {
	ListCategories(dbc dbctx.Context) ([]*types.IngredientCategory, error)
	CategoryByName(dbc dbctx.Context, name string) (*types.IngredientCategory, error)
	ListIngredients(dbc dbctx.Context) ([]*types.Ingredient, error)
	IngredientsByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Ingredient, error)
	ListParameters(dbc dbctx.Context) ([]*types.StepParameter, error)
	ParametersByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StepParameter, error)
	ListStepTemplates(dbc dbctx.Context) ([]*types.StepTemplate, error)
	StepTemplatesByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StepTemplate, error)

	UpsertCategories(dbc dbctx.Context, rows []*types.IngredientCategory) error
	UpsertIngredients(dbc dbctx.Context, rows []*types.Ingredient) error
	UpsertParameters(dbc dbctx.Context, rows []*types.StepParameter) error
	UpsertStepTemplates(dbc dbctx.Context, rows []*types.StepTemplate) error
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

func (r *catalogRepo) ListCategories(dbc dbctx.Context) ([]*types.IngredientCategory, error) {
	var out []*types.IngredientCategory
	if err := dbc.DB(r.db).Order("sort_order ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) CategoryByName(dbc dbctx.Context, name string) (*types.IngredientCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing category name")
	}
	var out types.IngredientCategory
	err := dbc.DB(r.db).Where("name = ?", name).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepo) ListIngredients(dbc dbctx.Context) ([]*types.Ingredient, error) {
	var out []*types.Ingredient
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) IngredientsByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Ingredient, error) {
	if len(ids) == 0 {
		return []*types.Ingredient{}, nil
	}
	var out []*types.Ingredient
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListParameters(dbc dbctx.Context) ([]*types.StepParameter, error) {
	var out []*types.StepParameter
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ParametersByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StepParameter, error) {
	if len(ids) == 0 {
		return []*types.StepParameter{}, nil
	}
	var out []*types.StepParameter
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListStepTemplates(dbc dbctx.Context) ([]*types.StepTemplate, error) {
	var out []*types.StepTemplate
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) StepTemplatesByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StepTemplate, error) {
	if len(ids) == 0 {
		return []*types.StepTemplate{}, nil
	}
	var out []*types.StepTemplate
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) UpsertCategories(dbc dbctx.Context, rows []*types.IngredientCategory) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.CreatedAt, row.UpdatedAt = now, now
	}
	return r.upsert(dbc, &rows, "name", "sort_order")
}

func (r *catalogRepo) UpsertIngredients(dbc dbctx.Context, rows []*types.Ingredient) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.CreatedAt, row.UpdatedAt = now, now
	}
	return r.upsert(dbc, &rows, "name", "category_id", "description")
}

func (r *catalogRepo) UpsertParameters(dbc dbctx.Context, rows []*types.StepParameter) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.CreatedAt, row.UpdatedAt = now, now
	}
	return r.upsert(dbc, &rows, "name", "data_type", "unit", "description", "options")
}

func (r *catalogRepo) UpsertStepTemplates(dbc dbctx.Context, rows []*types.StepTemplate) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.CreatedAt, row.UpdatedAt = now, now
	}
	return r.upsert(dbc, &rows, "name", "step_type", "description")
}

// upsert inserts rows keyed by id and refreshes the given columns on conflict.
func (r *catalogRepo) upsert(dbc dbctx.Context, rows interface{}, columns ...string) error {
	columns = append(columns, "updated_at")
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(rows).Error
}
