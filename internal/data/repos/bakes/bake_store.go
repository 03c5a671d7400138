package bakes

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type bakeStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBakeStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &bakeStore{db: db, log: baseLog.With("repo", "BakeStore")}
}

func (r *bakeStore) tx(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db)
}

func withStepGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("step_order ASC") }).
		Preload("Steps.Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Steps.ParameterValues", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

func (r *bakeStore) FindActiveByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id")
	}
	var out []*types.Bake
	if err := withStepGraph(r.tx(dbc)).
		Where("owner_id = ? AND status = ?", ownerID, baking.BakeActive).
		Order("start_timestamp DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	for _, b := range out {
		b.StepCount = len(b.Steps)
	}
	return out, nil
}

func (r *bakeStore) FindAllByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id")
	}
	var out []*types.Bake
	if err := r.tx(dbc).
		Where("owner_id = ?", ownerID).
		Order("start_timestamp DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	var counts []struct {
		BakeID uuid.UUID
		N      int
	}
	if err := r.tx(dbc).
		Model(&types.BakeStep{}).
		Select("bake_id, COUNT(*) AS n").
		Where("bake_id IN ?", ids).
		Group("bake_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byBake := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		byBake[c.BakeID] = c.N
	}
	for _, b := range out {
		b.StepCount = byBake[b.ID]
	}
	return out, nil
}

func (r *bakeStore) FindByID(dbc dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error) {
	if ownerID == uuid.Nil || bakeID == uuid.Nil {
		return nil, nil
	}
	var out types.Bake
	err := withStepGraph(r.tx(dbc)).
		Where("id = ? AND owner_id = ?", bakeID, ownerID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out.StepCount = len(out.Steps)
	return &out, nil
}

func (r *bakeStore) LockByID(dbc dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error) {
	if ownerID == uuid.Nil || bakeID == uuid.Nil {
		return nil, nil
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	q := r.tx(dbc)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Bake
	err := q.Where("id = ? AND owner_id = ?", bakeID, ownerID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bakeStore) Create(dbc dbctx.Context, bake *types.Bake) error {
	if bake == nil || bake.ID == uuid.Nil {
		return fmt.Errorf("missing bake id")
	}
	return r.tx(dbc).Create(bake).Error
}

func (r *bakeStore) UpdateTopLevel(dbc dbctx.Context, bakeID uuid.UUID, updates map[string]interface{}) error {
	if bakeID == uuid.Nil {
		return fmt.Errorf("missing bake id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.Bake{}).
		Where("id = ?", bakeID).
		Updates(updates).Error
}

func (r *bakeStore) GetStep(dbc dbctx.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error) {
	if bakeID == uuid.Nil || stepID == uuid.Nil {
		return nil, nil
	}
	var out types.BakeStep
	err := r.tx(dbc).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ParameterValues", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ? AND bake_id = ?", stepID, bakeID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bakeStore) UpdateStep(dbc dbctx.Context, bakeID, stepID uuid.UUID, updates map[string]interface{}) error {
	if bakeID == uuid.Nil || stepID == uuid.Nil {
		return fmt.Errorf("missing step id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.BakeStep{}).
		Where("id = ? AND bake_id = ?", stepID, bakeID).
		Updates(updates).Error
}

func (r *bakeStore) ListParameterValues(dbc dbctx.Context, stepID uuid.UUID) ([]*types.BakeStepParameterValue, error) {
	if stepID == uuid.Nil {
		return []*types.BakeStepParameterValue{}, nil
	}
	var out []*types.BakeStepParameterValue
	if err := r.tx(dbc).
		Where("bake_step_id = ?", stepID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bakeStore) GetParameterValue(dbc dbctx.Context, stepID, id uuid.UUID) (*types.BakeStepParameterValue, error) {
	if stepID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var out types.BakeStepParameterValue
	err := r.tx(dbc).
		Where("id = ? AND bake_step_id = ?", id, stepID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bakeStore) UpdateParameterValue(dbc dbctx.Context, stepID, id uuid.UUID, updates map[string]interface{}) error {
	if stepID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("missing parameter value id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.BakeStepParameterValue{}).
		Where("id = ? AND bake_step_id = ?", id, stepID).
		Updates(updates).Error
}
