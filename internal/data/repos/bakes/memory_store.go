package bakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

// MemoryStore is an in-process Store. It also satisfies the aggregate
// TxRunner: InTx serializes writers and restores the previous state when the
// body fails.
type MemoryStore struct {
	txMu sync.Mutex

	mu    sync.Mutex
	bakes map[uuid.UUID]*types.Bake
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bakes: map[uuid.UUID]*types.Bake{}}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) (err error) {
	if fn == nil {
		return nil
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := make(map[uuid.UUID]*types.Bake, len(s.bakes))
	for id, b := range s.bakes {
		saved[id] = cloneBake(b)
	}
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.bakes = saved
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err = fn(dbctx.Context{Ctx: ctx}); err != nil {
		restore()
	}
	return err
}

func (s *MemoryStore) FindActiveByOwner(_ dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*types.Bake{}
	for _, b := range s.bakes {
		if b.OwnerID == ownerID && b.Status == baking.BakeActive {
			c := cloneBake(b)
			c.StepCount = len(c.Steps)
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) FindAllByOwner(_ dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*types.Bake{}
	for _, b := range s.bakes {
		if b.OwnerID == ownerID {
			c := cloneBake(b)
			c.StepCount = len(c.Steps)
			c.Steps = nil
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) FindByID(_ dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bakes[bakeID]
	if !ok || ownerID == uuid.Nil || b.OwnerID != ownerID {
		return nil, nil
	}
	c := cloneBake(b)
	c.StepCount = len(c.Steps)
	return c, nil
}

func (s *MemoryStore) LockByID(dbc dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error) {
	b, err := s.FindByID(dbc, ownerID, bakeID)
	if b != nil {
		b.Steps = nil
	}
	return b, err
}

func (s *MemoryStore) Create(_ dbctx.Context, bake *types.Bake) error {
	if bake == nil || bake.ID == uuid.Nil {
		return fmt.Errorf("missing bake id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bakes[bake.ID]; exists {
		return fmt.Errorf("duplicate key: bake %s already exists", bake.ID)
	}
	now := time.Now().UTC()
	c := cloneBake(bake)
	stampCreated(c, now)
	s.bakes[c.ID] = c
	return nil
}

func (s *MemoryStore) UpdateTopLevel(_ dbctx.Context, bakeID uuid.UUID, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bakes[bakeID]
	if !ok {
		return nil
	}
	next := *b
	updatedAt := time.Now().UTC()
	for k, v := range updates {
		var err error
		switch k {
		case "status":
			next.Status, err = asBakeStatus(v)
		case "finish_timestamp":
			next.FinishTimestamp, err = asTimePtr(v)
		case "rating":
			next.Rating, err = asIntPtr(v)
		case "notes":
			next.Notes, err = asString(v)
		case "updated_at":
			updatedAt, err = asTime(v)
		default:
			err = fmt.Errorf("memory store: unsupported bake column %q", k)
		}
		if err != nil {
			return err
		}
	}
	next.UpdatedAt = updatedAt
	*b = next
	return nil
}

func (s *MemoryStore) GetStep(_ dbctx.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.step(bakeID, stepID)
	if st == nil {
		return nil, nil
	}
	c := cloneStep(*st)
	return &c, nil
}

func (s *MemoryStore) UpdateStep(_ dbctx.Context, bakeID, stepID uuid.UUID, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.step(bakeID, stepID)
	if st == nil {
		return nil
	}
	next := *st
	updatedAt := time.Now().UTC()
	for k, v := range updates {
		var err error
		switch k {
		case "status":
			next.Status, err = asStepStatus(v)
		case "start_timestamp":
			next.StartTimestamp, err = asTimePtr(v)
		case "finish_timestamp":
			next.FinishTimestamp, err = asTimePtr(v)
		case "notes":
			next.Notes, err = asString(v)
		case "deviations":
			next.Deviations, err = asJSON(v)
		case "updated_at":
			updatedAt, err = asTime(v)
		default:
			err = fmt.Errorf("memory store: unsupported step column %q", k)
		}
		if err != nil {
			return err
		}
	}
	next.UpdatedAt = updatedAt
	*st = next
	return nil
}

func (s *MemoryStore) ListParameterValues(_ dbctx.Context, stepID uuid.UUID) ([]*types.BakeStepParameterValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*types.BakeStepParameterValue{}
	st := s.stepByID(stepID)
	if st == nil {
		return out, nil
	}
	for _, pv := range st.ParameterValues {
		c := pv
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) GetParameterValue(_ dbctx.Context, stepID, id uuid.UUID) (*types.BakeStepParameterValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pv := s.paramValue(stepID, id)
	if pv == nil {
		return nil, nil
	}
	c := *pv
	return &c, nil
}

func (s *MemoryStore) UpdateParameterValue(_ dbctx.Context, stepID, id uuid.UUID, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pv := s.paramValue(stepID, id)
	if pv == nil {
		return nil
	}
	next := *pv
	updatedAt := time.Now().UTC()
	for k, v := range updates {
		var err error
		switch k {
		case "planned_value":
			next.PlannedValue, err = asParamValue(v)
		case "actual_value":
			next.ActualValue, err = asParamValue(v)
		case "notes":
			next.Notes, err = asString(v)
		case "updated_at":
			updatedAt, err = asTime(v)
		default:
			err = fmt.Errorf("memory store: unsupported parameter value column %q", k)
		}
		if err != nil {
			return err
		}
	}
	next.UpdatedAt = updatedAt
	*pv = next
	return nil
}

func (s *MemoryStore) step(bakeID, stepID uuid.UUID) *types.BakeStep {
	b, ok := s.bakes[bakeID]
	if !ok {
		return nil
	}
	return b.StepByID(stepID)
}

func (s *MemoryStore) stepByID(stepID uuid.UUID) *types.BakeStep {
	for _, b := range s.bakes {
		if st := b.StepByID(stepID); st != nil {
			return st
		}
	}
	return nil
}

func (s *MemoryStore) paramValue(stepID, id uuid.UUID) *types.BakeStepParameterValue {
	st := s.stepByID(stepID)
	if st == nil {
		return nil
	}
	for i := range st.ParameterValues {
		if st.ParameterValues[i].ID == id {
			return &st.ParameterValues[i]
		}
	}
	return nil
}

func sortNewestFirst(out []*types.Bake) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTimestamp.Equal(out[j].StartTimestamp) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].StartTimestamp.After(out[j].StartTimestamp)
	})
}

// stampCreated fills foreign keys and any timestamps the caller left zero.
func stampCreated(b *types.Bake, now time.Time) {
	stamp(&b.CreatedAt, &b.UpdatedAt, now)
	for i := range b.Steps {
		st := &b.Steps[i]
		st.BakeID = b.ID
		stamp(&st.CreatedAt, &st.UpdatedAt, now)
		for j := range st.Ingredients {
			st.Ingredients[j].BakeStepID = st.ID
			stamp(&st.Ingredients[j].CreatedAt, &st.Ingredients[j].UpdatedAt, now)
		}
		for j := range st.ParameterValues {
			st.ParameterValues[j].BakeStepID = st.ID
			stamp(&st.ParameterValues[j].CreatedAt, &st.ParameterValues[j].UpdatedAt, now)
		}
	}
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}

func cloneBake(b *types.Bake) *types.Bake {
	if b == nil {
		return nil
	}
	c := *b
	c.FinishTimestamp = cloneTime(b.FinishTimestamp)
	c.Rating = cloneInt(b.Rating)
	c.RecipeTotalWeightSnapshot = cloneFloat(b.RecipeTotalWeightSnapshot)
	c.RecipeHydrationPctSnapshot = cloneFloat(b.RecipeHydrationPctSnapshot)
	c.RecipeSaltPctSnapshot = cloneFloat(b.RecipeSaltPctSnapshot)
	if b.Steps != nil {
		c.Steps = make([]types.BakeStep, len(b.Steps))
		for i, st := range b.Steps {
			c.Steps[i] = cloneStep(st)
		}
	}
	return &c
}

func cloneStep(st types.BakeStep) types.BakeStep {
	c := st
	c.StartTimestamp = cloneTime(st.StartTimestamp)
	c.FinishTimestamp = cloneTime(st.FinishTimestamp)
	if st.Deviations != nil {
		c.Deviations = append(datatypes.JSON(nil), st.Deviations...)
	}
	c.Ingredients = append([]types.BakeStepIngredient(nil), st.Ingredients...)
	c.ParameterValues = append([]types.BakeStepParameterValue(nil), st.ParameterValues...)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func asBakeStatus(v interface{}) (baking.BakeStatus, error) {
	switch x := v.(type) {
	case baking.BakeStatus:
		return x, nil
	case string:
		return baking.BakeStatus(x), nil
	}
	return "", fmt.Errorf("memory store: bad bake status %T", v)
}

func asStepStatus(v interface{}) (baking.StepStatus, error) {
	switch x := v.(type) {
	case baking.StepStatus:
		return x, nil
	case string:
		return baking.StepStatus(x), nil
	}
	return "", fmt.Errorf("memory store: bad step status %T", v)
}

func asTimePtr(v interface{}) (*time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &x, nil
	case *time.Time:
		return cloneTime(x), nil
	}
	return nil, fmt.Errorf("memory store: bad timestamp %T", v)
}

func asTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	}
	return time.Time{}, fmt.Errorf("memory store: want time.Time, got %T", v)
}

func asIntPtr(v interface{}) (*int, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		return &x, nil
	case *int:
		return cloneInt(x), nil
	}
	return nil, fmt.Errorf("memory store: bad int %T", v)
}

func asString(v interface{}) (string, error) {
	if x, ok := v.(string); ok {
		return x, nil
	}
	return "", fmt.Errorf("memory store: bad string %T", v)
}

func asJSON(v interface{}) (datatypes.JSON, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case datatypes.JSON:
		return append(datatypes.JSON(nil), x...), nil
	case []byte:
		return append(datatypes.JSON(nil), x...), nil
	}
	return nil, fmt.Errorf("memory store: bad json %T", v)
}

func asParamValue(v interface{}) (catalog.ParamValue, error) {
	switch x := v.(type) {
	case nil:
		return catalog.ParamValue{}, nil
	case catalog.ParamValue:
		return x, nil
	}
	return catalog.ParamValue{}, fmt.Errorf("memory store: bad parameter value %T", v)
}
