package aggregates_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/breadlog-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/breadlog-backend/internal/data/repos/bakes"
	repotest "github.com/yungbote/breadlog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/domain/recipes"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

type fakeRecipes struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*types.Recipe
}

func (f *fakeRecipes) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeRecipes) add(r *types.Recipe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[r.ID] = r
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type bakeFixture struct {
	agg     domainagg.BakeAggregate
	store   *bakes.MemoryStore
	hooks   *aggtest.HooksRecorder
	recipes *fakeRecipes
	cat     *repotest.Catalog
	recipe  *types.Recipe
	owner   uuid.UUID
}

func newBakeFixture(t *testing.T, mutate func(*aggregates.BakeAggregateDeps)) *bakeFixture {
	t.Helper()
	f := &bakeFixture{
		store:   bakes.NewMemoryStore(),
		hooks:   &aggtest.HooksRecorder{},
		recipes: &fakeRecipes{byID: map[uuid.UUID]*types.Recipe{}},
		cat:     repotest.NewCatalog(),
		owner:   uuid.New(),
	}
	f.recipe = repotest.NewRecipe(f.cat, f.owner, false)
	f.recipes.add(f.recipe)

	clock := &stepClock{t: time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)}
	deps := aggregates.BakeAggregateDeps{
		Base: aggregates.BaseDeps{
			Runner: f.store,
			Hooks:  f.hooks,
			Now:    clock.Now,
		},
		Store:   f.store,
		Recipes: f.recipes,
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.agg = aggregates.NewBakeAggregate(deps)
	return f
}

func (f *bakeFixture) start(t *testing.T) *types.Bake {
	t.Helper()
	bake, err := f.agg.StartBake(context.Background(), domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: f.recipe.ID})
	if err != nil {
		t.Fatalf("StartBake: %v", err)
	}
	return bake
}

func (f *bakeFixture) stepRef(bake *types.Bake, i int) domainagg.StepRef {
	return domainagg.StepRef{OwnerID: f.owner, BakeID: bake.ID, StepID: bake.Steps[i].ID}
}

func (f *bakeFixture) reload(t *testing.T, bakeID uuid.UUID) *types.Bake {
	t.Helper()
	b, err := f.store.FindByID(dbctx.Background(context.Background()), f.owner, bakeID)
	if err != nil || b == nil {
		t.Fatalf("reload bake: b=%v err=%v", b, err)
	}
	return b
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("error code: want=%s got=%v", code, err)
	}
}

func TestStartBakeSnapshotsRecipe(t *testing.T) {
	f := newBakeFixture(t, nil)
	bake := f.start(t)

	if bake.Status != baking.BakeActive || !bake.Active() {
		t.Fatalf("status: want=ACTIVE got=%s", bake.Status)
	}
	if bake.Notes != "Bake of Country Loaf" {
		t.Fatalf("notes: want=%q got=%q", "Bake of Country Loaf", bake.Notes)
	}
	if bake.RecipeName != "Country Loaf" || bake.RecipeID != f.recipe.ID || bake.OwnerID != f.owner {
		t.Fatalf("provenance: %+v", bake)
	}
	if bake.FinishTimestamp != nil || bake.Rating != nil {
		t.Fatalf("fresh bake should have no finish/rating: %+v", bake)
	}
	if *bake.RecipeTotalWeightSnapshot != 950 || *bake.RecipeHydrationPctSnapshot != 78 || *bake.RecipeSaltPctSnapshot != 2.2 {
		t.Fatalf("numeric snapshot: %v %v %v", *bake.RecipeTotalWeightSnapshot, *bake.RecipeHydrationPctSnapshot, *bake.RecipeSaltPctSnapshot)
	}
	if len(bake.Steps) != 2 {
		t.Fatalf("steps: want=2 got=%d", len(bake.Steps))
	}
	for i, st := range bake.Steps {
		if st.Order != i+1 || st.Status != baking.StepPending {
			t.Fatalf("step %d: order=%d status=%s", i, st.Order, st.Status)
		}
		if st.RecipeStepID != f.recipe.Steps[i].ID || st.StepTemplateID != f.recipe.Steps[i].StepTemplateID {
			t.Fatalf("step %d provenance mismatch", i)
		}
		if st.StartTimestamp != nil || st.FinishTimestamp != nil {
			t.Fatalf("step %d should not be stamped", i)
		}
	}

	mix := bake.Steps[0]
	if len(mix.Ingredients) != 3 {
		t.Fatalf("mix ingredients: want=3 got=%d", len(mix.Ingredients))
	}
	wantPct := []float64{80, 20, 75}
	for i, ing := range mix.Ingredients {
		if ing.PlannedPercentage != wantPct[i] {
			t.Fatalf("ingredient %d pct: want=%v got=%v", i, wantPct[i], ing.PlannedPercentage)
		}
	}
	if mix.Ingredients[1].PlannedPreparation != "sifted" {
		t.Fatalf("preparation: want=sifted got=%q", mix.Ingredients[1].PlannedPreparation)
	}
	if len(mix.ParameterValues) != 1 || !mix.ParameterValues[0].PlannedValue.Equal(catalog.Number(15)) {
		t.Fatalf("mix planned values: %+v", mix.ParameterValues)
	}
	if !mix.ParameterValues[0].ActualValue.IsNull() {
		t.Fatalf("actual value should start null")
	}
	if len(bake.Steps[1].ParameterValues) != 2 {
		t.Fatalf("bulk planned values: want=2 got=%d", len(bake.Steps[1].ParameterValues))
	}
	if got := f.hooks.EventCount(aggregates.EventBakeStarted); got != 1 {
		t.Fatalf("bake.started events: want=1 got=%d", got)
	}
}

func TestStartBakeCustomNotes(t *testing.T) {
	f := newBakeFixture(t, nil)
	notes := "for the dinner party"
	bake, err := f.agg.StartBake(context.Background(), domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: f.recipe.ID, Notes: &notes})
	if err != nil {
		t.Fatalf("StartBake: %v", err)
	}
	if bake.Notes != notes {
		t.Fatalf("notes: want=%q got=%q", notes, bake.Notes)
	}
}

func TestStartBakeSnapshotIsImmutable(t *testing.T) {
	f := newBakeFixture(t, nil)
	bake := f.start(t)

	f.recipe.Name = "Renamed"
	*f.recipe.TotalWeight = 2000
	f.recipe.Steps[0].Ingredients[0].Amount = 50
	f.recipe.Steps[0].Ingredients[1].Preparation = "unsifted"
	f.recipe.Steps[0].ParameterValues[0].Value = catalog.Number(99)
	f.recipe.Steps = f.recipe.Steps[:1]
	f.recipe.Status = recipes.StatusDeleted

	got := f.reload(t, bake.ID)
	if got.RecipeName != "Country Loaf" {
		t.Fatalf("recipe name changed: %q", got.RecipeName)
	}
	if *got.RecipeTotalWeightSnapshot != 950 {
		t.Fatalf("total weight changed: %v", *got.RecipeTotalWeightSnapshot)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("steps changed: %d", len(got.Steps))
	}
	if got.Steps[0].Ingredients[0].PlannedPercentage != 80 || got.Steps[0].Ingredients[1].PlannedPreparation != "sifted" {
		t.Fatalf("ingredients changed: %+v", got.Steps[0].Ingredients)
	}
	if !got.Steps[0].ParameterValues[0].PlannedValue.Equal(catalog.Number(15)) {
		t.Fatalf("planned value changed: %v", got.Steps[0].ParameterValues[0].PlannedValue)
	}
	if !got.Active() {
		t.Fatalf("deleting the recipe must not end the bake")
	}
}

func TestStartBakeRecipeVisibility(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()

	_, err := f.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: uuid.New()})
	requireCode(t, err, domainagg.CodeNotFound)

	foreign := repotest.NewRecipe(f.cat, uuid.New(), false)
	f.recipes.add(foreign)
	_, err = f.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: foreign.ID})
	requireCode(t, err, domainagg.CodeNotFound)

	deleted := repotest.NewRecipe(f.cat, f.owner, false)
	deleted.Status = recipes.StatusDeleted
	f.recipes.add(deleted)
	_, err = f.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: deleted.ID})
	requireCode(t, err, domainagg.CodeNotFound)

	template := repotest.NewRecipe(f.cat, uuid.Nil, true)
	f.recipes.add(template)
	bake, err := f.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: template.ID})
	if err != nil {
		t.Fatalf("predefined recipes are bakeable by anyone: %v", err)
	}
	if bake.OwnerID != f.owner {
		t.Fatalf("owner: want=%s got=%s", f.owner, bake.OwnerID)
	}

	_, err = f.agg.StartBake(ctx, domainagg.StartBakeInput{RecipeID: f.recipe.ID})
	requireCode(t, err, domainagg.CodeValidation)

	if got := f.hooks.Statuses("Baking.Bake.Start"); len(got) != 4 || got[0] != "not_found" || got[3] != "success" {
		t.Fatalf("observed statuses: %+v", got)
	}
}

func TestTwoStepScenario(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)

	started, err := f.agg.StartStep(ctx, f.stepRef(bake, 0))
	if err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	if started.Status != baking.StepInProgress || started.StartTimestamp == nil {
		t.Fatalf("started step: status=%s start=%v", started.Status, started.StartTimestamp)
	}

	notes := "dough felt tacky"
	completed, err := f.agg.CompleteStep(ctx, domainagg.CompleteStepInput{
		StepRef:               f.stepRef(bake, 0),
		ActualParameterValues: map[uuid.UUID]json.RawMessage{f.cat.Duration.ID: json.RawMessage(`18`)},
		Notes:                 &notes,
		Deviations:            json.RawMessage(`{"water":"+10g"}`),
	})
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if completed.Status != baking.StepCompleted || completed.FinishTimestamp == nil {
		t.Fatalf("completed step: status=%s finish=%v", completed.Status, completed.FinishTimestamp)
	}
	if !completed.FinishTimestamp.After(*completed.StartTimestamp) {
		t.Fatalf("finish should follow start")
	}
	if completed.Notes != notes {
		t.Fatalf("notes: want=%q got=%q", notes, completed.Notes)
	}
	if string(completed.Deviations) != `{"water":"+10g"}` {
		t.Fatalf("deviations: got=%s", completed.Deviations)
	}
	pv := completed.ParameterValues[0]
	if !pv.ActualValue.Equal(catalog.Number(18)) || !pv.PlannedValue.Equal(catalog.Number(15)) {
		t.Fatalf("parameter value: planned=%v actual=%v", pv.PlannedValue, pv.ActualValue)
	}

	skipped, err := f.agg.SkipStep(ctx, f.stepRef(bake, 1))
	if err != nil {
		t.Fatalf("SkipStep: %v", err)
	}
	if skipped.Status != baking.StepSkipped || skipped.FinishTimestamp == nil {
		t.Fatalf("skipped step: status=%s", skipped.Status)
	}

	done, err := f.agg.CompleteBake(ctx, domainagg.BakeRef{OwnerID: f.owner, BakeID: bake.ID})
	if err != nil {
		t.Fatalf("CompleteBake: %v", err)
	}
	if done.Status != baking.BakeCompleted || done.FinishTimestamp == nil || done.Active() {
		t.Fatalf("completed bake: %+v", done)
	}
	if len(done.Steps) != 2 || done.Steps[0].Status != baking.StepCompleted || done.Steps[1].Status != baking.StepSkipped {
		t.Fatalf("final steps: %+v", done.Steps)
	}

	_, err = f.agg.StartStep(ctx, f.stepRef(bake, 1))
	requireCode(t, err, domainagg.CodeInvalidState)
	_, err = f.agg.UpdateStepNote(ctx, domainagg.UpdateStepNoteInput{StepRef: f.stepRef(bake, 0), Notes: "late"})
	requireCode(t, err, domainagg.CodeInvalidState)
	_, err = f.agg.CancelBake(ctx, domainagg.BakeRef{OwnerID: f.owner, BakeID: bake.ID})
	requireCode(t, err, domainagg.CodeInvalidState)

	for event, want := range map[string]int{
		aggregates.EventBakeStarted:   1,
		aggregates.EventStepStarted:   1,
		aggregates.EventStepCompleted: 1,
		aggregates.EventStepSkipped:   1,
		aggregates.EventBakeCompleted: 1,
		aggregates.EventBakeCancelled: 0,
	} {
		if got := f.hooks.EventCount(event); got != want {
			t.Fatalf("%s events: want=%d got=%d", event, want, got)
		}
	}
}

func TestStepStateMachineSafety(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)

	_, err := f.agg.FailStep(ctx, domainagg.FailStepInput{StepRef: f.stepRef(bake, 0), Reason: "too early"})
	requireCode(t, err, domainagg.CodeInvalidState)

	if _, err := f.agg.StartStep(ctx, f.stepRef(bake, 0)); err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	if _, err := f.agg.StartStep(ctx, f.stepRef(bake, 0)); err != nil {
		t.Fatalf("lenient restart should succeed: %v", err)
	}
	failed, err := f.agg.FailStep(ctx, domainagg.FailStepInput{StepRef: f.stepRef(bake, 0), Reason: "oven broke"})
	if err != nil {
		t.Fatalf("FailStep: %v", err)
	}
	if failed.Status != baking.StepFailed || failed.Notes != "Failed: oven broke" || failed.FinishTimestamp == nil {
		t.Fatalf("failed step: status=%s notes=%q", failed.Status, failed.Notes)
	}
	for name, call := range map[string]func() error{
		"start":    func() error { _, err := f.agg.StartStep(ctx, f.stepRef(bake, 0)); return err },
		"complete": func() error { _, err := f.agg.CompleteStep(ctx, domainagg.CompleteStepInput{StepRef: f.stepRef(bake, 0)}); return err },
		"skip":     func() error { _, err := f.agg.SkipStep(ctx, f.stepRef(bake, 0)); return err },
		"fail":     func() error { _, err := f.agg.FailStep(ctx, domainagg.FailStepInput{StepRef: f.stepRef(bake, 0)}); return err },
	} {
		if err := call(); !domainagg.IsCode(err, domainagg.CodeInvalidState) {
			t.Fatalf("%s on FAILED step: want invalid_state got=%v", name, err)
		}
	}

	_, err = f.agg.StartStep(ctx, domainagg.StepRef{OwnerID: f.owner, BakeID: bake.ID, StepID: uuid.New()})
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.agg.StartStep(ctx, domainagg.StepRef{OwnerID: uuid.New(), BakeID: bake.ID, StepID: bake.Steps[1].ID})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestStartStepStrictPolicy(t *testing.T) {
	f := newBakeFixture(t, func(d *aggregates.BakeAggregateDeps) { d.StartPolicy = baking.StartStrict })
	ctx := context.Background()
	bake := f.start(t)

	first, err := f.agg.StartStep(ctx, f.stepRef(bake, 0))
	if err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	_, err = f.agg.StartStep(ctx, f.stepRef(bake, 0))
	requireCode(t, err, domainagg.CodeInvalidState)

	got := f.reload(t, bake.ID).Steps[0]
	if !got.StartTimestamp.Equal(*first.StartTimestamp) {
		t.Fatalf("rejected restart must keep the start time: want=%v got=%v", first.StartTimestamp, got.StartTimestamp)
	}
}

func TestFailStepAppendsReason(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)

	if _, err := f.agg.UpdateStepNote(ctx, domainagg.UpdateStepNoteInput{StepRef: f.stepRef(bake, 1), Notes: "warm kitchen"}); err != nil {
		t.Fatalf("UpdateStepNote: %v", err)
	}
	if _, err := f.agg.StartStep(ctx, f.stepRef(bake, 1)); err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	failed, err := f.agg.FailStep(ctx, domainagg.FailStepInput{StepRef: f.stepRef(bake, 1), Reason: "overproofed"})
	if err != nil {
		t.Fatalf("FailStep: %v", err)
	}
	if want := "warm kitchen\nFailed: overproofed"; failed.Notes != want {
		t.Fatalf("notes: want=%q got=%q", want, failed.Notes)
	}
}

func TestRatingScenario(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)
	ref := domainagg.BakeRef{OwnerID: f.owner, BakeID: bake.ID}

	if _, err := f.agg.CompleteBake(ctx, ref); err != nil {
		t.Fatalf("CompleteBake: %v", err)
	}

	six := 6
	_, err := f.agg.UpdateBakeRating(ctx, domainagg.UpdateBakeRatingInput{BakeRef: ref, Rating: &six})
	requireCode(t, err, domainagg.CodeValidation)

	five := 5
	rated, err := f.agg.UpdateBakeRating(ctx, domainagg.UpdateBakeRatingInput{BakeRef: ref, Rating: &five})
	if err != nil {
		t.Fatalf("rate completed bake: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != 5 {
		t.Fatalf("rating: want=5 got=%v", rated.Rating)
	}

	cleared, err := f.agg.UpdateBakeRating(ctx, domainagg.UpdateBakeRatingInput{BakeRef: ref})
	if err != nil {
		t.Fatalf("clear rating: %v", err)
	}
	if cleared.Rating != nil {
		t.Fatalf("rating should be cleared, got=%d", *cleared.Rating)
	}

	noted, err := f.agg.UpdateBakeNotes(ctx, domainagg.UpdateBakeNotesInput{BakeRef: ref, Notes: "great crumb"})
	if err != nil {
		t.Fatalf("notes on completed bake: %v", err)
	}
	if noted.Notes != "great crumb" || noted.Status != baking.BakeCompleted {
		t.Fatalf("noted bake: notes=%q status=%s", noted.Notes, noted.Status)
	}
}

func TestCancelBake(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)

	_, err := f.agg.CancelBake(ctx, domainagg.BakeRef{OwnerID: uuid.New(), BakeID: bake.ID})
	requireCode(t, err, domainagg.CodeNotFound)

	cancelled, err := f.agg.CancelBake(ctx, domainagg.BakeRef{OwnerID: f.owner, BakeID: bake.ID})
	if err != nil {
		t.Fatalf("CancelBake: %v", err)
	}
	if cancelled.Status != baking.BakeCancelled || cancelled.FinishTimestamp == nil {
		t.Fatalf("cancelled bake: status=%s finish=%v", cancelled.Status, cancelled.FinishTimestamp)
	}
	_, err = f.agg.CompleteBake(ctx, domainagg.BakeRef{OwnerID: f.owner, BakeID: bake.ID})
	requireCode(t, err, domainagg.CodeInvalidState)
}

func TestCorrectionsAreIdempotent(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)
	bulk := f.stepRef(bake, 1)
	pvID := bake.Steps[1].ParameterValues[0].ID

	in := domainagg.UpdateStepNoteInput{StepRef: bulk, Notes: "shorter bulk"}
	a, err := f.agg.UpdateStepNote(ctx, in)
	if err != nil {
		t.Fatalf("UpdateStepNote: %v", err)
	}
	b, err := f.agg.UpdateStepNote(ctx, in)
	if err != nil {
		t.Fatalf("UpdateStepNote again: %v", err)
	}
	if a.Notes != b.Notes || a.Status != b.Status {
		t.Fatalf("step note not idempotent: %q/%s vs %q/%s", a.Notes, a.Status, b.Notes, b.Status)
	}

	dev := domainagg.UpdateStepDeviationsInput{StepRef: bulk, Deviations: json.RawMessage(`{"temp":"22C"}`)}
	d1, err := f.agg.UpdateStepDeviations(ctx, dev)
	if err != nil {
		t.Fatalf("UpdateStepDeviations: %v", err)
	}
	d2, err := f.agg.UpdateStepDeviations(ctx, dev)
	if err != nil {
		t.Fatalf("UpdateStepDeviations again: %v", err)
	}
	if string(d1.Deviations) != string(d2.Deviations) {
		t.Fatalf("deviations not idempotent: %s vs %s", d1.Deviations, d2.Deviations)
	}

	planned := domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: pvID, Value: json.RawMessage(`180`)}
	p1, err := f.agg.UpdatePlannedValue(ctx, planned)
	if err != nil {
		t.Fatalf("UpdatePlannedValue: %v", err)
	}
	p2, err := f.agg.UpdatePlannedValue(ctx, planned)
	if err != nil {
		t.Fatalf("UpdatePlannedValue again: %v", err)
	}
	if !p1.PlannedValue.Equal(catalog.Number(180)) || !p1.PlannedValue.Equal(p2.PlannedValue) {
		t.Fatalf("planned value: %v vs %v", p1.PlannedValue, p2.PlannedValue)
	}
	if !p2.ActualValue.IsNull() {
		t.Fatalf("planned correction must not touch the actual value")
	}

	note := "measured with probe"
	actual := domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: pvID, Value: json.RawMessage(`{"type":"NUMBER","value":200}`), Notes: &note}
	a1, err := f.agg.UpdateActualValue(ctx, actual)
	if err != nil {
		t.Fatalf("UpdateActualValue: %v", err)
	}
	a2, err := f.agg.UpdateActualValue(ctx, actual)
	if err != nil {
		t.Fatalf("UpdateActualValue again: %v", err)
	}
	if !a1.ActualValue.Equal(catalog.Number(200)) || !a1.ActualValue.Equal(a2.ActualValue) || a2.Notes != note {
		t.Fatalf("actual value: %v vs %v notes=%q", a1.ActualValue, a2.ActualValue, a2.Notes)
	}
	if !a2.PlannedValue.Equal(catalog.Number(180)) {
		t.Fatalf("actual correction must not touch the planned value: %v", a2.PlannedValue)
	}

	cleared, err := f.agg.UpdateActualValue(ctx, domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: pvID, Value: json.RawMessage(`null`)})
	if err != nil {
		t.Fatalf("clear actual: %v", err)
	}
	if !cleared.ActualValue.IsNull() {
		t.Fatalf("actual should be cleared: %v", cleared.ActualValue)
	}
	_, err = f.agg.UpdatePlannedValue(ctx, domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: pvID, Value: json.RawMessage(`null`)})
	requireCode(t, err, domainagg.CodeValidation)
	_, err = f.agg.UpdateActualValue(ctx, domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: pvID, Value: json.RawMessage(`"warm"`)})
	requireCode(t, err, domainagg.CodeValidation)
	_, err = f.agg.UpdateActualValue(ctx, domainagg.UpdateParameterValueInput{StepRef: bulk, ParameterValueID: uuid.New(), Value: json.RawMessage(`1`)})
	requireCode(t, err, domainagg.CodeNotFound)

	if got := f.reload(t, bake.ID).Steps[1].Status; got != baking.StepPending {
		t.Fatalf("corrections must not move the step: got=%s", got)
	}
}

func TestCompleteStepUnknownParameterPolicy(t *testing.T) {
	unknown := map[uuid.UUID]json.RawMessage{uuid.New(): json.RawMessage(`1`)}

	t.Run("skip", func(t *testing.T) {
		f := newBakeFixture(t, nil)
		bake := f.start(t)
		step, err := f.agg.CompleteStep(context.Background(), domainagg.CompleteStepInput{StepRef: f.stepRef(bake, 0), ActualParameterValues: unknown})
		if err != nil {
			t.Fatalf("CompleteStep: %v", err)
		}
		if step.Status != baking.StepCompleted || !step.ParameterValues[0].ActualValue.IsNull() {
			t.Fatalf("skipped unknown parameter: status=%s actual=%v", step.Status, step.ParameterValues[0].ActualValue)
		}
	})

	t.Run("reject", func(t *testing.T) {
		f := newBakeFixture(t, func(d *aggregates.BakeAggregateDeps) { d.UnknownParameterPolicy = baking.UnknownParameterReject })
		bake := f.start(t)
		_, err := f.agg.CompleteStep(context.Background(), domainagg.CompleteStepInput{StepRef: f.stepRef(bake, 0), ActualParameterValues: unknown})
		requireCode(t, err, domainagg.CodeValidation)
		if got := f.reload(t, bake.ID).Steps[0].Status; got != baking.StepPending {
			t.Fatalf("rejected completion must leave the step PENDING: got=%s", got)
		}
	})

	t.Run("invalid value rolls back", func(t *testing.T) {
		f := newBakeFixture(t, nil)
		bake := f.start(t)
		_, err := f.agg.CompleteStep(context.Background(), domainagg.CompleteStepInput{
			StepRef: f.stepRef(bake, 1),
			ActualParameterValues: map[uuid.UUID]json.RawMessage{
				f.cat.Duration.ID:    json.RawMessage(`230`),
				f.cat.Temperature.ID: json.RawMessage(`"hot"`),
			},
		})
		requireCode(t, err, domainagg.CodeValidation)
		got := f.reload(t, bake.ID).Steps[1]
		if got.Status != baking.StepPending {
			t.Fatalf("status: want=PENDING got=%s", got.Status)
		}
		for _, pv := range got.ParameterValues {
			if !pv.ActualValue.IsNull() {
				t.Fatalf("no actual value may be written: %v", pv.ActualValue)
			}
		}
	})

	t.Run("broken deviations", func(t *testing.T) {
		f := newBakeFixture(t, nil)
		bake := f.start(t)
		_, err := f.agg.CompleteStep(context.Background(), domainagg.CompleteStepInput{StepRef: f.stepRef(bake, 0), Deviations: json.RawMessage(`{`)})
		requireCode(t, err, domainagg.CodeValidation)
	})
}

func TestStartBakeRollsBackOnCommitFailure(t *testing.T) {
	commitErr := errors.New("commit failed")
	var runner *aggtest.InjectedTxRunner
	f := newBakeFixture(t, func(d *aggregates.BakeAggregateDeps) {
		runner = &aggtest.InjectedTxRunner{Inner: d.Store.(*bakes.MemoryStore), FailCommit: commitErr}
		d.Base.Runner = runner
	})

	_, err := f.agg.StartBake(context.Background(), domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: f.recipe.ID})
	requireCode(t, err, domainagg.CodePersistence)
	if !errors.Is(err, commitErr) {
		t.Fatalf("cause: want=%v got=%v", commitErr, err)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("runner counters commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	all, err := f.store.FindAllByOwner(dbctx.Background(context.Background()), f.owner)
	if err != nil {
		t.Fatalf("FindAllByOwner: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rolled back bake is visible: %d", len(all))
	}
	if got := f.hooks.EventCount(aggregates.EventBakeStarted); got != 0 {
		t.Fatalf("no event may be emitted for a rolled back bake: got=%d", got)
	}
}

func TestConcurrentStartBakeProducesDisjointBakes(t *testing.T) {
	f := newBakeFixture(t, nil)
	const n = 8

	var mu sync.Mutex
	ids := map[uuid.UUID]bool{}
	stepIDs := map[uuid.UUID]bool{}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			bake, err := f.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: f.owner, RecipeID: f.recipe.ID})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			ids[bake.ID] = true
			for _, st := range bake.Steps {
				stepIDs[st.ID] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent StartBake: %v", err)
	}
	if len(ids) != n || len(stepIDs) != n*2 {
		t.Fatalf("disjoint aggregates: bakes=%d steps=%d", len(ids), len(stepIDs))
	}
	all, err := f.store.FindAllByOwner(dbctx.Background(context.Background()), f.owner)
	if err != nil {
		t.Fatalf("FindAllByOwner: %v", err)
	}
	if len(all) != n {
		t.Fatalf("stored bakes: want=%d got=%d", n, len(all))
	}
	for _, b := range all {
		if b.StepCount != 2 {
			t.Fatalf("step count: want=2 got=%d", b.StepCount)
		}
	}
}

func TestNullDeviationsClearTheColumn(t *testing.T) {
	f := newBakeFixture(t, nil)
	ctx := context.Background()
	bake := f.start(t)

	if _, err := f.agg.UpdateStepDeviations(ctx, domainagg.UpdateStepDeviationsInput{StepRef: f.stepRef(bake, 0), Deviations: json.RawMessage(`{"water":"+10g"}`)}); err != nil {
		t.Fatalf("UpdateStepDeviations: %v", err)
	}
	completed, err := f.agg.CompleteStep(ctx, domainagg.CompleteStepInput{StepRef: f.stepRef(bake, 0), Deviations: json.RawMessage(`null`)})
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if completed.Deviations != nil {
		t.Fatalf("complete with null deviations: want=nil got=%s", completed.Deviations)
	}

	if _, err := f.agg.UpdateStepDeviations(ctx, domainagg.UpdateStepDeviationsInput{StepRef: f.stepRef(bake, 1), Deviations: json.RawMessage(`{"oven":"hot"}`)}); err != nil {
		t.Fatalf("UpdateStepDeviations: %v", err)
	}
	cleared, err := f.agg.UpdateStepDeviations(ctx, domainagg.UpdateStepDeviationsInput{StepRef: f.stepRef(bake, 1), Deviations: json.RawMessage(` null `)})
	if err != nil {
		t.Fatalf("UpdateStepDeviations: %v", err)
	}
	if cleared.Deviations != nil {
		t.Fatalf("null deviations: want=nil got=%s", cleared.Deviations)
	}
}
