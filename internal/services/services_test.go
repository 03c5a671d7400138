package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/data/repos"
	repotest "github.com/yungbote/breadlog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/platform/apierr"
	"github.com/yungbote/breadlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/breadlog-backend/internal/realtime/bus"
)

type serviceFixture struct {
	bakes   BakeService
	recipes RecipeService
	catalog CatalogService
	bus     *bus.MemoryBus
	cat     *repotest.Catalog
	recipe  *types.Recipe
	owner   uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	f := &serviceFixture{
		bus:   bus.NewMemoryBus(),
		cat:   repotest.SeedCatalog(t, ctx, db),
		owner: uuid.New(),
	}
	f.recipe = repotest.SeedRecipe(t, ctx, db, f.cat, f.owner, false)

	base := aggregates.BaseDeps{DB: db, Log: log}
	store := repos.NewBakeStore(db, log)
	recipeRepo := repos.NewRecipeRepo(db, log)
	catalogRepo := repos.NewCatalogRepo(db, log)

	f.bakes = NewBakeService(log, store, aggregates.NewBakeAggregate(aggregates.BakeAggregateDeps{
		Base:    base,
		Store:   store,
		Recipes: recipeRepo,
	}), NewBakeNotifier(f.bus, log))
	f.recipes = NewRecipeService(RecipeServiceDeps{
		Log:     log,
		Recipes: recipeRepo,
		Catalog: catalogRepo,
		Aggregate: aggregates.NewRecipeAggregate(aggregates.RecipeAggregateDeps{
			Base:              base,
			Recipes:           recipeRepo,
			Catalog:           catalogRepo,
			FlourCategoryName: f.cat.Flour.Name,
		}),
		LiquidCategoryName: f.cat.Liquid.Name,
	})
	f.catalog = NewCatalogService(log, catalogRepo)
	return f
}

func asOwner(ownerID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{OwnerID: ownerID})
}

func requireCode(t *testing.T, err error, want domainagg.ErrorCode) {
	t.Helper()
	if got := domainagg.CodeOf(err); got != want {
		t.Fatalf("error code: want=%s got=%s (err=%v)", want, got, err)
	}
}

func TestServicesRequireAnOwner(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.bakes.StartBake(context.Background(), f.recipe.ID, nil)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("want 401 api error, got=%v", err)
	}
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated in chain, got=%v", err)
	}
	if _, err := f.recipes.List(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("recipes.List: want ErrUnauthenticated, got=%v", err)
	}
	if _, err := f.catalog.ListIngredients(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("catalog.ListIngredients: want ErrUnauthenticated, got=%v", err)
	}
	if n := len(f.bus.Events()); n != 0 {
		t.Fatalf("events: want=0 got=%d", n)
	}
}

func TestBakeLifecyclePublishesEvents(t *testing.T) {
	f := newServiceFixture(t)
	ctx := asOwner(f.owner)

	bake, err := f.bakes.StartBake(ctx, f.recipe.ID, nil)
	if err != nil {
		t.Fatalf("StartBake: %v", err)
	}
	if bake.Notes != "Bake of "+f.recipe.Name {
		t.Fatalf("notes: got=%q", bake.Notes)
	}
	first := bake.Steps[0]
	if _, err := f.bakes.StartStep(ctx, bake.ID, first.ID); err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	done, err := f.bakes.CompleteStep(ctx, bake.ID, first.ID, CompleteStepRequest{
		ActualParameterValues: map[uuid.UUID]json.RawMessage{f.cat.Duration.ID: json.RawMessage(`18`)},
	})
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if done.Status != baking.StepCompleted {
		t.Fatalf("step status: want=%s got=%s", baking.StepCompleted, done.Status)
	}
	if _, err := f.bakes.SkipStep(ctx, bake.ID, bake.Steps[1].ID); err != nil {
		t.Fatalf("SkipStep: %v", err)
	}
	if _, err := f.bakes.Complete(ctx, bake.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// a rejected write publishes nothing
	_, err = f.bakes.Complete(ctx, bake.ID)
	requireCode(t, err, domainagg.CodeInvalidState)

	want := []string{
		aggregates.EventBakeStarted,
		aggregates.EventStepStarted,
		aggregates.EventStepCompleted,
		aggregates.EventStepSkipped,
		aggregates.EventBakeCompleted,
	}
	got := f.bus.Names()
	if len(got) != len(want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: want=%s got=%s", i, want[i], got[i])
		}
	}
	evts := f.bus.Events()
	if evts[1].StepID == nil || *evts[1].StepID != first.ID || evts[1].OwnerID != f.owner {
		t.Fatalf("step event: %+v", evts[1])
	}
	if evts[4].Status != string(baking.BakeCompleted) {
		t.Fatalf("completion event status: got=%s", evts[4].Status)
	}

	active, err := f.bakes.ListActive(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActive: n=%d err=%v", len(active), err)
	}
	all, err := f.bakes.List(ctx)
	if err != nil || len(all) != 1 || all[0].StepCount != 2 {
		t.Fatalf("List: got=%+v err=%v", all, err)
	}
}

func TestBakeReadsAreOwnerScoped(t *testing.T) {
	f := newServiceFixture(t)
	bake, err := f.bakes.StartBake(asOwner(f.owner), f.recipe.ID, nil)
	if err != nil {
		t.Fatalf("StartBake: %v", err)
	}
	stranger := asOwner(uuid.New())
	_, err = f.bakes.Get(stranger, bake.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.bakes.Cancel(stranger, bake.ID)
	requireCode(t, err, domainagg.CodeNotFound)

	got, err := f.bakes.Get(asOwner(f.owner), bake.ID)
	if err != nil || got.ID != bake.ID || len(got.Steps) != 2 {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
}

func TestUpdateRatingParsesInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := asOwner(f.owner)
	bake, err := f.bakes.StartBake(ctx, f.recipe.ID, nil)
	if err != nil {
		t.Fatalf("StartBake: %v", err)
	}
	for _, raw := range []string{`6`, `2.5`, `"four"`} {
		_, err := f.bakes.UpdateRating(ctx, bake.ID, json.RawMessage(raw))
		requireCode(t, err, domainagg.CodeValidation)
	}
	rated, err := f.bakes.UpdateRating(ctx, bake.ID, json.RawMessage(`4`))
	if err != nil || rated.Rating == nil || *rated.Rating != 4 {
		t.Fatalf("rate 4: got=%v err=%v", rated, err)
	}
	cleared, err := f.bakes.UpdateRating(ctx, bake.ID, json.RawMessage(`null`))
	if err != nil || cleared.Rating != nil {
		t.Fatalf("clear rating: got=%v err=%v", cleared, err)
	}
}

func TestRecipeFormulaScalesToTarget(t *testing.T) {
	f := newServiceFixture(t)
	ctx := asOwner(f.owner)

	target := 1750.0
	view, err := f.recipes.Formula(ctx, f.recipe.ID, &target)
	if err != nil {
		t.Fatalf("Formula: %v", err)
	}
	if view.FlourWeight != 1000 || view.TotalWeight != 1750 {
		t.Fatalf("weights: flour=%v total=%v", view.FlourWeight, view.TotalWeight)
	}
	if view.Hydration != 75 {
		t.Fatalf("hydration: want=75 got=%v", view.Hydration)
	}
	wantWeights := []float64{800, 200, 750}
	if len(view.Lines) != len(wantWeights) {
		t.Fatalf("lines: got=%+v", view.Lines)
	}
	for i, w := range wantWeights {
		if view.Lines[i].Weight != w {
			t.Fatalf("line %d weight: want=%v got=%v", i, w, view.Lines[i].Weight)
		}
	}
	if view.Lines[0].IngredientName != f.cat.BreadFlour.Name || view.Lines[0].CategoryName != f.cat.Flour.Name {
		t.Fatalf("line metadata: %+v", view.Lines[0])
	}

	zero := 0.0
	_, err = f.recipes.Formula(ctx, f.recipe.ID, &zero)
	requireCode(t, err, domainagg.CodeValidation)
	_, err = f.recipes.Formula(asOwner(uuid.New()), f.recipe.ID, &target)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestRecipeServiceStampsOwner(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()
	ctx := asOwner(owner)

	created, err := f.recipes.Create(ctx, domainagg.RecipeInput{
		OwnerID: uuid.New(),
		Name:    "Rye Tin",
		Steps: []domainagg.RecipeStepInput{{
			StepTemplateID: f.cat.Mix.ID,
			Ingredients: []domainagg.RecipeIngredientInput{
				{IngredientID: f.cat.BreadFlour.ID, Amount: 100, CalculationMode: bakerpct.ModePercentage},
				{IngredientID: f.cat.Water.ID, Amount: 80, CalculationMode: bakerpct.ModePercentage},
			},
		}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OwnerID != owner {
		t.Fatalf("owner: want=%s got=%s", owner, created.OwnerID)
	}
	// no total weight and no target
	_, err = f.recipes.Formula(ctx, created.ID, nil)
	requireCode(t, err, domainagg.CodeValidation)

	list, err := f.recipes.List(ctx)
	if err != nil || len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("List: got=%d err=%v", len(list), err)
	}
	if err := f.recipes.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = f.recipes.Get(ctx, created.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestCatalogListsSeededReferenceData(t *testing.T) {
	f := newServiceFixture(t)
	ctx := asOwner(f.owner)

	templates, err := f.catalog.ListStepTemplates(ctx)
	if err != nil {
		t.Fatalf("ListStepTemplates: %v", err)
	}
	names := map[string]bool{}
	for _, tmpl := range templates {
		names[tmpl.Name] = true
	}
	if !names[f.cat.Mix.Name] || !names[f.cat.Bulk.Name] {
		t.Fatalf("step templates: %v", names)
	}

	params, err := f.catalog.ListParameters(ctx)
	if err != nil {
		t.Fatalf("ListParameters: %v", err)
	}
	for _, p := range params {
		if p.ID == f.cat.Shape.ID {
			if got := p.OptionList(); len(got) != 3 || got[0] != "Boule" {
				t.Fatalf("shape options: %v", got)
			}
			return
		}
	}
	t.Fatalf("shape parameter missing from %d parameters", len(params))
}
