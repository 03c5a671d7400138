package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/data/repos/bakes"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

// Lifecycle events reported through Hooks.IncBakeEvent after commit.
const (
	EventBakeStarted   = "bake.started"
	EventBakeCompleted = "bake.completed"
	EventBakeCancelled = "bake.cancelled"
	EventStepStarted   = "step.started"
	EventStepCompleted = "step.completed"
	EventStepSkipped   = "step.skipped"
	EventStepFailed    = "step.failed"
)

// RecipeReader is the slice of the recipe repo the bake aggregate needs.
type RecipeReader interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error)
}

type BakeAggregateDeps struct {
	Base BaseDeps

	Store   bakes.Store
	Recipes RecipeReader

	StartPolicy            baking.StartPolicy
	UnknownParameterPolicy baking.UnknownParameterPolicy
	// NewID defaults to uuid.New.
	NewID func() uuid.UUID
}

type bakeAggregate struct {
	deps BakeAggregateDeps
	log  *logger.Logger
}

func NewBakeAggregate(deps BakeAggregateDeps) domainagg.BakeAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.StartPolicy == "" {
		deps.StartPolicy = baking.StartLenient
	}
	if deps.UnknownParameterPolicy == "" {
		deps.UnknownParameterPolicy = baking.UnknownParameterSkip
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	return &bakeAggregate{deps: deps, log: deps.Base.Log.With("aggregate", "BakeAggregate")}
}

func (a *bakeAggregate) Contract() domainagg.Contract {
	return domainagg.BakeAggregateContract
}

func (a *bakeAggregate) configured(op string) error {
	if a.deps.Store == nil || a.deps.Recipes == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "bake aggregate store not configured", nil)
	}
	return nil
}

func (a *bakeAggregate) StartBake(ctx context.Context, in domainagg.StartBakeInput) (*types.Bake, error) {
	const op = "Baking.Bake.Start"
	if in.OwnerID == uuid.Nil {
		return nil, domainagg.Validation(op, "missing owner_id")
	}
	if in.RecipeID == uuid.Nil {
		return nil, domainagg.Validation(op, "missing recipe_id")
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}

	var out *types.Bake
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		recipe, err := a.deps.Recipes.GetByID(dbc, in.RecipeID)
		if err != nil {
			return err
		}
		// a deleted, foreign or missing recipe all read as absent
		if recipe == nil || !recipe.Active() || !recipe.VisibleTo(in.OwnerID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("recipe not found: %s", in.RecipeID), nil)
		}
		bake := BuildSnapshot(recipe, SnapshotOptions{
			OwnerID: in.OwnerID,
			Notes:   in.Notes,
			Now:     a.deps.Base.Now(),
			NewID:   a.deps.NewID,
		})
		if err := a.deps.Store.Create(dbc, bake); err != nil {
			return err
		}
		out, err = a.deps.Store.FindByID(dbc, in.OwnerID, bake.ID)
		if err != nil {
			return err
		}
		if out == nil {
			return domainagg.NewError(domainagg.CodeInternal, op, "bake vanished after create", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(EventBakeStarted)
	a.log.Info("bake started", "bake_id", out.ID, "recipe_id", out.RecipeID, "owner_id", out.OwnerID, "steps", len(out.Steps))
	return out, nil
}

func (a *bakeAggregate) CompleteBake(ctx context.Context, ref domainagg.BakeRef) (*types.Bake, error) {
	return a.finishBake(ctx, "Baking.Bake.Complete", ref, baking.BakeCompleted, EventBakeCompleted)
}

func (a *bakeAggregate) CancelBake(ctx context.Context, ref domainagg.BakeRef) (*types.Bake, error) {
	return a.finishBake(ctx, "Baking.Bake.Cancel", ref, baking.BakeCancelled, EventBakeCancelled)
}

// finishBake ends an ACTIVE bake; complete and cancel differ only by status.
func (a *bakeAggregate) finishBake(ctx context.Context, op string, ref domainagg.BakeRef, status baking.BakeStatus, event string) (*types.Bake, error) {
	out, err := a.updateBake(ctx, op, ref, true, func() (map[string]interface{}, error) {
		now := a.deps.Base.Now()
		return map[string]interface{}{
			"status":           status,
			"finish_timestamp": now,
			"updated_at":       now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(event)
	return out, nil
}

// UpdateBakeNotes is allowed on finished bakes.
func (a *bakeAggregate) UpdateBakeNotes(ctx context.Context, in domainagg.UpdateBakeNotesInput) (*types.Bake, error) {
	return a.updateBake(ctx, "Baking.Bake.UpdateNotes", in.BakeRef, false, func() (map[string]interface{}, error) {
		return map[string]interface{}{
			"notes":      in.Notes,
			"updated_at": a.deps.Base.Now(),
		}, nil
	})
}

// UpdateBakeRating is allowed on finished bakes; a nil rating clears it.
func (a *bakeAggregate) UpdateBakeRating(ctx context.Context, in domainagg.UpdateBakeRatingInput) (*types.Bake, error) {
	const op = "Baking.Bake.UpdateRating"
	if err := RequireRating(in.Rating); err != nil {
		return nil, MapError(op, err)
	}
	return a.updateBake(ctx, op, in.BakeRef, false, func() (map[string]interface{}, error) {
		var rating interface{}
		if in.Rating != nil {
			rating = *in.Rating
		}
		return map[string]interface{}{
			"rating":     rating,
			"updated_at": a.deps.Base.Now(),
		}, nil
	})
}

func (a *bakeAggregate) updateBake(
	ctx context.Context,
	op string,
	ref domainagg.BakeRef,
	requireActive bool,
	updates func() (map[string]interface{}, error),
) (*types.Bake, error) {
	if err := validateBakeRef(op, ref); err != nil {
		return nil, err
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var out *types.Bake
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		bake, err := a.lockBake(dbc, op, ref)
		if err != nil {
			return err
		}
		if requireActive {
			if err := RequireStatusAllowed(string(bake.Status), string(baking.BakeActive)); err != nil {
				return err
			}
		}
		fields, err := updates()
		if err != nil {
			return err
		}
		if err := a.deps.Store.UpdateTopLevel(dbc, bake.ID, fields); err != nil {
			return err
		}
		out, err = a.deps.Store.FindByID(dbc, ref.OwnerID, ref.BakeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *bakeAggregate) lockBake(dbc dbctx.Context, op string, ref domainagg.BakeRef) (*types.Bake, error) {
	bake, err := a.deps.Store.LockByID(dbc, ref.OwnerID, ref.BakeID)
	if err != nil {
		return nil, err
	}
	if bake == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("bake not found: %s", ref.BakeID), nil)
	}
	return bake, nil
}

func validateBakeRef(op string, ref domainagg.BakeRef) error {
	if ref.OwnerID == uuid.Nil {
		return domainagg.Validation(op, "missing owner_id")
	}
	if ref.BakeID == uuid.Nil {
		return domainagg.Validation(op, "missing bake_id")
	}
	return nil
}
