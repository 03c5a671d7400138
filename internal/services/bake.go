package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/data/aggregates"
	"github.com/yungbote/breadlog-backend/internal/data/repos"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type CompleteStepRequest struct {
	// ActualParameterValues is keyed by parameter id.
	ActualParameterValues map[uuid.UUID]json.RawMessage
	Notes                 *string
	Deviations            json.RawMessage
}

type ParameterValueUpdate struct {
	Value json.RawMessage
	Notes *string
}

// BakeService resolves the caller from the request context and forwards
// writes to the bake aggregate. Reads go straight to the store.
type BakeService interface {
	StartBake(ctx context.Context, recipeID uuid.UUID, notes *string) (*types.Bake, error)
	ListActive(ctx context.Context) ([]*types.Bake, error)
	List(ctx context.Context) ([]*types.Bake, error)
	Get(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error)

	Complete(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error)
	Cancel(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error)
	UpdateNotes(ctx context.Context, bakeID uuid.UUID, notes string) (*types.Bake, error)
	// UpdateRating accepts a JSON integer 1-5 or null.
	UpdateRating(ctx context.Context, bakeID uuid.UUID, rating json.RawMessage) (*types.Bake, error)

	StartStep(ctx context.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error)
	CompleteStep(ctx context.Context, bakeID, stepID uuid.UUID, req CompleteStepRequest) (*types.BakeStep, error)
	SkipStep(ctx context.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error)
	FailStep(ctx context.Context, bakeID, stepID uuid.UUID, reason string) (*types.BakeStep, error)
	UpdateStepNote(ctx context.Context, bakeID, stepID uuid.UUID, notes string) (*types.BakeStep, error)
	UpdateStepDeviations(ctx context.Context, bakeID, stepID uuid.UUID, deviations json.RawMessage) (*types.BakeStep, error)

	UpdatePlannedValue(ctx context.Context, bakeID, stepID, valueID uuid.UUID, in ParameterValueUpdate) (*types.BakeStepParameterValue, error)
	UpdateActualValue(ctx context.Context, bakeID, stepID, valueID uuid.UUID, in ParameterValueUpdate) (*types.BakeStepParameterValue, error)
}

type bakeService struct {
	log      *logger.Logger
	store    repos.BakeStore
	agg      domainagg.BakeAggregate
	notifier BakeNotifier
}

func NewBakeService(log *logger.Logger, store repos.BakeStore, agg domainagg.BakeAggregate, notifier BakeNotifier) BakeService {
	return &bakeService{
		log:      log.With("service", "BakeService"),
		store:    store,
		agg:      agg,
		notifier: notifier,
	}
}

func (s *bakeService) StartBake(ctx context.Context, recipeID uuid.UUID, notes *string) (*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	bake, err := s.agg.StartBake(ctx, domainagg.StartBakeInput{OwnerID: ownerID, RecipeID: recipeID, Notes: notes})
	if err != nil {
		return nil, err
	}
	s.notifier.BakeChanged(ctx, aggregates.EventBakeStarted, bake)
	return bake, nil
}

func (s *bakeService) ListActive(ctx context.Context) ([]*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.store.FindActiveByOwner(dbctx.Background(ctx), ownerID)
	if err != nil {
		return nil, aggregates.MapError("Baking.Bake.ListActive", err)
	}
	return out, nil
}

func (s *bakeService) List(ctx context.Context) ([]*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.store.FindAllByOwner(dbctx.Background(ctx), ownerID)
	if err != nil {
		return nil, aggregates.MapError("Baking.Bake.List", err)
	}
	return out, nil
}

func (s *bakeService) Get(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error) {
	const op = "Baking.Bake.Get"
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	bake, err := s.store.FindByID(dbctx.Background(ctx), ownerID, bakeID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if bake == nil {
		return nil, domainagg.NotFound(op, "bake")
	}
	return bake, nil
}

func (s *bakeService) Complete(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error) {
	return s.finish(ctx, bakeID, s.agg.CompleteBake, aggregates.EventBakeCompleted)
}

func (s *bakeService) Cancel(ctx context.Context, bakeID uuid.UUID) (*types.Bake, error) {
	return s.finish(ctx, bakeID, s.agg.CancelBake, aggregates.EventBakeCancelled)
}

func (s *bakeService) finish(
	ctx context.Context,
	bakeID uuid.UUID,
	fn func(context.Context, domainagg.BakeRef) (*types.Bake, error),
	event string,
) (*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	bake, err := fn(ctx, domainagg.BakeRef{OwnerID: ownerID, BakeID: bakeID})
	if err != nil {
		return nil, err
	}
	s.notifier.BakeChanged(ctx, event, bake)
	return bake, nil
}

func (s *bakeService) UpdateNotes(ctx context.Context, bakeID uuid.UUID, notes string) (*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdateBakeNotes(ctx, domainagg.UpdateBakeNotesInput{
		BakeRef: domainagg.BakeRef{OwnerID: ownerID, BakeID: bakeID},
		Notes:   notes,
	})
}

func (s *bakeService) UpdateRating(ctx context.Context, bakeID uuid.UUID, rating json.RawMessage) (*types.Bake, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := baking.ParseRating(rating)
	if err != nil {
		return nil, domainagg.Validation("Baking.Bake.UpdateRating", err.Error())
	}
	return s.agg.UpdateBakeRating(ctx, domainagg.UpdateBakeRatingInput{
		BakeRef: domainagg.BakeRef{OwnerID: ownerID, BakeID: bakeID},
		Rating:  parsed,
	})
}

func (s *bakeService) stepRef(ctx context.Context, bakeID, stepID uuid.UUID) (domainagg.StepRef, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return domainagg.StepRef{}, err
	}
	return domainagg.StepRef{OwnerID: ownerID, BakeID: bakeID, StepID: stepID}, nil
}

func (s *bakeService) transition(
	ctx context.Context,
	ref domainagg.StepRef,
	event string,
	fn func() (*types.BakeStep, error),
) (*types.BakeStep, error) {
	step, err := fn()
	if err != nil {
		return nil, err
	}
	s.notifier.StepChanged(ctx, event, ref.OwnerID, ref.BakeID, step)
	return step, nil
}

func (s *bakeService) StartStep(ctx context.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, aggregates.EventStepStarted, func() (*types.BakeStep, error) {
		return s.agg.StartStep(ctx, ref)
	})
}

func (s *bakeService) CompleteStep(ctx context.Context, bakeID, stepID uuid.UUID, req CompleteStepRequest) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, aggregates.EventStepCompleted, func() (*types.BakeStep, error) {
		return s.agg.CompleteStep(ctx, domainagg.CompleteStepInput{
			StepRef:               ref,
			ActualParameterValues: req.ActualParameterValues,
			Notes:                 req.Notes,
			Deviations:            req.Deviations,
		})
	})
}

func (s *bakeService) SkipStep(ctx context.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, aggregates.EventStepSkipped, func() (*types.BakeStep, error) {
		return s.agg.SkipStep(ctx, ref)
	})
}

func (s *bakeService) FailStep(ctx context.Context, bakeID, stepID uuid.UUID, reason string) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, aggregates.EventStepFailed, func() (*types.BakeStep, error) {
		return s.agg.FailStep(ctx, domainagg.FailStepInput{StepRef: ref, Reason: reason})
	})
}

func (s *bakeService) UpdateStepNote(ctx context.Context, bakeID, stepID uuid.UUID, notes string) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdateStepNote(ctx, domainagg.UpdateStepNoteInput{StepRef: ref, Notes: notes})
}

func (s *bakeService) UpdateStepDeviations(ctx context.Context, bakeID, stepID uuid.UUID, deviations json.RawMessage) (*types.BakeStep, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdateStepDeviations(ctx, domainagg.UpdateStepDeviationsInput{StepRef: ref, Deviations: deviations})
}

func (s *bakeService) UpdatePlannedValue(ctx context.Context, bakeID, stepID, valueID uuid.UUID, in ParameterValueUpdate) (*types.BakeStepParameterValue, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdatePlannedValue(ctx, domainagg.UpdateParameterValueInput{
		StepRef:          ref,
		ParameterValueID: valueID,
		Value:            in.Value,
		Notes:            in.Notes,
	})
}

func (s *bakeService) UpdateActualValue(ctx context.Context, bakeID, stepID, valueID uuid.UUID, in ParameterValueUpdate) (*types.BakeStepParameterValue, error) {
	ref, err := s.stepRef(ctx, bakeID, stepID)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdateActualValue(ctx, domainagg.UpdateParameterValueInput{
		StepRef:          ref,
		ParameterValueID: valueID,
		Value:            in.Value,
		Notes:            in.Notes,
	})
}
