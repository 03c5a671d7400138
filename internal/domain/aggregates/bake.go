package aggregates

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
)

var BakeAggregateContract = Contract{
	Name:             "Baking.BakeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns recipe snapshotting at bake start and every bake/step/parameter-value mutation afterwards.",
}

// BakeAggregate owns the bake snapshot and step execution invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidState, CodePersistence, CodeInternal.
// A bake owned by someone else is reported as CodeNotFound.
type BakeAggregate interface {
	Aggregate

	// StartBake snapshots an active recipe visible to the owner into a new ACTIVE bake.
	StartBake(ctx context.Context, in StartBakeInput) (*baking.Bake, error)

	// CompleteBake ends an ACTIVE bake as COMPLETED.
	CompleteBake(ctx context.Context, ref BakeRef) (*baking.Bake, error)
	// CancelBake ends an ACTIVE bake as CANCELLED.
	CancelBake(ctx context.Context, ref BakeRef) (*baking.Bake, error)

	UpdateBakeNotes(ctx context.Context, in UpdateBakeNotesInput) (*baking.Bake, error)
	UpdateBakeRating(ctx context.Context, in UpdateBakeRatingInput) (*baking.Bake, error)

	StartStep(ctx context.Context, ref StepRef) (*baking.BakeStep, error)
	CompleteStep(ctx context.Context, in CompleteStepInput) (*baking.BakeStep, error)
	SkipStep(ctx context.Context, ref StepRef) (*baking.BakeStep, error)
	FailStep(ctx context.Context, in FailStepInput) (*baking.BakeStep, error)

	UpdateStepNote(ctx context.Context, in UpdateStepNoteInput) (*baking.BakeStep, error)
	UpdateStepDeviations(ctx context.Context, in UpdateStepDeviationsInput) (*baking.BakeStep, error)

	// UpdatePlannedValue is the only path that rewrites a snapshotted plan value.
	UpdatePlannedValue(ctx context.Context, in UpdateParameterValueInput) (*baking.BakeStepParameterValue, error)
	UpdateActualValue(ctx context.Context, in UpdateParameterValueInput) (*baking.BakeStepParameterValue, error)
}

type StartBakeInput struct {
	OwnerID  uuid.UUID
	RecipeID uuid.UUID
	// Notes defaults to "Bake of <recipe name>" when nil or blank.
	Notes *string
}

type BakeRef struct {
	OwnerID uuid.UUID
	BakeID  uuid.UUID
}

type UpdateBakeNotesInput struct {
	BakeRef
	Notes string
}

// UpdateBakeRatingInput carries a 1-5 rating; nil clears it.
type UpdateBakeRatingInput struct {
	BakeRef
	Rating *int
}

type StepRef struct {
	OwnerID uuid.UUID
	BakeID  uuid.UUID
	StepID  uuid.UUID
}

type CompleteStepInput struct {
	StepRef
	// ActualParameterValues is keyed by parameter id (not parameter value id).
	ActualParameterValues map[uuid.UUID]json.RawMessage
	Notes                 *string
	// Deviations replaces the step deviations when non-nil.
	Deviations json.RawMessage
}

type FailStepInput struct {
	StepRef
	Reason string
}

type UpdateStepNoteInput struct {
	StepRef
	Notes string
}

type UpdateStepDeviationsInput struct {
	StepRef
	Deviations json.RawMessage
}

type UpdateParameterValueInput struct {
	StepRef
	ParameterValueID uuid.UUID
	Value            json.RawMessage
	Notes            *string
}
