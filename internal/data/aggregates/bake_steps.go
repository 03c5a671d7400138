package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

func (a *bakeAggregate) StartStep(ctx context.Context, ref domainagg.StepRef) (*types.BakeStep, error) {
	const op = "Baking.Step.Start"
	out, err := a.mutateStep(ctx, op, ref, func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error) {
		next, err := baking.NextStatus(step.Status, baking.ActionStart, a.deps.StartPolicy)
		if err != nil {
			return nil, err
		}
		now := a.deps.Base.Now()
		return map[string]interface{}{
			"status":          next,
			"start_timestamp": now,
			"updated_at":      now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(EventStepStarted)
	return out, nil
}

func (a *bakeAggregate) CompleteStep(ctx context.Context, in domainagg.CompleteStepInput) (*types.BakeStep, error) {
	const op = "Baking.Step.Complete"
	if err := RequireJSON(in.Deviations, "deviations"); err != nil {
		return nil, MapError(op, err)
	}
	out, err := a.mutateStep(ctx, op, in.StepRef, func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error) {
		next, err := baking.NextStatus(step.Status, baking.ActionComplete, a.deps.StartPolicy)
		if err != nil {
			return nil, err
		}
		now := a.deps.Base.Now()

		// every value is parsed before anything is written
		writes, err := a.resolveActualValues(dbc, step.ID, in.ActualParameterValues)
		if err != nil {
			return nil, err
		}
		for _, w := range writes {
			if err := a.deps.Store.UpdateParameterValue(dbc, step.ID, w.id, map[string]interface{}{
				"actual_value": w.value,
				"updated_at":   now,
			}); err != nil {
				return nil, err
			}
		}

		fields := map[string]interface{}{
			"status":           next,
			"finish_timestamp": now,
			"updated_at":       now,
		}
		if in.Notes != nil {
			fields["notes"] = *in.Notes
		}
		if in.Deviations != nil {
			fields["deviations"] = deviationsColumn(in.Deviations)
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(EventStepCompleted)
	return out, nil
}

func (a *bakeAggregate) SkipStep(ctx context.Context, ref domainagg.StepRef) (*types.BakeStep, error) {
	const op = "Baking.Step.Skip"
	out, err := a.mutateStep(ctx, op, ref, func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error) {
		next, err := baking.NextStatus(step.Status, baking.ActionSkip, a.deps.StartPolicy)
		if err != nil {
			return nil, err
		}
		now := a.deps.Base.Now()
		return map[string]interface{}{
			"status":           next,
			"finish_timestamp": now,
			"updated_at":       now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(EventStepSkipped)
	return out, nil
}

func (a *bakeAggregate) FailStep(ctx context.Context, in domainagg.FailStepInput) (*types.BakeStep, error) {
	const op = "Baking.Step.Fail"
	out, err := a.mutateStep(ctx, op, in.StepRef, func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error) {
		next, err := baking.NextStatus(step.Status, baking.ActionFail, a.deps.StartPolicy)
		if err != nil {
			return nil, err
		}
		now := a.deps.Base.Now()
		fields := map[string]interface{}{
			"status":           next,
			"finish_timestamp": now,
			"updated_at":       now,
		}
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			fields["notes"] = appendFailureNote(step.Notes, reason)
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.Hooks.IncBakeEvent(EventStepFailed)
	return out, nil
}

// deviationsColumn maps an empty or null document to a cleared column.
func deviationsColumn(raw json.RawMessage) datatypes.JSON {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func appendFailureNote(notes, reason string) string {
	line := "Failed: " + reason
	if strings.TrimSpace(notes) == "" {
		return line
	}
	return notes + "\n" + line
}

func (a *bakeAggregate) UpdateStepNote(ctx context.Context, in domainagg.UpdateStepNoteInput) (*types.BakeStep, error) {
	return a.mutateStep(ctx, "Baking.Step.UpdateNote", in.StepRef, func(dbc dbctx.Context, _ *types.BakeStep) (map[string]interface{}, error) {
		return map[string]interface{}{
			"notes":      in.Notes,
			"updated_at": a.deps.Base.Now(),
		}, nil
	})
}

// UpdateStepDeviations replaces the deviations document; empty input clears it.
func (a *bakeAggregate) UpdateStepDeviations(ctx context.Context, in domainagg.UpdateStepDeviationsInput) (*types.BakeStep, error) {
	const op = "Baking.Step.UpdateDeviations"
	if err := RequireJSON(in.Deviations, "deviations"); err != nil {
		return nil, MapError(op, err)
	}
	return a.mutateStep(ctx, op, in.StepRef, func(dbc dbctx.Context, _ *types.BakeStep) (map[string]interface{}, error) {
		return map[string]interface{}{
			"deviations": deviationsColumn(in.Deviations),
			"updated_at": a.deps.Base.Now(),
		}, nil
	})
}

// UpdatePlannedValue corrects a snapshotted plan value. A plan value cannot be cleared.
func (a *bakeAggregate) UpdatePlannedValue(ctx context.Context, in domainagg.UpdateParameterValueInput) (*types.BakeStepParameterValue, error) {
	return a.updateParameterValue(ctx, "Baking.Step.UpdatePlannedValue", in, "planned_value", false)
}

// UpdateActualValue records or corrects a measured value; null clears it.
func (a *bakeAggregate) UpdateActualValue(ctx context.Context, in domainagg.UpdateParameterValueInput) (*types.BakeStepParameterValue, error) {
	return a.updateParameterValue(ctx, "Baking.Step.UpdateActualValue", in, "actual_value", true)
}

func (a *bakeAggregate) updateParameterValue(ctx context.Context, op string, in domainagg.UpdateParameterValueInput, column string, nullable bool) (*types.BakeStepParameterValue, error) {
	if in.ParameterValueID == uuid.Nil {
		return nil, domainagg.Validation(op, "missing parameter_value_id")
	}
	var out *types.BakeStepParameterValue
	_, err := a.mutateStep(ctx, op, in.StepRef, func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error) {
		pv, err := a.deps.Store.GetParameterValue(dbc, step.ID, in.ParameterValueID)
		if err != nil {
			return nil, err
		}
		if pv == nil {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("parameter value not found: %s", in.ParameterValueID), nil)
		}
		value, err := catalog.ParseWithOptions(pv.DataType, catalog.DecodeOptions(pv.Options), in.Value)
		if err != nil {
			return nil, err
		}
		if value.IsNull() && !nullable {
			return nil, ValidationError("value is required")
		}
		fields := map[string]interface{}{
			column:       value,
			"updated_at": a.deps.Base.Now(),
		}
		if in.Notes != nil {
			fields["notes"] = *in.Notes
		}
		if err := a.deps.Store.UpdateParameterValue(dbc, step.ID, pv.ID, fields); err != nil {
			return nil, err
		}
		out, err = a.deps.Store.GetParameterValue(dbc, step.ID, pv.ID)
		if err != nil {
			return nil, err
		}
		// the step row itself is untouched
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type actualValueWrite struct {
	id    uuid.UUID
	value catalog.ParamValue
}

// resolveActualValues matches actual values to the step's parameter values by
// parameter id, in a stable order. Unplanned parameters follow the unknown
// parameter policy.
func (a *bakeAggregate) resolveActualValues(dbc dbctx.Context, stepID uuid.UUID, actual map[uuid.UUID]json.RawMessage) ([]actualValueWrite, error) {
	if len(actual) == 0 {
		return nil, nil
	}
	planned, err := a.deps.Store.ListParameterValues(dbc, stepID)
	if err != nil {
		return nil, err
	}
	byParam := make(map[uuid.UUID]*types.BakeStepParameterValue, len(planned))
	for _, pv := range planned {
		if pv != nil {
			byParam[pv.ParameterID] = pv
		}
	}

	ids := make([]uuid.UUID, 0, len(actual))
	for id := range actual {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	writes := make([]actualValueWrite, 0, len(ids))
	for _, paramID := range ids {
		pv, ok := byParam[paramID]
		if !ok {
			if a.deps.UnknownParameterPolicy == baking.UnknownParameterReject {
				return nil, ValidationError(fmt.Sprintf("parameter %s is not planned for this step", paramID))
			}
			a.log.Warn("skipping actual value for unplanned parameter", "step_id", stepID, "parameter_id", paramID)
			continue
		}
		value, err := catalog.ParseWithOptions(pv.DataType, catalog.DecodeOptions(pv.Options), actual[paramID])
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", paramID, err)
		}
		writes = append(writes, actualValueWrite{id: pv.ID, value: value})
	}
	return writes, nil
}

// mutateStep runs one step write: lock the bake, require it ACTIVE, load the
// step, apply the fields fn returns and reload the step.
func (a *bakeAggregate) mutateStep(
	ctx context.Context,
	op string,
	ref domainagg.StepRef,
	fn func(dbc dbctx.Context, step *types.BakeStep) (map[string]interface{}, error),
) (*types.BakeStep, error) {
	if err := validateStepRef(op, ref); err != nil {
		return nil, err
	}
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var out *types.BakeStep
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		step, err := a.loadActiveStep(dbc, op, ref)
		if err != nil {
			return err
		}
		fields, err := fn(dbc, step)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := a.deps.Store.UpdateStep(dbc, ref.BakeID, step.ID, fields); err != nil {
				return err
			}
		}
		out, err = a.deps.Store.GetStep(dbc, ref.BakeID, step.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *bakeAggregate) loadActiveStep(dbc dbctx.Context, op string, ref domainagg.StepRef) (*types.BakeStep, error) {
	bake, err := a.lockBake(dbc, op, domainagg.BakeRef{OwnerID: ref.OwnerID, BakeID: ref.BakeID})
	if err != nil {
		return nil, err
	}
	if !bake.Active() {
		return nil, InvalidStateError(fmt.Sprintf("bake is %s", bake.Status))
	}
	step, err := a.deps.Store.GetStep(dbc, bake.ID, ref.StepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("step not found: %s", ref.StepID), nil)
	}
	return step, nil
}

func validateStepRef(op string, ref domainagg.StepRef) error {
	if err := validateBakeRef(op, domainagg.BakeRef{OwnerID: ref.OwnerID, BakeID: ref.BakeID}); err != nil {
		return err
	}
	if ref.StepID == uuid.Nil {
		return domainagg.Validation(op, "missing step_id")
	}
	return nil
}
