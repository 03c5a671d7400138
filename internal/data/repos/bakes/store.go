package bakes

import (
	"github.com/google/uuid"
	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

// Store persists bake aggregates. Every top-level lookup is scoped by owner;
// a bake owned by someone else is reported exactly like a missing one
// (nil, nil).
type Store interface {
	// FindActiveByOwner returns ACTIVE bakes with full step graphs, newest first.
	FindActiveByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error)
	// FindAllByOwner returns every bake without steps, StepCount filled, newest first.
	FindAllByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Bake, error)
	// FindByID returns the full graph with steps in ascending order.
	FindByID(dbc dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error)
	// LockByID returns the top-level bake row, locked for update when supported.
	LockByID(dbc dbctx.Context, ownerID, bakeID uuid.UUID) (*types.Bake, error)

	// Create inserts the bake and its whole step graph.
	Create(dbc dbctx.Context, bake *types.Bake) error
	UpdateTopLevel(dbc dbctx.Context, bakeID uuid.UUID, updates map[string]interface{}) error

	// GetStep returns a step of bakeID with its ingredients and parameter values.
	GetStep(dbc dbctx.Context, bakeID, stepID uuid.UUID) (*types.BakeStep, error)
	UpdateStep(dbc dbctx.Context, bakeID, stepID uuid.UUID, updates map[string]interface{}) error

	ListParameterValues(dbc dbctx.Context, stepID uuid.UUID) ([]*types.BakeStepParameterValue, error)
	GetParameterValue(dbc dbctx.Context, stepID, id uuid.UUID) (*types.BakeStepParameterValue, error)
	UpdateParameterValue(dbc dbctx.Context, stepID, id uuid.UUID, updates map[string]interface{}) error
}
