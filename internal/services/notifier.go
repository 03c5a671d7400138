package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
	"github.com/yungbote/breadlog-backend/internal/realtime"
	"github.com/yungbote/breadlog-backend/internal/realtime/bus"
)

// BakeNotifier publishes committed bake transitions. Publishing is best
// effort: the write already happened, so failures are only logged.
type BakeNotifier interface {
	BakeChanged(ctx context.Context, event string, bake *types.Bake)
	StepChanged(ctx context.Context, event string, ownerID, bakeID uuid.UUID, step *types.BakeStep)
}

type bakeNotifier struct {
	bus bus.Bus
	log *logger.Logger
	now func() time.Time
}

func NewBakeNotifier(b bus.Bus, log *logger.Logger) BakeNotifier {
	if b == nil {
		b = bus.NewNoopBus()
	}
	return &bakeNotifier{
		bus: b,
		log: log.With("service", "BakeNotifier"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (n *bakeNotifier) BakeChanged(ctx context.Context, event string, bake *types.Bake) {
	if bake == nil {
		return
	}
	n.publish(ctx, realtime.BakeEvent{
		Event:   event,
		OwnerID: bake.OwnerID,
		BakeID:  bake.ID,
		Status:  string(bake.Status),
		At:      n.now(),
	})
}

func (n *bakeNotifier) StepChanged(ctx context.Context, event string, ownerID, bakeID uuid.UUID, step *types.BakeStep) {
	if step == nil {
		return
	}
	stepID := step.ID
	n.publish(ctx, realtime.BakeEvent{
		Event:   event,
		OwnerID: ownerID,
		BakeID:  bakeID,
		StepID:  &stepID,
		Status:  string(step.Status),
		At:      n.now(),
	})
}

func (n *bakeNotifier) publish(ctx context.Context, evt realtime.BakeEvent) {
	if err := n.bus.Publish(context.WithoutCancel(ctx), evt); err != nil {
		n.log.Ctx(ctx).Warn("Bake event publish failed", "event", evt.Event, "bake_id", evt.BakeID, "error", err)
	}
}
