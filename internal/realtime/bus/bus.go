package bus

import (
	"context"

	"github.com/yungbote/breadlog-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, evt realtime.BakeEvent) error
	Close() error
}

type noopBus struct{}

// NewNoopBus drops every event. Used when REDIS_ADDR is unset.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, realtime.BakeEvent) error { return nil }
func (noopBus) Close() error                                     { return nil }
