package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/breadlog-backend/internal/realtime"
)

// MemoryBus keeps published events in order.
type MemoryBus struct {
	mu     sync.Mutex
	events []realtime.BakeEvent
	closed bool
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

func (b *MemoryBus) Publish(ctx context.Context, evt realtime.BakeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	b.events = append(b.events, evt)
	return nil
}

func (b *MemoryBus) Events() []realtime.BakeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.BakeEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *MemoryBus) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Event)
	}
	return out
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
