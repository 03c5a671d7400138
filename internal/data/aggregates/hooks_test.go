package aggregates

import (
	"testing"
	"time"

	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

func TestNewObservabilityHooksWithoutSinksIsNoop(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil, nil).(noopHooks); !ok {
		t.Fatalf("want noop hooks when metrics and logger are nil")
	}
}

func TestObservabilityHooksToleratesNilMetrics(t *testing.T) {
	t.Setenv("AGGREGATE_SLOW_OP_MS", "1")
	h := NewObservabilityHooks(nil, logger.Nop())
	oh, ok := h.(*observabilityHooks)
	if !ok {
		t.Fatalf("want observability hooks, got %T", h)
	}
	if oh.slow != time.Millisecond {
		t.Fatalf("slow threshold: want=1ms got=%s", oh.slow)
	}
	h.ObserveOperation(" Baking.Bake.StartBake ", "success", 5*time.Millisecond)
	h.IncBakeEvent("bake.started")
}
