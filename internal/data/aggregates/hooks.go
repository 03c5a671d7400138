package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/envutil"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

// Hooks receives every aggregate write outcome and committed bake event.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	// IncBakeEvent counts a committed lifecycle event such as "step.completed".
	IncBakeEvent(event string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncBakeEvent(string)                            {}

type observabilityHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
	slow    time.Duration
}

// NewObservabilityHooks feeds aggregate outcomes into metrics and warns about
// writes slower than AGGREGATE_SLOW_OP_MS (default 500). With neither metrics
// nor a logger it returns no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	if metrics == nil && log == nil {
		return noopHooks{}
	}
	slow := time.Duration(envutil.Int("AGGREGATE_SLOW_OP_MS", 500)) * time.Millisecond
	if log != nil {
		log = log.With("component", "AggregateHooks")
	}
	return &observabilityHooks{metrics: metrics, log: log, slow: slow}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	name = strings.TrimSpace(name)
	status = strings.TrimSpace(status)
	h.metrics.ObserveAggregateOperation(name, status, dur)
	if h.log != nil && h.slow > 0 && dur >= h.slow {
		h.log.Warn("slow aggregate write", "op", name, "status", status, "duration_ms", dur.Milliseconds())
	}
}

func (h *observabilityHooks) IncBakeEvent(event string) {
	h.metrics.IncBakeEvent(strings.TrimSpace(event))
}
