package realtime

import (
	"time"

	"github.com/google/uuid"
)

// BakeEvent is published after a bake or step transition commits.
type BakeEvent struct {
	Event   string     `json:"event"`
	OwnerID uuid.UUID  `json:"owner_id"`
	BakeID  uuid.UUID  `json:"bake_id"`
	StepID  *uuid.UUID `json:"step_id,omitempty"`
	Status  string     `json:"status"`
	At      time.Time  `json:"at"`
}
