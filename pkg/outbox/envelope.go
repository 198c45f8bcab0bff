package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// ActorRef identifies who produced the event. System-driven changes carry no actor.
type ActorRef struct {
	UserID          uuid.UUID  `json:"userId"`
	Role            enums.Role `json:"role"`
	FarmerProfileID *uuid.UUID `json:"farmerProfileId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
