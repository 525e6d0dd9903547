package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderStatusChanged = "order.status_changed"
	EventVendorApproved     = "vendor.approved"
	EventVendorRejected     = "vendor.rejected"
	EventProductSaved       = "product.saved"
	EventProductDeleted     = "product.deleted"
	EventUserPromoted       = "user.promoted"
)

// Event is a workflow change published for the audit trail.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewEvent(typ, entityType, entityID, actorID string, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type AuditEntry struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	Data       map[string]any
	CreatedAt  time.Time
}
