package repo

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID       uuid.UUID      `json:"id"`
	ActorID  uuid.UUID      `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID uuid.UUID      `json:"entity_id"`
	Details  map[string]any `json:"details,omitempty"`
	At       time.Time      `json:"at"`
}

// NewAuditLog stamps an entry with a fresh id and the current time.
func NewAuditLog(actorID uuid.UUID, action, entity string, entityID uuid.UUID, details map[string]any) *AuditLog {
	return &AuditLog{
		ID:       uuid.Must(uuid.NewV7()),
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
		At:       time.Now().UTC(),
	}
}
