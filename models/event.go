package models

import (
	"time"

	"github.com/goccy/go-json"
)

// EventType is the lifecycle event that produced a change event.
type EventType string

const (
	EntityCreated     EventType = "entityCreated"
	EntityUpdated     EventType = "entityUpdated"
	EntitySoftDeleted EventType = "entitySoftDeleted"
	EntityDeleted     EventType = "entityDeleted"
)

// ChangeEvent is a single versioned change of a catalog entity as emitted by the catalog.
type ChangeEvent struct {
	// ID is a unique identifier for the event
	ID string `json:"id,omitempty"`

	// EventType is the lifecycle event, e.g. entityUpdated
	EventType EventType `json:"eventType"`

	// EntityType is the type tag of the changed entity, e.g. table, dashboard
	EntityType string `json:"entityType"`

	// EntityID is the id of the changed entity
	EntityID string `json:"entityId,omitempty"`

	// EntityFullyQualifiedName is the fully qualified name of the changed entity
	EntityFullyQualifiedName string `json:"entityFullyQualifiedName,omitempty"`

	// UserName is the user that made the change
	UserName string `json:"userName,omitempty"`

	// Timestamp is the event time in epoch milliseconds
	Timestamp int64 `json:"timestamp"`

	// PreviousVersion is the entity version before the change
	PreviousVersion float64 `json:"previousVersion"`

	// CurrentVersion is the entity version after the change
	CurrentVersion float64 `json:"currentVersion"`

	// ChangeDescription holds the field level changes, only set for entityUpdated
	ChangeDescription *ChangeDescription `json:"changeDescription,omitempty"`

	// Entity is the raw entity payload, kept opaque
	Entity json.RawMessage `json:"entity,omitempty"`

	// Position is where the capturer read the event from, ACKed once the event is delivered
	Position string `json:"-"`
}

// EntityReference returns the reference of the entity this event is about. Identity
// missing from the event itself is taken from the entity payload.
func (e *ChangeEvent) EntityReference() EntityReference {
	ref := EntityReference{
		ID:                 e.EntityID,
		Type:               e.EntityType,
		FullyQualifiedName: e.EntityFullyQualifiedName,
	}
	if len(e.Entity) == 0 || (ref.ID != "" && ref.FullyQualifiedName != "") {
		return ref
	}

	var payload EntityReference
	if err := json.Unmarshal(e.Entity, &payload); err != nil {
		return ref
	}
	if ref.ID == "" {
		ref.ID = payload.ID
	}
	if ref.FullyQualifiedName == "" {
		ref.FullyQualifiedName = payload.FullyQualifiedName
	}
	ref.Name = payload.Name
	ref.DisplayName = payload.DisplayName
	return ref
}

// Time converts the event timestamp to a time.Time.
func (e *ChangeEvent) Time() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}

// Notification is a formatted message about one entity link, ready for a sink.
type Notification struct {
	EventID   string          `json:"eventId,omitempty"`
	EventType EventType       `json:"eventType"`
	Entity    EntityReference `json:"entity"`
	Link      EntityLink      `json:"link"`
	Message   string          `json:"message"`
	UserName  string          `json:"userName,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
