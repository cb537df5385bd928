package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	Company() string
	Plant() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregateId"`
	AggType   string    `json:"aggregateType"`
	CompanyCd string    `json:"company,omitempty"`
	PlantCd   string    `json:"plant,omitempty"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// Company returns the company the event belongs to
func (e *BaseDomainEvent) Company() string {
	return e.CompanyCd
}

// Plant returns the plant the event belongs to
func (e *BaseDomainEvent) Plant() string {
	return e.PlantCd
}

// NewBaseDomainEvent creates a new base domain event for a tenant entity
func NewBaseDomainEvent(eventType, aggType string, entity TenantEntity) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		AggID:     entity.ID,
		AggType:   aggType,
		CompanyCd: entity.Company,
		PlantCd:   entity.Plant,
	}
}
