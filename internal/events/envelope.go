package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const Producer = "shopcarts"

// EventEnvelope wraps every published payload with its identity and routing data.
type EventEnvelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

func NewEnvelope[T any](name string, version int, partitionKey string, occurredAt time.Time, payload T) EventEnvelope[T] {
	return EventEnvelope[T]{
		EventName:    name,
		EventVersion: version,
		EventID:      uuid.NewString(),
		Producer:     Producer,
		PartitionKey: partitionKey,
		OccurredAt:   occurredAt.UTC(),
		Payload:      payload,
	}
}

func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("invalid eventId: %w", err)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}
