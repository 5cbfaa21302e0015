package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"viagem/internal/cache"
)

// Mutation actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// MutationEvent announces a confirmed mutation so other processes can
// refresh the collections it touched. It carries keys, not payloads: the
// consumer refetches from the API.
type MutationEvent struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Action   string `json:"action"`
	EntityID int    `json:"entityId"`
	// Partition is the country for partitioned kinds. PreviousPartition is
	// set when an update moved the entity to another country.
	Partition         string    `json:"partition,omitempty"`
	PreviousPartition string    `json:"previousPartition,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewMutationEvent creates an event with a fresh id.
func NewMutationEvent(kind, action string, entityID int, partition string) MutationEvent {
	return MutationEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Action:    action,
		EntityID:  entityID,
		Partition: partition,
		Timestamp: time.Now().UTC(),
	}
}

// Keys returns every cache key the mutation affected. Budget and expense
// mutations also affect the budget summary.
func (m MutationEvent) Keys() []cache.Key {
	keys := []cache.Key{cache.NewKey(m.Kind, m.Partition)}
	if m.PreviousPartition != "" && m.PreviousPartition != m.Partition {
		keys = append(keys, cache.NewKey(m.Kind, m.PreviousPartition))
	}
	if m.Kind == cache.KindBudgets || m.Kind == cache.KindExpenses {
		keys = append(keys, cache.BudgetSummaryKey())
	}
	return keys
}

func (m MutationEvent) Validate() error {
	switch m.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.Kind == "" {
		return fmt.Errorf("missing kind")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationEventFromJSON decodes and validates a message body.
func MutationEventFromJSON(data []byte) (MutationEvent, error) {
	var msg MutationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return MutationEvent{}, err
	}
	if err := msg.Validate(); err != nil {
		return MutationEvent{}, err
	}
	return msg, nil
}
