package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names a committed ledger mutation.
type EventKind string

const (
	AccountCreated     EventKind = "account.created"
	AccountUpdated     EventKind = "account.updated"
	AccountDeleted     EventKind = "account.deleted"
	CategoryCreated    EventKind = "category.created"
	CategoryUpdated    EventKind = "category.updated"
	CategoryDeleted    EventKind = "category.deleted"
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case AccountCreated, AccountUpdated, AccountDeleted,
		CategoryCreated, CategoryUpdated, CategoryDeleted,
		TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	}
	return false
}

// LedgerEvent is published after every committed mutation. Accounts lists
// every account whose balance the mutation may have changed.
type LedgerEvent struct {
	ID         string          `json:"id"`
	Kind       EventKind       `json:"kind"`
	OwnerID    string          `json:"ownerId"`
	EntityID   string          `json:"entityId"`
	Accounts   []string        `json:"accounts,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewLedgerEvent creates an event with a fresh id. data is marshalled as
// the event payload; nil leaves it empty.
func NewLedgerEvent(kind EventKind, owner, entityID string, data any, accounts ...string) (*LedgerEvent, error) {
	e := &LedgerEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		OwnerID:    owner,
		EntityID:   entityID,
		Accounts:   accounts,
		OccurredAt: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
		e.Data = raw
	}
	return e, nil
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" || e.OwnerID == "" || !e.Kind.IsValid() {
		return nil, fmt.Errorf("malformed ledger event %q", e.ID)
	}
	return &e, nil
}
