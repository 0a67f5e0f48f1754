package events

import (
	"context"
	"time"
)

type Type string

const (
	CustomerCreated     Type = "customer.created"
	CustomerDeleted     Type = "customer.deleted"
	LedgerEntryRecorded Type = "ledger.entry_recorded"
	LedgerEntryDeleted  Type = "ledger.entry_deleted"
	CashEntryRecorded   Type = "cash.entry_recorded"
	CashEntryDeleted    Type = "cash.entry_deleted"
)

// Event is a change notification. Payload is the record as written, or nil
// for deletions.
type Event struct {
	Type       Type      `json:"type"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
