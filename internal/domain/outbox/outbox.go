package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the billing pipeline. Entries are written in the
// same transaction as the state change they describe and published by the
// worker afterwards, so the webhook request path never blocks on transport.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventInviteAccepted        = "invite.accepted"
)

// Aggregate types used in outbox entries.
const (
	AggregatePayment = "payment"
	AggregateInvite  = "invite"
)

type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       map[string]any
	Status        Status
	RetryCount    int
	MaxRetries    int
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

func NewEntry(aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]any) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		Status:        StatusPending,
		RetryCount:    0,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
	}
}
