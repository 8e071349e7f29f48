package outbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	aggregateID := uuid.New()
	payload := map[string]any{
		"user_id":   "u1",
		"plan_id":   "pro",
		"reference": "orinx_u1_1000",
		"amount":    10.0,
	}

	entry := NewEntry(AggregatePayment, aggregateID, EventSubscriptionActivated, payload)

	require.NotNil(t, entry)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, AggregatePayment, entry.AggregateType)
	assert.Equal(t, aggregateID, entry.AggregateID)
	assert.Equal(t, EventSubscriptionActivated, entry.EventType)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, 5, entry.MaxRetries)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Nil(t, entry.PublishedAt)
}

func TestNewEntry_EmptyPayload(t *testing.T) {
	aggregateID := uuid.New()
	entry := NewEntry(AggregateInvite, aggregateID, EventInviteAccepted, nil)

	require.NotNil(t, entry)
	assert.Nil(t, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
}

func TestStatus_Constants(t *testing.T) {
	assert.Equal(t, Status("pending"), StatusPending)
	assert.Equal(t, Status("published"), StatusPublished)
	assert.Equal(t, Status("failed"), StatusFailed)
}

func TestEntry_UniqueIDs(t *testing.T) {
	aggregateID := uuid.New()
	entry1 := NewEntry(AggregatePayment, aggregateID, EventSubscriptionActivated, nil)
	entry2 := NewEntry(AggregatePayment, aggregateID, EventSubscriptionActivated, nil)

	// Each entry should have a unique ID even with same aggregate
	assert.NotEqual(t, entry1.ID, entry2.ID)
	assert.Equal(t, entry1.AggregateID, entry2.AggregateID)
}
