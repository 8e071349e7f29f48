package testutil

import (
	"fmt"

	"github.com/orinx/billing/internal/domain/billing"
)

const (
	// TestSecretHash is the webhook secret used across tests.
	TestSecretHash = "test-verif-hash"
)

// ChargeCompletedBody returns a raw webhook delivery for a completed charge.
func ChargeCompletedBody(txID int64, txRef string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"charge.completed","data":{"id":%d,"tx_ref":%q,"status":"successful","amount":29.99,"currency":"USD"}}`,
		txID, txRef,
	))
}

// WebhookBody returns a raw webhook delivery with the given event and claimed
// status.
func WebhookBody(event string, txID int64, txRef, status string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"data":{"id":%d,"tx_ref":%q,"status":%q,"amount":29.99}}`,
		event, txID, txRef, status,
	))
}

// NewVerifiedTransaction returns a successful verified transaction with
// complete metadata, suitable for the happy path.
func NewVerifiedTransaction(txID, txRef string) *billing.VerifiedTransaction {
	return &billing.VerifiedTransaction{
		ID:       txID,
		TxRef:    txRef,
		Status:   billing.StatusSuccessful,
		Amount:   29.99,
		Currency: "USD",
		Meta: billing.Meta{
			UserID:   "user-1",
			PlanID:   "plan-pro",
			Interval: billing.IntervalMonthly,
		},
	}
}
