package billing

import (
	"math"
	"time"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
)

// Transaction statuses as reported by the provider's verify endpoint.
const (
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusPending    = "pending"
)

// Billing intervals accepted in checkout metadata.
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// VerifiedTransaction holds the authoritative facts about a charge. It is
// produced exclusively by calling the provider's verification endpoint and is
// never persisted; the commit derives from it.
type VerifiedTransaction struct {
	ID       string
	TxRef    string
	Status   string
	Amount   float64
	Currency string
	Meta     Meta
}

// Successful reports whether the provider confirmed the charge.
func (t *VerifiedTransaction) Successful() bool {
	return t.Status == StatusSuccessful
}

// ValidateForCommit checks the invariants a transaction must satisfy before
// its financial effect may be applied: complete authorization metadata and a
// positive, finite amount.
func (t *VerifiedTransaction) ValidateForCommit() error {
	if t.Meta.UserID == "" {
		return domainErrors.NewValidationError("meta.user_id", "missing in verified transaction")
	}
	if t.Meta.PlanID == "" {
		return domainErrors.NewValidationError("meta.plan_id", "missing in verified transaction")
	}
	if t.Meta.Interval == "" {
		return domainErrors.NewValidationError("meta.interval", "missing in verified transaction")
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount <= 0 {
		return domainErrors.NewValidationError("amount", "must be a positive finite number")
	}
	return nil
}

// SubscriptionCommit is the atomic effect of a confirmed payment: one ledger
// row plus one subscription advance, applied as a single unit of work.
type SubscriptionCommit struct {
	UserID       string
	PlanID       string
	Amount       float64
	Currency     string
	Reference    string
	ProviderTxID string
	Interval     string
}

// CommitFrom builds the commit facts from a verified transaction. The raw
// webhook body never feeds this.
func CommitFrom(t *VerifiedTransaction) SubscriptionCommit {
	return SubscriptionCommit{
		UserID:       t.Meta.UserID,
		PlanID:       t.Meta.PlanID,
		Amount:       t.Amount,
		Currency:     t.Currency,
		Reference:    t.TxRef,
		ProviderTxID: t.ID,
		Interval:     t.Meta.Interval,
	}
}

// PeriodEnd returns the subscription period end for the given interval,
// counted from the commit time. Unknown intervals fall back to monthly.
func PeriodEnd(interval string, from time.Time) time.Time {
	if interval == IntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
