package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/outbox"
)

// txRefUnique is the constraint that makes the commit idempotent. Two
// concurrent deliveries for the same tx_ref can both pass the ledger lookup;
// this constraint guarantees at most one of them inserts.
const txRefUnique = "payments_tx_ref_key"

// LedgerRepository is the idempotency ledger and the subscription committer.
// The ledger row and the subscription advance are two faces of one write:
// they only ever change inside the same transaction.
type LedgerRepository struct {
	pool   *pgxpool.Pool
	tx     *TxManager
	outbox outbox.Repository
}

func NewLedgerRepository(pool *pgxpool.Pool, tx *TxManager, outboxRepo outbox.Repository) *LedgerRepository {
	return &LedgerRepository{pool: pool, tx: tx, outbox: outboxRepo}
}

func (r *LedgerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// AlreadyProcessed reports whether a ledger row exists for the reference.
// Existence proves the financial effect was applied.
func (r *LedgerRepository) AlreadyProcessed(ctx context.Context, txRef string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE tx_ref = $1)`, txRef,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger lookup for %s: %w", txRef, err)
	}
	return exists, nil
}

// CommitSuccessfulPayment applies the verified payment facts atomically:
// ledger insert, subscription upsert, and outbox entry in one transaction.
// A unique violation on tx_ref is returned as ErrAlreadyProcessed so a
// concurrent duplicate resolves to the no-op path instead of a fault.
func (r *LedgerRepository) CommitSuccessfulPayment(ctx context.Context, c billing.SubscriptionCommit) error {
	paymentID := uuid.New()
	now := time.Now()

	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := r.db(txCtx).Exec(txCtx,
			`INSERT INTO payments (id, user_id, plan_id, amount, currency, tx_ref, provider_tx_id, billing_interval, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			paymentID, c.UserID, c.PlanID, c.Amount, c.Currency, c.Reference, c.ProviderTxID, c.Interval, now,
		)
		if err != nil {
			return fmt.Errorf("insert ledger row: %w", err)
		}

		periodEnd := billing.PeriodEnd(c.Interval, now)
		_, err = r.db(txCtx).Exec(txCtx,
			`INSERT INTO subscriptions (user_id, plan_id, status, billing_interval, current_period_end, updated_at)
			 VALUES ($1, $2, 'active', $3, $4, $5)
			 ON CONFLICT (user_id) DO UPDATE SET
			   plan_id = EXCLUDED.plan_id,
			   status = 'active',
			   billing_interval = EXCLUDED.billing_interval,
			   current_period_end = EXCLUDED.current_period_end,
			   updated_at = EXCLUDED.updated_at`,
			c.UserID, c.PlanID, c.Interval, periodEnd, now,
		)
		if err != nil {
			return fmt.Errorf("advance subscription: %w", err)
		}

		return r.outbox.Insert(txCtx, outbox.NewEntry(outbox.AggregatePayment, paymentID, outbox.EventSubscriptionActivated, map[string]any{
			"user_id":        c.UserID,
			"plan_id":        c.PlanID,
			"amount":         c.Amount,
			"currency":       c.Currency,
			"reference":      c.Reference,
			"provider_tx_id": c.ProviderTxID,
			"interval":       c.Interval,
		}))
	})
	if err != nil {
		if isUniqueViolation(err, txRefUnique) {
			return domainErrors.ErrAlreadyProcessed
		}
		return err
	}
	return nil
}
