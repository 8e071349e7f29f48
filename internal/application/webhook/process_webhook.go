// Package webhook implements the payment confirmation pipeline. A delivery
// runs through a fixed sequence of gates and stops at the first one that
// resolves it; only a verified, successful, never-before-seen transaction
// reaches the commit.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/infrastructure/observability"
)

// Outcome is the terminal state a delivery reached. Every outcome except
// OutcomeCommitted means nothing was persisted.
type Outcome string

const (
	OutcomeCommitted        Outcome = "committed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeNotSuccessful    Outcome = "not_successful"
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Verifier re-checks a transaction against the provider's own API. The
// webhook body's claims are never trusted without this round trip.
type Verifier interface {
	VerifyTransaction(ctx context.Context, id string) (*billing.VerifiedTransaction, error)
}

// Ledger is the persistence port for confirmed payments. AlreadyProcessed is
// advisory; CommitSuccessfulPayment is the authoritative duplicate gate and
// returns ErrAlreadyProcessed when the reference was committed concurrently.
type Ledger interface {
	AlreadyProcessed(ctx context.Context, txRef string) (bool, error)
	CommitSuccessfulPayment(ctx context.Context, commit billing.SubscriptionCommit) error
}

// Processor runs webhook deliveries through the confirmation gates.
type Processor struct {
	secretHash string
	verifier   Verifier
	ledger     Ledger
	metrics    *observability.Metrics
}

func NewProcessor(secretHash string, verifier Verifier, ledger Ledger, metrics *observability.Metrics) *Processor {
	return &Processor{
		secretHash: secretHash,
		verifier:   verifier,
		ledger:     ledger,
		metrics:    metrics,
	}
}

// Process runs a single delivery through the pipeline. A non-nil error means
// the delivery was rejected or could not be resolved; the zero Outcome
// accompanies it. Errors wrapping ErrProviderUnavailable, ErrProviderTimeout
// or storage failures are the only ones that should invite a provider retry.
func (p *Processor) Process(ctx context.Context, signature string, body []byte) (Outcome, error) {
	start := time.Now()

	if subtle.ConstantTimeCompare([]byte(signature), []byte(p.secretHash)) != 1 {
		p.observe("unauthorized", start)
		log.Warn().Msg("webhook rejected: signature mismatch")
		return "", domainErrors.ErrUnauthorizedSignature
	}

	var event billing.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		p.observe("malformed", start)
		return "", fmt.Errorf("%w: %v", domainErrors.ErrMalformedEvent, err)
	}

	// Only the event type decides the filter. The body's claimed status is
	// never trusted; success or failure is read from the verified
	// transaction further down.
	if event.Event != billing.EventChargeCompleted {
		p.observe(string(OutcomeIgnored), start)
		log.Info().Str("event", event.Event).Msg("webhook ignored")
		return OutcomeIgnored, nil
	}

	txID := event.Data.TransactionID()
	txRef := event.Data.TxRef
	if txID == "" || txRef == "" {
		p.observe("malformed", start)
		return "", fmt.Errorf("%w: missing transaction id or tx_ref", domainErrors.ErrMalformedEvent)
	}

	logger := log.With().Str("tx_ref", txRef).Str("transaction_id", txID).Logger()

	verified, err := p.verifier.VerifyTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrProviderUnavailable) ||
			errors.Is(err, domainErrors.ErrProviderTimeout) ||
			errors.Is(err, domainErrors.ErrTokenFetchFailed) {
			p.observe("provider_outage", start)
		} else {
			p.observe("verification_failed", start)
		}
		logger.Error().Err(err).Msg("transaction verification failed")
		return "", err
	}

	// A verify response for a different reference means the webhook body
	// was pointing us at someone else's transaction.
	if verified.TxRef != txRef {
		p.observe("verification_failed", start)
		logger.Warn().Str("verified_tx_ref", verified.TxRef).Msg("tx_ref mismatch against verified transaction")
		return "", fmt.Errorf("%w: tx_ref mismatch", domainErrors.ErrVerificationFailed)
	}

	if !verified.Successful() {
		p.observe(string(OutcomeNotSuccessful), start)
		logger.Info().Str("verified_status", verified.Status).Msg("verified transaction not successful")
		return OutcomeNotSuccessful, nil
	}

	if err := verified.ValidateForCommit(); err != nil {
		p.observe("invalid_meta", start)
		logger.Error().Err(err).Msg("verified transaction failed commit validation")
		return "", err
	}

	processed, err := p.ledger.AlreadyProcessed(ctx, verified.TxRef)
	if err != nil {
		p.observe("storage_error", start)
		return "", fmt.Errorf("idempotency check: %w", err)
	}
	if processed {
		p.metrics.DuplicateWebhooks.Inc()
		p.observe(string(OutcomeAlreadyProcessed), start)
		logger.Info().Msg("duplicate delivery, already processed")
		return OutcomeAlreadyProcessed, nil
	}

	err = p.ledger.CommitSuccessfulPayment(ctx, billing.CommitFrom(verified))
	switch {
	case err == nil:
		p.metrics.CommitsTotal.Inc()
		p.observe(string(OutcomeCommitted), start)
		logger.Info().
			Str("user_id", verified.Meta.UserID).
			Str("plan_id", verified.Meta.PlanID).
			Msg("subscription committed")
		return OutcomeCommitted, nil
	case isAlreadyProcessed(err):
		// Lost the race to a concurrent delivery of the same reference.
		p.metrics.DuplicateWebhooks.Inc()
		p.observe(string(OutcomeAlreadyProcessed), start)
		logger.Info().Msg("concurrent delivery committed first")
		return OutcomeAlreadyProcessed, nil
	default:
		p.observe("storage_error", start)
		return "", fmt.Errorf("commit payment: %w", err)
	}
}

func isAlreadyProcessed(err error) bool {
	return errors.Is(err, domainErrors.ErrAlreadyProcessed)
}

func (p *Processor) observe(outcome string, start time.Time) {
	p.metrics.WebhookOutcomes.WithLabelValues(outcome).Inc()
	p.metrics.WebhookDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
