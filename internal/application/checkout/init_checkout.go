// Package checkout initiates hosted payment sessions. It is a thin wrapper:
// the heavy lifting happens later, when the provider's webhook comes back
// through the confirmation pipeline.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/providers/flutterwave"
)

// CheckoutProvider creates hosted checkout orders.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req flutterwave.CheckoutRequest) (*flutterwave.Checkout, error)
}

// InitCheckoutUseCase builds a checkout order with a fresh reference and the
// metadata the webhook pipeline will later need to authorize the commit.
type InitCheckoutUseCase struct {
	provider   CheckoutProvider
	appBaseURL string
	currency   string
	now        func() time.Time
}

func NewInitCheckoutUseCase(provider CheckoutProvider, appBaseURL, currency string) *InitCheckoutUseCase {
	return &InitCheckoutUseCase{
		provider:   provider,
		appBaseURL: appBaseURL,
		currency:   currency,
		now:        time.Now,
	}
}

// Input carries the checkout parameters after request validation.
type Input struct {
	UserID   string
	Email    string
	Name     string
	PlanID   string
	Interval string
	Amount   float64
}

// Result is the hosted link plus the reference the client can poll on.
type Result struct {
	Link  string
	TxRef string
}

// Execute creates the checkout order. The reference encodes the user and the
// initiation time, so references are unique per attempt and a duplicate
// webhook for the same attempt is always detectable.
func (uc *InitCheckoutUseCase) Execute(ctx context.Context, in Input) (*Result, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "must be positive")
	}
	if in.Interval != billing.IntervalMonthly && in.Interval != billing.IntervalYearly {
		return nil, domainErrors.NewValidationError("interval", "must be monthly or yearly")
	}

	txRef := fmt.Sprintf("orinx_%s_%d", in.UserID, uc.now().UnixMilli())

	co, err := uc.provider.CreateCheckout(ctx, flutterwave.CheckoutRequest{
		TxRef:       txRef,
		Amount:      in.Amount,
		Currency:    uc.currency,
		RedirectURL: uc.redirectURL(txRef),
		Email:       in.Email,
		Name:        in.Name,
		Meta: billing.Meta{
			UserID:   in.UserID,
			PlanID:   in.PlanID,
			Interval: in.Interval,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", in.UserID).Msg("checkout initiation failed")
		return nil, err
	}

	log.Info().Str("user_id", in.UserID).Str("tx_ref", txRef).Msg("checkout created")
	return &Result{Link: co.Link, TxRef: txRef}, nil
}

// redirectURL is where the hosted page sends the customer back; the client
// then polls its own backend while the webhook confirms out of band.
func (uc *InitCheckoutUseCase) redirectURL(txRef string) string {
	return uc.appBaseURL + "/app/settings/pricing?status=verifying&tx_ref=" + url.QueryEscape(txRef)
}
