package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
)

// CheckoutRequest describes a hosted checkout order. Meta is round-tripped:
// the provider echoes it back in webhooks and in verify responses, which is
// how the confirmation pipeline recovers user/plan/interval.
type CheckoutRequest struct {
	TxRef       string
	Amount      float64
	Currency    string
	RedirectURL string
	Email       string
	Name        string
	Meta        billing.Meta
}

// Checkout is the provider's answer: a hosted payment link for the client.
type Checkout struct {
	Link  string
	TxRef string
}

type checkoutPayload struct {
	TxRef       string           `json:"tx_ref"`
	Amount      float64          `json:"amount"`
	Currency    string           `json:"currency"`
	RedirectURL string           `json:"redirect_url"`
	Customer    checkoutCustomer `json:"customer"`
	Meta        billing.Meta     `json:"meta"`
}

type checkoutCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateCheckout creates a direct order and returns the hosted link. The
// link field name has drifted across provider API revisions, so all known
// spellings are accepted.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	payload, err := json.Marshal(checkoutPayload{
		TxRef:       req.TxRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer:    checkoutCustomer{Email: req.Email, Name: req.Name},
		Meta:        req.Meta,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal checkout payload: %w", err)
	}

	resp, err := c.do(ctx, "checkout", http.MethodPost, "/orchestration/direct-orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
		Data    struct {
			Link        string `json:"link"`
			CheckoutURL string `json:"checkout_url"`
			PaymentURL  string `json:"payment_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode checkout response: %v", domainErrors.ErrCheckoutFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrCheckoutFailed, msg)
	}

	link := body.Data.Link
	if link == "" {
		link = body.Data.CheckoutURL
	}
	if link == "" {
		link = body.Data.PaymentURL
	}
	if link == "" {
		return nil, fmt.Errorf("%w: no checkout link in provider response", domainErrors.ErrCheckoutFailed)
	}

	return &Checkout{Link: link, TxRef: req.TxRef}, nil
}
