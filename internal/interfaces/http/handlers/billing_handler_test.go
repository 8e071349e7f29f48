package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	checkoutApp "github.com/orinx/billing/internal/application/checkout"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/interfaces/http/dto"
	"github.com/orinx/billing/internal/interfaces/http/handlers"
	"github.com/orinx/billing/internal/providers/flutterwave"
)

type stubCheckoutProvider struct {
	link string
	err  error
}

func (s *stubCheckoutProvider) CreateCheckout(_ context.Context, req flutterwave.CheckoutRequest) (*flutterwave.Checkout, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &flutterwave.Checkout{Link: s.link, TxRef: req.TxRef}, nil
}

func newBillingHandler(provider checkoutApp.CheckoutProvider) *handlers.BillingHandler {
	uc := checkoutApp.NewInitCheckoutUseCase(provider, "https://app.example.com", "USD")
	return handlers.NewBillingHandler(uc)
}

func checkoutRequestBody() dto.CheckoutRequest {
	return dto.CheckoutRequest{
		Email:    "u@example.com",
		Amount:   29.99,
		PlanID:   "plan-pro",
		UserID:   "user-1",
		Interval: "monthly",
	}
}

func TestInitCheckoutEndpoint_Success(t *testing.T) {
	h := newBillingHandler(&stubCheckoutProvider{link: "https://pay.example/x"})

	raw, _ := json.Marshal(checkoutRequestBody())
	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.InitCheckout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.CheckoutResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "success" || resp.Data.Link != "https://pay.example/x" {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.HasPrefix(resp.Data.TxRef, "orinx_user-1_") {
		t.Errorf("unexpected tx_ref %s", resp.Data.TxRef)
	}
}

func TestInitCheckoutEndpoint_Validation(t *testing.T) {
	h := newBillingHandler(&stubCheckoutProvider{link: "https://pay.example/x"})

	tests := []struct {
		name   string
		mutate func(*dto.CheckoutRequest)
	}{
		{"missing email", func(r *dto.CheckoutRequest) { r.Email = "" }},
		{"bad email", func(r *dto.CheckoutRequest) { r.Email = "not-an-email" }},
		{"zero amount", func(r *dto.CheckoutRequest) { r.Amount = 0 }},
		{"missing plan", func(r *dto.CheckoutRequest) { r.PlanID = "" }},
		{"bad interval", func(r *dto.CheckoutRequest) { r.Interval = "weekly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := checkoutRequestBody()
			tt.mutate(&body)
			raw, _ := json.Marshal(body)

			req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewReader(raw))
			w := httptest.NewRecorder()
			h.InitCheckout(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestInitCheckoutEndpoint_ProviderFailure(t *testing.T) {
	h := newBillingHandler(&stubCheckoutProvider{err: domainErrors.ErrCheckoutFailed})

	raw, _ := json.Marshal(checkoutRequestBody())
	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.InitCheckout(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on provider failure, got %d", w.Code)
	}

	var resp dto.ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != "checkout_failed" {
		t.Errorf("expected code checkout_failed, got %s", resp.Code)
	}
}
