package handlers

import (
	"net/http"

	checkoutApp "github.com/orinx/billing/internal/application/checkout"
	"github.com/orinx/billing/internal/interfaces/http/dto"
)

// BillingHandler handles checkout initiation.
type BillingHandler struct {
	checkoutUC *checkoutApp.InitCheckoutUseCase
}

func NewBillingHandler(checkoutUC *checkoutApp.InitCheckoutUseCase) *BillingHandler {
	return &BillingHandler{checkoutUC: checkoutUC}
}

// InitCheckout handles POST /billing/checkout.
func (h *BillingHandler) InitCheckout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.checkoutUC.Execute(r.Context(), checkoutApp.Input{
		UserID:   req.UserID,
		Email:    req.Email,
		Name:     req.Name,
		PlanID:   req.PlanID,
		Interval: req.Interval,
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckoutResponse{
		Status: "success",
		Data:   dto.CheckoutData{Link: res.Link, TxRef: res.TxRef},
	})
}
