package handlers

import (
	"net/http"

	oauthApp "github.com/orinx/billing/internal/application/oauth"
	"github.com/orinx/billing/internal/interfaces/http/dto"
)

// OAuthHandler records OAuth tokens from provider callbacks.
type OAuthHandler struct {
	storeUC *oauthApp.StoreTokensUseCase
}

func NewOAuthHandler(storeUC *oauthApp.StoreTokensUseCase) *OAuthHandler {
	return &OAuthHandler{storeUC: storeUC}
}

// StoreTokens handles POST /oauth/tokens.
func (h *OAuthHandler) StoreTokens(w http.ResponseWriter, r *http.Request) {
	var req dto.StoreTokensRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.storeUC.Execute(r.Context(), oauthApp.Input{
		Provider:     req.Provider,
		UserID:       req.UserID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    req.ExpiresIn,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
