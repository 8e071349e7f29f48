package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	inviteApp "github.com/orinx/billing/internal/application/invite"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/interfaces/http/dto"
	"github.com/orinx/billing/internal/middleware"
)

// TeamHandler handles team invite issuance and acceptance.
type TeamHandler struct {
	sendUC   *inviteApp.SendInviteUseCase
	acceptUC *inviteApp.AcceptInviteUseCase
}

func NewTeamHandler(sendUC *inviteApp.SendInviteUseCase, acceptUC *inviteApp.AcceptInviteUseCase) *TeamHandler {
	return &TeamHandler{sendUC: sendUC, acceptUC: acceptUC}
}

// SendInvite handles POST /teams/invites. Requires a bearer session.
func (h *TeamHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	bearer, ok := middleware.BearerToken(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	var req dto.SendInviteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sendUC.Execute(r.Context(), inviteApp.SendInput{
		Bearer:  bearer,
		Email:   req.Email,
		Role:    req.Role,
		TeamID:  req.TeamID,
		IsAdmin: req.IsAdminToggle,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InviteResponse{
		Success: true,
		Message: res.Message,
		Token:   res.Token.String(),
	})
}

// AcceptInvite handles POST /teams/invites/accept. The prepare action needs
// no session; accept does.
func (h *TeamHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptInviteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := uuid.Parse(req.Token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid invite token", Code: "invalid_invite"})
		return
	}

	if req.Action == "prepare" {
		preview, err := h.acceptUC.Prepare(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.InvitePreviewResponse{
			Success: true,
			Email:   preview.Email,
			TeamID:  preview.TeamID,
			Role:    preview.Role,
		})
		return
	}

	// The accept route is not behind RequireBearer because prepare is
	// sessionless, so read the header here.
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || bearer == r.Header.Get("Authorization") {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	res, err := h.acceptUC.Accept(r.Context(), token, bearer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InviteAcceptedResponse{
		Success: true,
		TeamID:  res.TeamID,
		Role:    res.Role,
	})
}
