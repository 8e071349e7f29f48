package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/invite"
)

// AcceptInviteUseCase resolves invite tokens into memberships.
type AcceptInviteUseCase struct {
	users UserResolver
	repo  invite.Repository
}

func NewAcceptInviteUseCase(users UserResolver, repo invite.Repository) *AcceptInviteUseCase {
	return &AcceptInviteUseCase{users: users, repo: repo}
}

// Preview is what the join screen shows before the user confirms.
type Preview struct {
	Email  string
	TeamID string
	Role   string
}

// AcceptResult is the membership that was established.
type AcceptResult struct {
	TeamID string
	Role   string
}

// Prepare looks up a pending invite so the client can render the join
// screen. It requires no session; the token alone is the capability.
func (uc *AcceptInviteUseCase) Prepare(ctx context.Context, token uuid.UUID) (*Preview, error) {
	inv, err := uc.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Email:  normalizeEmail(inv.Email),
		TeamID: inv.TeamID,
		Role:   inv.Role,
	}, nil
}

// Accept joins the caller to the invited team. The session email must match
// the invite's email; the membership role comes from the invite, never from
// the request. The upsert handles users who already hold a membership row
// from a default workspace.
func (uc *AcceptInviteUseCase) Accept(ctx context.Context, token uuid.UUID, bearer string) (*AcceptResult, error) {
	inv, err := uc.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetUser(ctx, bearer)
	if err != nil {
		return nil, err
	}

	inviteEmail := normalizeEmail(inv.Email)
	if normalizeEmail(user.Email) != inviteEmail {
		return nil, fmt.Errorf("%w: invite is for %s", domainErrors.ErrEmailMismatch, inviteEmail)
	}

	err = uc.repo.UpsertMember(ctx, &invite.Member{
		TeamID:    inv.TeamID,
		UserID:    user.ID,
		Email:     inviteEmail,
		Role:      inv.Role,
		Status:    "active",
		InvitedBy: inv.InvitedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("join team: %w", err)
	}

	if err := uc.repo.MarkAccepted(ctx, inv.ID); err != nil {
		// Membership is established; a stale pending row only costs the
		// sweeper an extra pass.
		log.Warn().Err(err).Str("team_id", inv.TeamID).Msg("failed to mark invite accepted")
	}

	log.Info().Str("team_id", inv.TeamID).Str("user_id", user.ID).Msg("invite accepted")
	return &AcceptResult{TeamID: inv.TeamID, Role: inv.Role}, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
