// Package invite implements team invite issuance and acceptance. Issuing
// needs two identity capabilities with different privilege levels: the
// caller's own session to prove who is inviting, and the admin handle to
// send the invite email.
package invite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/invite"
	"github.com/orinx/billing/internal/platform"
)

// UserResolver resolves a caller's bearer token to an identity. Backed by
// the anon-key client; it cannot perform privileged operations.
type UserResolver interface {
	GetUser(ctx context.Context, bearer string) (*platform.User, error)
}

// Inviter sends invite emails through the identity backend. Backed by the
// service-key client.
type Inviter interface {
	InviteUserByEmail(ctx context.Context, email, redirectTo string, data map[string]any) error
}

// SendInviteUseCase issues a team invite and triggers the invite email.
type SendInviteUseCase struct {
	users       UserResolver
	repo        invite.Repository
	inviter     Inviter
	appBaseURL  string
	ttl         time.Duration
	defaultRole string
}

func NewSendInviteUseCase(
	users UserResolver,
	repo invite.Repository,
	inviter Inviter,
	appBaseURL string,
	ttl time.Duration,
	defaultRole string,
) *SendInviteUseCase {
	return &SendInviteUseCase{
		users:       users,
		repo:        repo,
		inviter:     inviter,
		appBaseURL:  appBaseURL,
		ttl:         ttl,
		defaultRole: defaultRole,
	}
}

// SendInput is an invite request from an authenticated team admin.
type SendInput struct {
	Bearer  string
	Email   string
	Role    string
	TeamID  string
	IsAdmin bool
}

// SendResult reports the issued token. AlreadyRegistered means the invite
// row exists and the invitee can log in to see it, but no email went out.
type SendResult struct {
	Token             uuid.UUID
	Message           string
	AlreadyRegistered bool
}

// Execute verifies the caller, records the invite and sends the email. An
// invitee who is already an active member is a conflict; an invitee who
// merely has an account still gets the invite row.
func (uc *SendInviteUseCase) Execute(ctx context.Context, in SendInput) (*SendResult, error) {
	caller, err := uc.users.GetUser(ctx, in.Bearer)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.TeamID == "" {
		return nil, domainErrors.NewValidationError("email", "email and team_id are required")
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = uc.defaultRole
	}

	member, err := uc.repo.IsActiveMember(ctx, in.TeamID, email)
	if err != nil {
		return nil, fmt.Errorf("membership check: %w", err)
	}
	if member {
		return nil, domainErrors.ErrAlreadyMember
	}

	inv := invite.New(in.TeamID, email, role, in.IsAdmin, caller.ID, uc.ttl)
	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	err = uc.inviter.InviteUserByEmail(ctx, email, uc.redirectTo(inv.Token), map[string]any{
		"invited_to_team_id": in.TeamID,
		"invited_role":       role,
		"skip_default_team":  true,
	})
	if err != nil {
		if isAlreadyOwner(err) {
			return nil, fmt.Errorf("%w: user already has an account", domainErrors.ErrAlreadyInvited)
		}
		if isAlreadyInvitedOrExists(err) {
			log.Info().Str("team_id", in.TeamID).Msg("invitee already registered, invite row issued")
			return &SendResult{
				Token:             inv.Token,
				Message:           "User already exists. They can log in to see the invite.",
				AlreadyRegistered: true,
			}, nil
		}
		return nil, fmt.Errorf("auth invite failed: %w", err)
	}

	log.Info().Str("team_id", in.TeamID).Str("invited_by", caller.ID).Msg("team invite sent")
	return &SendResult{Token: inv.Token, Message: "Invite sent."}, nil
}

// redirectTo builds the nested deep link the invite email lands on: auth
// callback, then password setup, then the join-team screen carrying the
// invite token. Each inner hop is query-encoded into the outer one.
func (uc *SendInviteUseCase) redirectTo(token uuid.UUID) string {
	finalDest := "/join-team?token=" + token.String()
	setPassword := "/set-password?next=" + url.QueryEscape(finalDest)
	return uc.appBaseURL + "/auth/callback?next=" + url.QueryEscape(setPassword)
}
