package invite

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status of a team invite.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"
)

// Invite is a pending offer to join a team, addressed to an email. The token
// is the capability the invitee presents back; it is single-use and expiring.
type Invite struct {
	ID         uuid.UUID
	Token      uuid.UUID
	TeamID     string
	Email      string
	Role       string
	IsAdmin    bool
	Status     Status
	InvitedBy  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// New creates a pending invite with a fresh token.
func New(teamID, email, role string, isAdmin bool, invitedBy string, ttl time.Duration) *Invite {
	now := time.Now()
	return &Invite{
		ID:        uuid.New(),
		Token:     uuid.New(),
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		IsAdmin:   isAdmin,
		Status:    StatusPending,
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Usable reports whether the invite can still be accepted.
func (i *Invite) Usable(now time.Time) bool {
	return i.Status == StatusPending && now.Before(i.ExpiresAt)
}

// Member is an active team membership, written only through the privileged
// commit path after the invitee's identity has been verified.
type Member struct {
	TeamID    string
	UserID    string
	Email     string
	Role      string
	Status    string
	InvitedBy string
}

// Repository persists invites and memberships.
type Repository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByToken(ctx context.Context, token uuid.UUID) (*Invite, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	IsActiveMember(ctx context.Context, teamID, email string) (bool, error)
	UpsertMember(ctx context.Context, m *Member) error
	ExpirePending(ctx context.Context) (int64, error)
}
