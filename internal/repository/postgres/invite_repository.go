package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/domain/invite"
)

type InviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

func (r *InviteRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *InviteRepository) Create(ctx context.Context, inv *invite.Invite) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO team_invites (id, token, team_id, email, role, is_admin, status, invited_by, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.Token, inv.TeamID, inv.Email, inv.Role, inv.IsAdmin,
		string(inv.Status), inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

// GetByToken returns a pending, unexpired invite. Anything else is reported
// as not found so callers cannot distinguish revoked from nonexistent.
func (r *InviteRepository) GetByToken(ctx context.Context, token uuid.UUID) (*invite.Invite, error) {
	inv := &invite.Invite{}
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, token, team_id, email, role, is_admin, status, invited_by, expires_at, accepted_at, created_at
		 FROM team_invites
		 WHERE token = $1 AND status = 'pending' AND expires_at > NOW()`, token,
	).Scan(&inv.ID, &inv.Token, &inv.TeamID, &inv.Email, &inv.Role, &inv.IsAdmin,
		&status, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrInviteNotFound
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	inv.Status = invite.Status(status)
	return inv, nil
}

func (r *InviteRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE team_invites SET status = 'accepted', accepted_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark invite accepted: %w", err)
	}
	return nil
}

func (r *InviteRepository) IsActiveMember(ctx context.Context, teamID, email string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND email = $2 AND status = 'active')`,
		teamID, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return exists, nil
}

// UpsertMember adds the user to the team, or refreshes an existing row. The
// role comes from the invite, so acceptance cannot escalate privileges.
func (r *InviteRepository) UpsertMember(ctx context.Context, m *invite.Member) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO team_members (team_id, user_id, email, role, status, invited_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (team_id, user_id) DO UPDATE SET
		   email = EXCLUDED.email,
		   role = EXCLUDED.role,
		   status = EXCLUDED.status,
		   invited_by = EXCLUDED.invited_by,
		   updated_at = EXCLUDED.updated_at`,
		m.TeamID, m.UserID, m.Email, m.Role, m.Status, m.InvitedBy, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert team member: %w", err)
	}
	return nil
}

// ExpirePending marks overdue pending invites as expired and returns the count.
func (r *InviteRepository) ExpirePending(ctx context.Context) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE team_invites SET status = 'expired' WHERE status = 'pending' AND expires_at < NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("expire pending invites: %w", err)
	}
	return tag.RowsAffected(), nil
}
